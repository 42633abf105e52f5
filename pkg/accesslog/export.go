package accesslog

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
)

// ExportFormat selects the export serialization
type ExportFormat string

const (
	FormatJSON   ExportFormat = "json"
	FormatNDJSON ExportFormat = "ndjson"
	FormatCSV    ExportFormat = "csv"
)

// Exporter serializes access records for operators
type Exporter struct {
	source *DBLogger
}

// NewExporter creates an exporter reading from the database trail
func NewExporter(source *DBLogger) *Exporter {
	return &Exporter{source: source}
}

// Export queries records matching the filter and serializes them
func (e *Exporter) Export(ctx context.Context, filter Filter, format ExportFormat) ([]byte, error) {
	records, err := e.source.Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatJSON:
		return exportJSON(records)
	case FormatNDJSON:
		return exportNDJSON(records)
	case FormatCSV:
		return exportCSV(records)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// ContentType returns the MIME type for a format
func (f ExportFormat) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatNDJSON:
		return "application/x-ndjson"
	default:
		return "application/json"
	}
}

func exportJSON(records []*AccessRecord) ([]byte, error) {
	return json.MarshalIndent(records, "", "  ")
}

func exportNDJSON(records []*AccessRecord) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, rec := range records {
		if err := encoder.Encode(rec); err != nil {
			return nil, fmt.Errorf("failed to encode record: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func exportCSV(records []*AccessRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"ID", "UserID", "ServiceID", "LastLogin", "IsAuthorized"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			strconv.FormatInt(rec.ID, 10),
			rec.UserID,
			rec.ServiceID,
			rec.LastLogin.Format("2006-01-02 15:04:05"),
			strconv.FormatBool(rec.IsAuthorized),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}
