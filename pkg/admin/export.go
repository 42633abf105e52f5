package admin

import (
	"errors"
	"net/http"
	"time"

	"github.com/portalgate/portal/pkg/accesslog"
	"github.com/portalgate/portal/pkg/httputil"
)

// ExportAccessLog serializes the access trail. Filters come from query
// parameters; ?upload=true ships the export to object storage instead of
// streaming it back.
func (h *Handler) ExportAccessLog(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		httputil.WriteServiceUnavailable(w, "access log export not configured")
		return
	}

	format := accesslog.ExportFormat(httputil.ParseQueryString(r, "format", string(accesslog.FormatJSON)))

	limit, err := httputil.ParseQueryInt(r, "limit", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	filter := accesslog.Filter{
		UserID:    httputil.ParseQueryString(r, "user_id", ""),
		ServiceID: httputil.ParseQueryString(r, "service_id", ""),
		Limit:     limit,
	}
	if since := httputil.ParseQueryString(r, "since", ""); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			httputil.WriteBadRequest(w, "since must be RFC3339")
			return
		}
		filter.Since = t
	}
	if until := httputil.ParseQueryString(r, "until", ""); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			httputil.WriteBadRequest(w, "until must be RFC3339")
			return
		}
		filter.Until = t
	}

	data, err := h.exporter.Export(r.Context(), filter, format)
	if err != nil {
		h.logger.FromContext(r.Context()).WithError(err).Error("access log export failed")
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	upload, err := httputil.ParseQueryBool(r, "upload", false)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if upload {
		if h.uploader == nil {
			httputil.WriteServiceUnavailable(w, "export upload not configured")
			return
		}
		key, err := h.uploader.Upload(r.Context(), format, data)
		if err != nil {
			h.logger.FromContext(r.Context()).WithError(err).Error("export upload failed")
			httputil.WriteInternalError(w, errors.New("failed to upload export"))
			return
		}
		httputil.WriteSuccess(w, map[string]string{"key": key})
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
