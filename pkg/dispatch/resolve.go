package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/portalgate/portal/pkg/registry"
)

var (
	// ErrServiceNotFound means no record matches the service identifier
	ErrServiceNotFound = errors.New("service not found")

	// ErrServiceInactive means the service exists but refuses dispatch
	ErrServiceInactive = errors.New("service inactive")
)

// Resolve looks up a service and applies the active check. Absence and
// inactivity come back as the sentinel errors above; anything else is an
// infrastructure failure and must not be read as "not found".
func (d *Dispatcher) Resolve(ctx context.Context, serviceID string) (*registry.ServiceRecord, error) {
	record, err := d.services.Lookup(ctx, serviceID)
	if errors.Is(err, registry.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, serviceID)
	}
	if err != nil {
		return nil, fmt.Errorf("service lookup failed for %s: %w", serviceID, err)
	}

	if !record.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrServiceInactive, serviceID)
	}
	return record, nil
}
