package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/portalgate/portal/pkg/httputil"
	"github.com/portalgate/portal/pkg/registry"
)

// createServiceRequest is the POST body for service registration
type createServiceRequest struct {
	ServiceID          string `json:"service_id"`
	ServiceName        string `json:"service_name"`
	AuthType           string `json:"auth_type"`
	IDPProvider        string `json:"idp_provider,omitempty"`
	FederationMetadata string `json:"federation_metadata,omitempty"`
	IsActive           *bool  `json:"is_active,omitempty"`
}

// ListServices returns all registered services
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	records, err := h.services.ListAll(r.Context())
	if err != nil {
		h.logger.FromContext(r.Context()).WithError(err).Error("service listing failed")
		httputil.WriteInternalError(w, errors.New("failed to list services"))
		return
	}

	if records == nil {
		records = []*registry.ServiceRecord{}
	}
	httputil.WriteSuccess(w, map[string]interface{}{
		"services": records,
		"count":    len(records),
	})
}

// GetService returns one service by its service ID
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := httputil.ParsePathStringOrError(w, r, "serviceId")
	if !ok {
		return
	}

	record, err := h.services.Lookup(r.Context(), serviceID)
	if errors.Is(err, registry.ErrNotFound) {
		httputil.WriteNotFoundError(w, "service not found")
		return
	}
	if err != nil {
		h.logger.FromContext(r.Context()).WithError(err).Error("service lookup failed")
		httputil.WriteInternalError(w, errors.New("failed to load service"))
		return
	}

	httputil.WriteSuccess(w, record)
}

// CreateService registers a new service
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req createServiceRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if !httputil.RequireNonEmpty(w, req.ServiceID, "service_id") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.ServiceName, "service_name") {
		return
	}

	authType := registry.AuthType(req.AuthType)
	if !authType.Valid() {
		httputil.WriteBadRequest(w, "auth_type must be \"direct\" or \"federated\"")
		return
	}
	if authType == registry.AuthTypeFederated && req.FederationMetadata == "" {
		httputil.WriteBadRequest(w, "federation_metadata is required for federated services")
		return
	}

	// new services dispatch unless explicitly disabled
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	record := &registry.ServiceRecord{
		ServiceID:          req.ServiceID,
		ServiceName:        req.ServiceName,
		AuthType:           authType,
		IDPProvider:        req.IDPProvider,
		FederationMetadata: req.FederationMetadata,
		IsActive:           isActive,
	}

	if err := h.services.Create(r.Context(), record); err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "UNIQUE") {
			httputil.WriteConflict(w, "service_id already registered")
			return
		}
		h.logger.FromContext(r.Context()).WithError(err).Error("service creation failed")
		httputil.WriteInternalError(w, errors.New("failed to create service"))
		return
	}

	h.logger.FromContext(r.Context()).WithField("service_id", record.ServiceID).Info("service registered")
	httputil.WriteCreated(w, record)
}

// UpdateService applies a partial update. The service ID in the path is
// authoritative; the request body cannot rename a service.
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := httputil.ParsePathStringOrError(w, r, "serviceId")
	if !ok {
		return
	}

	var upd registry.ServiceUpdate
	if !httputil.ParseJSONOrError(w, r, &upd) {
		return
	}

	if upd.AuthType != nil && !upd.AuthType.Valid() {
		httputil.WriteBadRequest(w, "auth_type must be \"direct\" or \"federated\"")
		return
	}

	record, err := h.services.Update(r.Context(), serviceID, upd)
	if errors.Is(err, registry.ErrNotFound) {
		httputil.WriteNotFoundError(w, "service not found")
		return
	}
	if err != nil {
		h.logger.FromContext(r.Context()).WithError(err).Error("service update failed")
		httputil.WriteInternalError(w, errors.New("failed to update service"))
		return
	}

	httputil.WriteSuccess(w, record)
}

// DeleteService removes a service registration
func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := httputil.ParsePathStringOrError(w, r, "serviceId")
	if !ok {
		return
	}

	err := h.services.Delete(r.Context(), serviceID)
	if errors.Is(err, registry.ErrNotFound) {
		httputil.WriteNotFoundError(w, "service not found")
		return
	}
	if err != nil {
		h.logger.FromContext(r.Context()).WithError(err).Error("service deletion failed")
		httputil.WriteInternalError(w, errors.New("failed to delete service"))
		return
	}

	h.logger.FromContext(r.Context()).WithField("service_id", serviceID).Info("service deleted")
	httputil.WriteNoContent(w)
}
