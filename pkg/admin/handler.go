package admin

import (
	"github.com/gorilla/mux"

	"github.com/portalgate/portal/pkg/accesslog"
	"github.com/portalgate/portal/pkg/groups"
	"github.com/portalgate/portal/pkg/observability"
	"github.com/portalgate/portal/pkg/registry"
	"github.com/portalgate/portal/pkg/session"
)

// Handler serves the admin API
type Handler struct {
	services registry.ServiceStore
	members  *groups.Store
	guard    *groups.Guard
	sessions *session.Manager
	exporter *accesslog.Exporter
	uploader *accesslog.S3Uploader
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewHandler creates the admin API handler. exporter and uploader are
// optional; the export route reports itself unconfigured without them.
func NewHandler(
	services registry.ServiceStore,
	members *groups.Store,
	guard *groups.Guard,
	sessions *session.Manager,
	exporter *accesslog.Exporter,
	uploader *accesslog.S3Uploader,
	logger *observability.Logger,
	metrics *observability.Metrics,
) *Handler {
	return &Handler{
		services: services,
		members:  members,
		guard:    guard,
		sessions: sessions,
		exporter: exporter,
		uploader: uploader,
		logger:   logger,
		metrics:  metrics,
	}
}

// RegisterRoutes mounts the admin API under /admin, all behind the admin
// guard
func (h *Handler) RegisterRoutes(router *mux.Router) {
	sub := router.PathPrefix("/admin").Subrouter()
	sub.Use(h.RequireAdmin)

	sub.HandleFunc("/services", h.ListServices).Methods("GET")
	sub.HandleFunc("/services", h.CreateService).Methods("POST")
	sub.HandleFunc("/services/{serviceId}", h.GetService).Methods("GET")
	sub.HandleFunc("/services/{serviceId}", h.UpdateService).Methods("PUT")
	sub.HandleFunc("/services/{serviceId}", h.DeleteService).Methods("DELETE")

	sub.HandleFunc("/users/{userId}/groups", h.ListUserGroups).Methods("GET")
	sub.HandleFunc("/groups", h.AddMembership).Methods("POST")
	sub.HandleFunc("/groups", h.RemoveMembership).Methods("DELETE")

	sub.HandleFunc("/access-log/export", h.ExportAccessLog).Methods("GET")
}
