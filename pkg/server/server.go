package server

import (
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/portalgate/portal/pkg/admin"
	"github.com/portalgate/portal/pkg/config"
	"github.com/portalgate/portal/pkg/dispatch"
	"github.com/portalgate/portal/pkg/observability"
	"github.com/portalgate/portal/pkg/session"
)

// Server holds the gateway's two HTTP listeners
type Server struct {
	HTTP   *http.Server
	Health *http.Server

	router *mux.Router
	logger *observability.Logger
}

// Deps collects what the router serves
type Deps struct {
	Dispatcher *dispatch.Dispatcher
	Admin      *admin.Handler
	Sessions   *session.Manager
	Health     *observability.HealthChecker
	Metrics    *observability.Metrics
	Registry   *prometheus.Registry
	Logger     *observability.Logger
}

// New builds the routers and listeners. Route order matters: the admin
// and auth prefixes must claim their paths before the service route
// takes the rest of the root space.
func New(cfg *config.Config, deps Deps) *Server {
	router := mux.NewRouter()

	router.Use(RequestIDMiddleware)
	router.Use(LoggingMiddleware(deps.Logger))
	if deps.Metrics != nil {
		router.Use(MetricsMiddleware(deps.Metrics))
	}
	router.Use(SessionMiddleware(deps.Sessions, deps.Logger))

	deps.Admin.RegisterRoutes(router)
	deps.Dispatcher.RegisterRoutes(router)

	var handler http.Handler = router
	if cfg.Observability.OTelEnabled {
		handler = otelhttp.NewHandler(router, "portal")
	}

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthRouter := mux.NewRouter()
	healthRouter.HandleFunc("/healthz", deps.Health.Liveness).Methods("GET")
	healthRouter.HandleFunc("/readyz", deps.Health.Readiness).Methods("GET")
	if cfg.Observability.MetricsEnabled && deps.Registry != nil {
		healthRouter.Handle("/metrics", observability.Handler(deps.Registry)).Methods("GET")
	}

	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthRouter,
	}

	return &Server{
		HTTP:   httpServer,
		Health: healthServer,
		router: router,
		logger: deps.Logger,
	}
}

// Router exposes the visitor router, used by tests
func (s *Server) Router() *mux.Router {
	return s.router
}
