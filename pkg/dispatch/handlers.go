package dispatch

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/portalgate/portal/pkg/accesslog"
	"github.com/portalgate/portal/pkg/httputil"
	"github.com/portalgate/portal/pkg/identity"
	"github.com/portalgate/portal/pkg/observability"
	"github.com/portalgate/portal/pkg/registry"
	"github.com/portalgate/portal/pkg/session"
)

// ProviderSource resolves a service record to the identity provider that
// authenticates its visitors
type ProviderSource interface {
	ForService(record *registry.ServiceRecord) (identity.Provider, error)
	Direct() identity.Provider
}

// Dispatcher owns the visitor-facing routes
type Dispatcher struct {
	services       registry.ServiceStore
	providers      ProviderSource
	sessions       *session.Manager
	observer       *session.Observer
	access         accesslog.Logger
	logger         *observability.Logger
	metrics        *observability.Metrics
	defaultLanding string
}

// NewDispatcher creates the dispatcher
func NewDispatcher(
	services registry.ServiceStore,
	providers ProviderSource,
	sessions *session.Manager,
	observer *session.Observer,
	access accesslog.Logger,
	logger *observability.Logger,
	metrics *observability.Metrics,
	defaultLanding string,
) *Dispatcher {
	if defaultLanding == "" {
		defaultLanding = "/"
	}
	return &Dispatcher{
		services:       services,
		providers:      providers,
		sessions:       sessions,
		observer:       observer,
		access:         access,
		logger:         logger,
		metrics:        metrics,
		defaultLanding: defaultLanding,
	}
}

// RegisterRoutes mounts the dispatch routes. The service route goes last
// since it claims the whole root path space.
func (d *Dispatcher) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/callback", d.HandleCallback).Methods("GET", "POST")
	router.HandleFunc("/auth/signout", d.HandleSignOut).Methods("POST")
	router.HandleFunc("/{serviceId}", d.HandleService).Methods("GET")
}

// HandleService is the gateway entry point: GET /{serviceId}
func (d *Dispatcher) HandleService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := d.logger.FromContext(ctx)
	serviceID := mux.Vars(r)["serviceId"]

	record, err := d.Resolve(ctx, serviceID)
	if err != nil {
		switch {
		case errors.Is(err, ErrServiceNotFound):
			d.countDispatch("not_found")
			httputil.WriteNotFoundError(w, "service not found")
		case errors.Is(err, ErrServiceInactive):
			d.countDispatch("inactive")
			httputil.WriteForbidden(w, "service inactive")
		default:
			// infrastructure failure, kept distinct from not-found
			d.countDispatch("lookup_failed")
			log.WithError(err).WithField("service_id", serviceID).Error("service resolution failed")
			httputil.WriteServiceUnavailable(w, "service lookup failed")
		}
		return
	}

	sess, err := d.sessions.FromRequest(ctx, r)
	if err != nil {
		log.WithError(err).Warn("session resolution failed, treating visitor as anonymous")
	}

	if sess != nil {
		d.countDispatch("authorized")
		httputil.WriteSuccess(w, map[string]interface{}{
			"service_id":   record.ServiceID,
			"service_name": record.ServiceName,
			"user_id":      sess.UserID,
			"login_id":     sess.LoginID,
		})
		return
	}

	provider, err := d.providers.ForService(record)
	if err != nil {
		d.countDispatch("auth_failed")
		log.WithError(err).WithField("service_id", serviceID).Error("provider resolution failed")
		httputil.WriteInternalError(w, errors.New("authentication failed"))
		return
	}

	// federated visitors carry the service identifier through the provider
	// as the correlation token; direct visitors carry nothing
	state := ""
	if record.AuthType == registry.AuthTypeFederated {
		state = record.ServiceID
	}

	if err := provider.RedirectToSignIn(w, r, state); err != nil {
		d.countDispatch("auth_failed")
		log.WithError(err).WithField("service_id", serviceID).Error("sign-in redirect failed")
		httputil.WriteInternalError(w, errors.New("authentication failed"))
		return
	}

	d.countDispatch("redirected")
}

// HandleCallback is the identity provider return: /auth/callback. The
// correlation token comes back as OAuth2 state or SAML RelayState; a
// non-empty token selects the post-login destination and is recorded in
// the access trail. The token is taken at face value.
func (d *Dispatcher) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := d.logger.FromContext(ctx)

	provider, token, err := d.callbackProvider(r)
	if err != nil {
		d.countCallback("failed")
		log.WithError(err).Error("callback provider resolution failed")
		httputil.WriteUnauthorized(w, "authentication failed")
		return
	}

	user, err := provider.HandleCallback(w, r)
	if err != nil {
		d.countCallback("unauthenticated")
		log.WithError(err).Warn("identity callback rejected")
		httputil.WriteUnauthorized(w, "authentication failed")
		return
	}

	if _, err := d.sessions.Create(ctx, w, user); err != nil {
		d.countCallback("failed")
		log.WithError(err).Error("session creation failed")
		httputil.WriteInternalError(w, errors.New("authentication failed"))
		return
	}
	d.observer.SignedIn(user)

	if token == "" {
		d.countCallback("no_token")
		http.Redirect(w, r, d.defaultLanding, http.StatusFound)
		return
	}

	// a failed trail write never blocks the visitor
	if err := d.access.Record(ctx, user.UserID, token); err != nil {
		d.countAccessWrite("error")
		log.WithError(err).WithFields(map[string]interface{}{
			"user_id":    user.UserID,
			"service_id": token,
		}).Error("access record write failed")
	} else {
		d.countAccessWrite("ok")
	}

	d.countCallback("recorded")
	http.Redirect(w, r, "/"+token, http.StatusFound)
}

// HandleSignOut clears the session: POST /auth/signout
func (d *Dispatcher) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := d.logger.FromContext(ctx)

	sess, err := d.sessions.FromRequest(ctx, r)
	if err != nil {
		log.WithError(err).Warn("session resolution failed during sign-out")
	}

	sessionID := ""
	if sess != nil {
		sessionID = sess.ID
	}
	if err := d.sessions.Destroy(ctx, w, sessionID); err != nil {
		log.WithError(err).Error("session deletion failed")
	}
	d.observer.SignedOut()

	if err := d.providers.Direct().SignOut(w, r); err != nil {
		log.WithError(err).Warn("provider sign-out failed")
	}

	http.Redirect(w, r, d.defaultLanding, http.StatusSeeOther)
}

// callbackProvider figures out which provider produced the callback. A
// SAML assertion post carries the token as RelayState and needs the
// originating service's provider rebuilt; everything else is the direct
// OIDC flow with the token in the state parameter.
func (d *Dispatcher) callbackProvider(r *http.Request) (identity.Provider, string, error) {
	if err := r.ParseForm(); err != nil {
		return nil, "", err
	}

	if r.FormValue("SAMLResponse") != "" {
		token := r.FormValue("RelayState")
		if token == "" {
			return nil, "", errors.New("federated callback without relay state")
		}
		record, err := d.Resolve(r.Context(), token)
		if err != nil {
			return nil, "", err
		}
		provider, err := d.providers.ForService(record)
		if err != nil {
			return nil, "", err
		}
		return provider, token, nil
	}

	return d.providers.Direct(), r.FormValue("state"), nil
}

func (d *Dispatcher) countDispatch(outcome string) {
	if d.metrics != nil {
		d.metrics.DispatchTotal.WithLabelValues(outcome).Inc()
	}
}

func (d *Dispatcher) countCallback(outcome string) {
	if d.metrics != nil {
		d.metrics.CallbackTotal.WithLabelValues(outcome).Inc()
	}
}

func (d *Dispatcher) countAccessWrite(status string) {
	if d.metrics != nil {
		d.metrics.AccessWritesTotal.WithLabelValues(status).Inc()
	}
}
