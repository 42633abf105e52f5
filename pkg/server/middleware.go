package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/portalgate/portal/pkg/contextkeys"
	"github.com/portalgate/portal/pkg/observability"
	"github.com/portalgate/portal/pkg/session"
)

// statusRecorder captures the response status for logging and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestIDMiddleware assigns every request a UUID, exposed on the
// response and carried in the context for log correlation
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := contextkeys.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionMiddleware resolves the visitor's session, if any, and stashes
// it in the context. Resolution failure degrades to anonymous.
func SessionMiddleware(sessions *session.Manager, logger *observability.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sess, err := sessions.FromRequest(ctx, r)
			if err != nil {
				logger.FromContext(ctx).WithError(err).Warn("session resolution failed")
			}
			if sess != nil {
				ctx = contextkeys.WithSession(ctx, sess)
				ctx = contextkeys.WithUserID(ctx, sess.UserID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggingMiddleware emits one structured line per request
func LoggingMiddleware(logger *observability.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r)

			logger.FromContext(r.Context()).WithFields(map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      recorder.status,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_addr": r.RemoteAddr,
			}).Info("request completed")
		})
	}
}

// MetricsMiddleware records request counters and latency under the route
// template, not the raw path, to keep cardinality bounded
func MetricsMiddleware(metrics *observability.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r)

			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if template, err := route.GetPathTemplate(); err == nil {
					path = template
				}
			}
			metrics.RecordHTTPRequest(r.Method, path, recorder.status, time.Since(start))
		})
	}
}
