package admin

import (
	"net/http"

	"github.com/portalgate/portal/pkg/contextkeys"
	"github.com/portalgate/portal/pkg/httputil"
)

// RequireAdmin rejects requests without an admin session. An anonymous
// visitor gets 401; a signed-in non-admin gets 403. The guard fails
// closed, so an unreachable membership store also denies.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sess, err := h.sessions.FromRequest(ctx, r)
		if err != nil {
			h.logger.FromContext(ctx).WithError(err).Warn("session resolution failed on admin route")
		}
		if sess == nil {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}

		if !h.guard.IsAdmin(ctx, sess.UserID) {
			h.countGuardCheck("denied")
			httputil.WriteForbidden(w, "admin group membership required")
			return
		}
		h.countGuardCheck("allowed")

		ctx = contextkeys.WithSession(ctx, sess)
		ctx = contextkeys.WithUserID(ctx, sess.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) countGuardCheck(result string) {
	if h.metrics != nil {
		h.metrics.GuardChecksTotal.WithLabelValues(result).Inc()
	}
}
