package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/portalgate/portal/pkg/httputil"
)

// membershipRequest is the body for adding or removing a membership
type membershipRequest struct {
	UserID    string `json:"user_id"`
	GroupName string `json:"group_name"`
}

// ListUserGroups returns every group the user belongs to
func (h *Handler) ListUserGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathStringOrError(w, r, "userId")
	if !ok {
		return
	}

	names, err := h.members.ListForUser(r.Context(), userID)
	if err != nil {
		h.logger.FromContext(r.Context()).WithError(err).Error("group listing failed")
		httputil.WriteInternalError(w, errors.New("failed to list groups"))
		return
	}

	if names == nil {
		names = []string{}
	}
	httputil.WriteSuccess(w, map[string]interface{}{
		"user_id": userID,
		"groups":  names,
	})
}

// AddMembership creates a membership row
func (h *Handler) AddMembership(w http.ResponseWriter, r *http.Request) {
	var req membershipRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.UserID, "user_id") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.GroupName, "group_name") {
		return
	}

	if err := h.members.Add(r.Context(), req.UserID, req.GroupName); err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "UNIQUE") {
			httputil.WriteConflict(w, "membership already exists")
			return
		}
		h.logger.FromContext(r.Context()).WithError(err).Error("membership creation failed")
		httputil.WriteInternalError(w, errors.New("failed to add membership"))
		return
	}

	h.logger.FromContext(r.Context()).WithFields(map[string]interface{}{
		"user_id":    req.UserID,
		"group_name": req.GroupName,
	}).Info("membership added")
	httputil.WriteCreated(w, req)
}

// RemoveMembership deletes a membership row. Removing an absent
// membership succeeds.
func (h *Handler) RemoveMembership(w http.ResponseWriter, r *http.Request) {
	var req membershipRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.UserID, "user_id") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.GroupName, "group_name") {
		return
	}

	if err := h.members.Remove(r.Context(), req.UserID, req.GroupName); err != nil {
		h.logger.FromContext(r.Context()).WithError(err).Error("membership removal failed")
		httputil.WriteInternalError(w, errors.New("failed to remove membership"))
		return
	}

	httputil.WriteNoContent(w)
}
