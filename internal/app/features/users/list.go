package users

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/branchhub/internal/app/features/shared/views"
	"github.com/dalemusser/branchhub/internal/app/policy/userpolicy"
	userstore "github.com/dalemusser/branchhub/internal/app/store/users"
	"github.com/dalemusser/branchhub/internal/app/system/apierr"
	"github.com/dalemusser/branchhub/internal/app/system/rbac"
	"github.com/dalemusser/branchhub/internal/app/system/timeouts"
)

type listResponse struct {
	Count int          `json:"count"`
	Users []views.User `json:"users"`
}

// ServeList handles GET /users.
//
// Scope comes from userpolicy: callers only see users at or below their
// own rank, and branch admins only their own branch. Optional filters:
// ?role= (one role) and ?status= (active|disabled).
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	scope := userpolicy.CanListUsers(r)
	if !scope.CanView {
		apierr.Forbidden(w)
		return
	}

	filter := userstore.ListFilter{Roles: scope.Roles}
	if !scope.AllBranches {
		filter.BranchID = &scope.BranchID
	}

	if q := strings.TrimSpace(r.URL.Query().Get("role")); q != "" {
		role, err := rbac.ParseKnown(q)
		if err != nil {
			apierr.BadRequest(w, "Unknown role filter.")
			return
		}
		if !scope.Allows(role) {
			apierr.Forbidden(w)
			return
		}
		filter.Roles = []rbac.Role{role}
	}

	switch status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))); status {
	case "", "active", "disabled":
		filter.Status = status
	default:
		apierr.BadRequest(w, `status must be "active" or "disabled".`)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Users.List(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list users failed", err)
		return
	}

	resp := listResponse{Count: len(list), Users: make([]views.User, 0, len(list))}
	for _, u := range list {
		resp.Users = append(resp.Users, views.FromModel(u))
	}
	views.JSON(w, http.StatusOK, resp)
}
