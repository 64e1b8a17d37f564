// internal/app/features/me/handler.go
package me

import (
	"net/http"

	"github.com/dalemusser/branchhub/internal/app/features/shared/views"
	"github.com/dalemusser/branchhub/internal/app/system/apierr"
	"github.com/dalemusser/branchhub/internal/app/system/auth"
	"github.com/dalemusser/branchhub/internal/app/system/authz"
)

// Handler serves the signed-in user's identity.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

type meResponse struct {
	views.User
	Rank         int      `json:"rank"`
	VisibleRoles []string `json:"visible_roles"`
}

// ServeMe returns the current user along with their rank and the roles they
// may see in listings.
//
//	{ "id":"…", "name":"…", "role":"mc_leader", "rank":2, "visible_roles":["member","mc_leader"] }
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		apierr.Unauthenticated(w)
		return
	}

	visible := authz.VisibleRoles(r)
	names := make([]string, len(visible))
	for i, role := range visible {
		names[i] = role.String()
	}

	views.JSON(w, http.StatusOK, meResponse{
		User:         views.FromSession(user),
		Rank:         int(authz.Rank(r)),
		VisibleRoles: names,
	})
}
