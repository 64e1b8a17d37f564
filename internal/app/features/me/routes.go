// internal/app/features/me/routes.go
package me

import (
	"github.com/dalemusser/branchhub/internal/app/system/auth"
	"github.com/dalemusser/branchhub/internal/app/system/rbac"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(rbac.Member))
	r.Get("/", h.ServeMe)
	return r
}
