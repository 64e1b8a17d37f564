// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/branchhub/internal/app/system/auth"
	"github.com/dalemusser/branchhub/internal/app/system/rbac"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the user listing under the path where this router is
// mounted (typically "/users" from bootstrap).
//
//	h := users.NewHandler(db, errLog, logger)
//	r.Mount("/users", users.Routes(h, sessionMgr))
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(rbac.BranchAdmin))
		pr.Get("/", h.ServeList)
	})

	return r
}
