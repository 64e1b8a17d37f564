// internal/app/features/reports/routes.go
package reports

import (
	"github.com/dalemusser/branchhub/internal/app/system/auth"
	"github.com/dalemusser/branchhub/internal/app/system/rbac"
	"github.com/go-chi/chi/v5"
)

// BranchRoutes is mounted at /branches.
func BranchRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(rr chi.Router) {
		rr.Use(sm.RequireRole(rbac.MCLeader))
		// Branch scoping is enforced inside the handlers.
		rr.Get("/{id}/reports", h.ServeBranchReports)
		rr.Get("/{id}/reports.csv", h.ServeBranchReportsCSV)
	})

	return r
}

// RunRoutes is mounted at /reports.
func RunRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(rr chi.Router) {
		rr.Use(sm.RequireRole(rbac.SuperAdmin))
		rr.Post("/branches/run", h.HandleRun)
	})

	return r
}
