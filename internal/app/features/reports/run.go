package reports

import (
	"context"
	"net/http"

	"github.com/dalemusser/branchhub/internal/app/features/shared/views"
	"github.com/dalemusser/branchhub/internal/app/system/auth"
	"github.com/dalemusser/branchhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleRun handles POST /reports/branches/run. It runs the aggregation
// synchronously and returns the run summary.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if u, ok := auth.CurrentUser(r); ok {
		h.Log.Info("branch report run requested", zap.String("user_id", u.ID))
	}

	sum, err := h.Runner.Run(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "branch report run failed", err)
		return
	}
	views.JSON(w, http.StatusOK, sum)
}
