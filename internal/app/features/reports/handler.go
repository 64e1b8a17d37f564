// internal/app/features/reports/handler.go
package reports

import (
	uierrors "github.com/dalemusser/branchhub/internal/app/features/errors"
	"github.com/dalemusser/branchhub/internal/app/store/branches"
	"github.com/dalemusser/branchhub/internal/app/store/branchreports"
	"github.com/dalemusser/branchhub/internal/app/system/reporting"
	"go.uber.org/zap"
)

// Handler owns the branch report endpoints: reading stored rows (JSON and
// CSV) and triggering a run.
type Handler struct {
	Branches *branches.Store
	Reports  *branchreports.Store
	Runner   *reporting.Runner
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

// NewHandler constructs a reports Handler.
func NewHandler(b *branches.Store, rs *branchreports.Store, runner *reporting.Runner, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Branches: b,
		Reports:  rs,
		Runner:   runner,
		Log:      logger,
		ErrLog:   errLog,
	}
}
