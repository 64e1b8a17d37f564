// Package reporting builds per-branch status rows. A run asks a Source for
// each active branch's role counts and records one row per branch, whether
// the lookup worked or not.
package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/branchhub/internal/app/system/timeouts"
	"github.com/dalemusser/branchhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Counts are the active users of one branch by role.
type Counts struct {
	Members int64
	Leaders int64
	Admins  int64
}

// Source fetches the counts for one branch.
type Source interface {
	BranchCounts(ctx context.Context, branchID primitive.ObjectID) (Counts, error)
}

// BranchLister returns the branches a run covers.
type BranchLister interface {
	ListActive(ctx context.Context) ([]models.Branch, error)
}

// Sink persists the rows of a run.
type Sink interface {
	SaveRun(ctx context.Context, rows []models.BranchReport) error
}

// Summary describes one finished run.
type Summary struct {
	RunID      string                `json:"run_id"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	OK         int                   `json:"ok"`
	Failed     int                   `json:"failed"`
	Rows       []models.BranchReport `json:"rows"`
}

// Runner performs report runs. A nil Sink makes every run a dry run.
type Runner struct {
	Branches BranchLister
	Source   Source
	Sink     Sink
	Log      *zap.Logger

	now   func() time.Time
	runID func() string
}

// NewRunner constructs a Runner.
func NewRunner(branches BranchLister, src Source, sink Sink, logger *zap.Logger) *Runner {
	return &Runner{
		Branches: branches,
		Source:   src,
		Sink:     sink,
		Log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
		runID:    func() string { return uuid.NewString() },
	}
}

// Run produces one row per active branch. A branch whose counts cannot be
// fetched gets a failed row and the run moves on. Failing to list branches,
// failing to save the rows, or ctx ending fails the run itself; nothing is
// saved in that case.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: r.runID(), StartedAt: r.now()}
	log := r.Log.With(zap.String("run_id", sum.RunID))

	list, err := r.Branches.ListActive(ctx)
	if err != nil {
		return sum, fmt.Errorf("list branches: %w", err)
	}

	sum.Rows = make([]models.BranchReport, 0, len(list))
	for _, b := range list {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("run interrupted after %d of %d branches: %w", len(sum.Rows), len(list), err)
		}
		row := r.branchRow(ctx, sum.RunID, b)
		if row.Status == models.ReportOK {
			sum.OK++
		} else {
			sum.Failed++
			log.Warn("branch report failed",
				zap.String("branch_id", b.ID.Hex()),
				zap.String("branch", b.Name),
				zap.String("error", row.Error))
		}
		sum.Rows = append(sum.Rows, row)
	}
	if err := ctx.Err(); err != nil {
		return sum, fmt.Errorf("run interrupted after %d of %d branches: %w", len(sum.Rows), len(list), err)
	}

	if r.Sink != nil {
		if err := r.Sink.SaveRun(ctx, sum.Rows); err != nil {
			return sum, fmt.Errorf("save run: %w", err)
		}
	}

	sum.FinishedAt = r.now()
	log.Info("branch report run finished",
		zap.Int("branches", len(sum.Rows)),
		zap.Int("ok", sum.OK),
		zap.Int("failed", sum.Failed),
		zap.Bool("dry_run", r.Sink == nil))
	return sum, nil
}

func (r *Runner) branchRow(ctx context.Context, runID string, b models.Branch) (row models.BranchReport) {
	row = models.BranchReport{
		RunID:      runID,
		BranchID:   b.ID,
		BranchName: b.Name,
		CreatedAt:  r.now(),
	}

	defer func() {
		if p := recover(); p != nil {
			row.Status = models.ReportFailed
			row.Error = fmt.Sprintf("panic: %v", p)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	c, err := r.Source.BranchCounts(ctx, b.ID)
	if err != nil {
		row.Status = models.ReportFailed
		row.Error = err.Error()
		return row
	}
	row.Status = models.ReportOK
	row.Members = c.Members
	row.Leaders = c.Leaders
	row.Admins = c.Admins
	return row
}
