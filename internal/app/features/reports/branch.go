package reports

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/branchhub/internal/app/features/shared/views"
	"github.com/dalemusser/branchhub/internal/app/system/apierr"
	"github.com/dalemusser/branchhub/internal/app/system/gates"
	"github.com/dalemusser/branchhub/internal/app/system/rbac"
	"github.com/dalemusser/branchhub/internal/app/system/timeouts"
	"github.com/dalemusser/branchhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type branchReportsResponse struct {
	BranchID   string                `json:"branch_id"`
	BranchName string                `json:"branch_name"`
	Reports    []models.BranchReport `json:"reports"`
}

// loadBranchRows resolves {id}, checks the caller may read that branch, and
// loads its newest rows. It writes the error response itself and returns
// ok=false on any failure.
func (h *Handler) loadBranchRows(w http.ResponseWriter, r *http.Request) (*models.Branch, []models.BranchReport, bool) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierr.NotFound(w, "Branch not found")
		return nil, nil, false
	}

	// Access is decided before existence so other branches' IDs leak nothing.
	if res := gates.RequireBranchRole(w, r, rbac.MCLeader, oid); !res.OK {
		return nil, nil, false
	}

	limit := int64(defaultLimit)
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			apierr.BadRequest(w, "limit must be a positive integer.")
			return nil, nil, false
		}
		limit = int64(min(n, maxLimit))
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	b, err := h.Branches.GetByID(ctx, oid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		apierr.NotFound(w, "Branch not found")
		return nil, nil, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load branch failed", err)
		return nil, nil, false
	}

	rows, err := h.Reports.LatestForBranch(ctx, oid, limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load branch reports failed", err)
		return nil, nil, false
	}
	if rows == nil {
		rows = []models.BranchReport{}
	}
	return b, rows, true
}

// ServeBranchReports handles GET /branches/{id}/reports.
func (h *Handler) ServeBranchReports(w http.ResponseWriter, r *http.Request) {
	b, rows, ok := h.loadBranchRows(w, r)
	if !ok {
		return
	}
	views.JSON(w, http.StatusOK, branchReportsResponse{
		BranchID:   b.ID.Hex(),
		BranchName: b.Name,
		Reports:    rows,
	})
}

// ServeBranchReportsCSV handles GET /branches/{id}/reports.csv.
func (h *Handler) ServeBranchReportsCSV(w http.ResponseWriter, r *http.Request) {
	b, rows, ok := h.loadBranchRows(w, r)
	if !ok {
		return
	}

	filename := fmt.Sprintf("branch_%s_reports_%s.csv", b.Code, time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"run_id", "created_at", "status", "members", "leaders", "admins", "error"})
	for _, row := range rows {
		_ = cw.Write([]string{
			row.RunID,
			row.CreatedAt.UTC().Format(time.RFC3339),
			row.Status,
			strconv.FormatInt(row.Members, 10),
			strconv.FormatInt(row.Leaders, 10),
			strconv.FormatInt(row.Admins, 10),
			row.Error,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.Log.Warn("csv write failed", zap.Error(err))
	}
}
