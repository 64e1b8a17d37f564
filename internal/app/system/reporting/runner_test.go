package reporting_test

import (
	"context"
	"errors"
	"testing"

	userstore "github.com/dalemusser/branchhub/internal/app/store/users"
	"github.com/dalemusser/branchhub/internal/app/system/rbac"
	"github.com/dalemusser/branchhub/internal/app/system/reporting"
	"github.com/dalemusser/branchhub/internal/domain/models"
	"github.com/dalemusser/branchhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeBranches struct {
	list []models.Branch
	err  error
}

func (f fakeBranches) ListActive(context.Context) ([]models.Branch, error) { return f.list, f.err }

type fakeSource map[primitive.ObjectID]reporting.Counts

var errNoData = errors.New("no data")

func (f fakeSource) BranchCounts(_ context.Context, id primitive.ObjectID) (reporting.Counts, error) {
	c, ok := f[id]
	if !ok {
		return reporting.Counts{}, errNoData
	}
	return c, nil
}

type panicSource struct{}

func (panicSource) BranchCounts(context.Context, primitive.ObjectID) (reporting.Counts, error) {
	panic("source blew up")
}

type recordingSink struct {
	rows  []models.BranchReport
	calls int
	err   error
}

func (s *recordingSink) SaveRun(_ context.Context, rows []models.BranchReport) error {
	s.calls++
	s.rows = rows
	return s.err
}

func branch(name string) models.Branch {
	return models.Branch{ID: primitive.NewObjectID(), Name: name, Status: "active"}
}

func TestRun_OneFailureDoesNotAbort(t *testing.T) {
	a, b, c := branch("A"), branch("B"), branch("C")
	src := fakeSource{
		a.ID: {Members: 5, Leaders: 1, Admins: 1},
		c.ID: {Members: 2},
	}
	sink := &recordingSink{}
	r := reporting.NewRunner(fakeBranches{list: []models.Branch{a, b, c}}, src, sink, zap.NewNop())

	sum, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.OK != 2 || sum.Failed != 1 {
		t.Errorf("OK=%d Failed=%d, want 2/1", sum.OK, sum.Failed)
	}
	if len(sum.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(sum.Rows))
	}
	if sum.Rows[1].Status != models.ReportFailed || sum.Rows[1].Error != errNoData.Error() {
		t.Errorf("row B = %+v", sum.Rows[1])
	}
	if sum.Rows[0].Members != 5 || sum.Rows[0].Admins != 1 {
		t.Errorf("row A = %+v", sum.Rows[0])
	}
	for _, row := range sum.Rows {
		if row.RunID != sum.RunID || sum.RunID == "" {
			t.Errorf("row run id %q, summary %q", row.RunID, sum.RunID)
		}
	}
	if sink.calls != 1 || len(sink.rows) != 3 {
		t.Errorf("sink saw %d calls, %d rows", sink.calls, len(sink.rows))
	}
}

func TestRun_PanicBecomesFailedRow(t *testing.T) {
	r := reporting.NewRunner(fakeBranches{list: []models.Branch{branch("A")}}, panicSource{}, nil, zap.NewNop())
	sum, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Failed != 1 || sum.Rows[0].Status != models.ReportFailed {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRun_ListFailure(t *testing.T) {
	sink := &recordingSink{}
	r := reporting.NewRunner(fakeBranches{err: errors.New("down")}, fakeSource{}, sink, zap.NewNop())
	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("expected error when branches cannot be listed")
	}
	if sink.calls != 0 {
		t.Error("nothing should be saved when listing fails")
	}
}

func TestRun_SaveFailure(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	r := reporting.NewRunner(fakeBranches{list: []models.Branch{branch("A")}}, fakeSource{}, sink, zap.NewNop())
	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("expected error when rows cannot be saved")
	}
}

func TestRun_DistinctRunIDs(t *testing.T) {
	r := reporting.NewRunner(fakeBranches{}, fakeSource{}, nil, zap.NewNop())
	s1, _ := r.Run(context.Background())
	s2, _ := r.Run(context.Background())
	if s1.RunID == s2.RunID {
		t.Errorf("run ids should differ, both %q", s1.RunID)
	}
}

func TestUserSource_Counts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	b := fx.CreateBranch(ctx, "North", "N1")
	fx.CreateMember(ctx, "M1", "m1", b.ID)
	fx.CreateMember(ctx, "M2", "m2", b.ID)
	fx.CreateLeader(ctx, "L1", "l1", b.ID)
	fx.CreateUser(ctx, "A1", "a1", rbac.BranchAdmin, &b.ID, "")
	fx.CreateDisabledUser(ctx, "Gone", "gone", b.ID)

	src := reporting.UserSource{Users: userstore.New(db)}
	c, err := src.BranchCounts(ctx, b.ID)
	if err != nil {
		t.Fatalf("BranchCounts: %v", err)
	}
	want := reporting.Counts{Members: 2, Leaders: 1, Admins: 1}
	if c != want {
		t.Errorf("counts = %+v, want %+v", c, want)
	}
}

// cancelingSource cancels the run's context once it has served n branches.
type cancelingSource struct {
	n      int
	calls  int
	cancel context.CancelFunc
}

func (s *cancelingSource) BranchCounts(context.Context, primitive.ObjectID) (reporting.Counts, error) {
	s.calls++
	if s.calls == s.n {
		s.cancel()
	}
	return reporting.Counts{Members: 1}, nil
}

func TestRun_StopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &cancelingSource{n: 1, cancel: cancel}
	sink := &recordingSink{}
	r := reporting.NewRunner(fakeBranches{list: []models.Branch{branch("A"), branch("B"), branch("C")}}, src, sink, zap.NewNop())

	sum, err := r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if src.calls != 1 {
		t.Errorf("source called %d times after cancel, want 1", src.calls)
	}
	if sum.Failed != 0 {
		t.Errorf("Failed = %d, want no rows marked failed by cancellation", sum.Failed)
	}
	if sink.calls != 0 {
		t.Error("an interrupted run must not be saved")
	}
}

func TestRun_AlreadyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := reporting.NewRunner(fakeBranches{list: []models.Branch{branch("A")}}, fakeSource{}, nil, zap.NewNop())
	if _, err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
