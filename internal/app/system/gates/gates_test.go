package gates_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/branchhub/internal/app/system/auth"
	"github.com/dalemusser/branchhub/internal/app/system/gates"
	"github.com/dalemusser/branchhub/internal/app/system/rbac"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestRequireAuth_NoUser(t *testing.T) {
	rec := httptest.NewRecorder()
	res := gates.RequireAuth(rec, httptest.NewRequest("GET", "/x", nil))

	if res.OK {
		t.Error("expected OK=false")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	uid := primitive.NewObjectID()
	tests := []struct {
		name       string
		user       *auth.SessionUser
		required   rbac.Role
		wantOK     bool
		wantStatus int
	}{
		{"anonymous", nil, rbac.Member, false, http.StatusUnauthorized},
		{"leader below admin", &auth.SessionUser{ID: uid.Hex(), Role: rbac.MCLeader}, rbac.BranchAdmin, false, http.StatusForbidden},
		{"admin at admin", &auth.SessionUser{ID: uid.Hex(), Role: rbac.BranchAdmin}, rbac.BranchAdmin, true, http.StatusOK},
		{"malformed id", &auth.SessionUser{ID: "bad", Role: rbac.SuperAdmin}, rbac.Member, false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/x", nil)
			if tt.user != nil {
				req = auth.WithTestUser(req, tt.user)
			}
			rec := httptest.NewRecorder()

			res := gates.RequireRole(rec, req, tt.required)
			if res.OK != tt.wantOK {
				t.Fatalf("OK = %v, want %v", res.OK, tt.wantOK)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if res.OK && res.UserID != uid {
				t.Errorf("UserID = %s, want %s", res.UserID.Hex(), uid.Hex())
			}
		})
	}
}

func TestRequireBranchRole(t *testing.T) {
	branch := primitive.NewObjectID()
	other := primitive.NewObjectID()
	leader := &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: rbac.MCLeader, BranchID: branch.Hex()}

	rec := httptest.NewRecorder()
	req := auth.WithTestUser(httptest.NewRequest("GET", "/x", nil), leader)
	if res := gates.RequireBranchRole(rec, req, rbac.MCLeader, branch); !res.OK {
		t.Errorf("own branch denied, status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	if res := gates.RequireBranchRole(rec, req, rbac.MCLeader, other); res.OK || rec.Code != http.StatusForbidden {
		t.Errorf("other branch: OK=%v status=%d, want denied 403", res.OK, rec.Code)
	}
}

func TestRequireRole_UnknownRequired(t *testing.T) {
	member := &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: rbac.Member}
	req := auth.WithTestUser(httptest.NewRequest("GET", "/x", nil), member)

	rec := httptest.NewRecorder()
	res := gates.RequireRole(rec, req, "branch_admn")
	if res.OK {
		t.Fatal("typo'd required role let a member through")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRequireRole_FollowsSessionManager(t *testing.T) {
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "t", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	sm.SetGate(rbac.NewGate(rbac.MustHierarchy(map[rbac.Role]rbac.Rank{"reader": 1, "writer": 2})))

	reader := &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: "reader"}
	req := sm.WithTestUser(httptest.NewRequest("GET", "/x", nil), reader)

	rec := httptest.NewRecorder()
	if res := gates.RequireRole(rec, req, "writer"); res.OK || rec.Code != http.StatusForbidden {
		t.Errorf("reader asking for writer: OK=%v status=%d, want denied 403", res.OK, rec.Code)
	}

	rec = httptest.NewRecorder()
	if res := gates.RequireRole(rec, req, "reader"); !res.OK {
		t.Errorf("reader asking for reader denied, status %d", rec.Code)
	}

	// The manager's hierarchy has no branch_admin, so its reject policy applies.
	rec = httptest.NewRecorder()
	if res := gates.RequireRole(rec, req, rbac.BranchAdmin); res.OK || rec.Code != http.StatusInternalServerError {
		t.Errorf("role outside manager hierarchy: OK=%v status=%d, want 500", res.OK, rec.Code)
	}

	sm.SetUnknownRequiredPolicy(rbac.AllowUnknownRequired)
	req = sm.WithTestUser(httptest.NewRequest("GET", "/x", nil), reader)
	rec = httptest.NewRecorder()
	if res := gates.RequireRole(rec, req, rbac.BranchAdmin); !res.OK {
		t.Errorf("allow policy: unknown required role denied, status %d", rec.Code)
	}
}
