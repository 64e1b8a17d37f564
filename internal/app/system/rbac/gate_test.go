package rbac_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/dalemusser/branchhub/internal/app/system/rbac"
)

// user is a minimal principal for tests.
type user struct{ role rbac.Role }

func (u user) PrincipalRole() rbac.Role { return u.role }

func as(role rbac.Role) rbac.Principal { return user{role: role} }

var allRoles = []rbac.Role{rbac.Member, rbac.MCLeader, rbac.BranchAdmin, rbac.SuperAdmin}

func TestAuthorize_Scenarios(t *testing.T) {
	gate := rbac.DefaultGate()

	tests := []struct {
		name      string
		principal rbac.Principal
		required  rbac.Role
		want      rbac.Decision
	}{
		{"super_admin reads member route", as(rbac.SuperAdmin), rbac.Member, rbac.Allowed},
		{"member blocked from branch_admin route", as(rbac.Member), rbac.BranchAdmin, rbac.DeniedInsufficientRole},
		{"equal ranks allowed", as(rbac.BranchAdmin), rbac.BranchAdmin, rbac.Allowed},
		{"no principal", nil, rbac.MCLeader, rbac.DeniedUnauthenticated},
		{"unknown user role ranks below member", as("unknown_role"), rbac.Member, rbac.DeniedInsufficientRole},
		{"one level below is denied", as(rbac.MCLeader), rbac.BranchAdmin, rbac.DeniedInsufficientRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gate.Authorize(tt.principal, tt.required); got != tt.want {
				t.Errorf("Authorize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthorize_PairwiseOrdering(t *testing.T) {
	gate := rbac.DefaultGate()
	h := gate.Hierarchy()

	for _, have := range allRoles {
		for _, need := range allRoles {
			got := gate.Authorize(as(have), need)
			wantAllowed := h.Rank(have) >= h.Rank(need)
			if got.IsAllowed() != wantAllowed {
				t.Errorf("Authorize(%s, %s) = %v, want allowed=%v", have, need, got, wantAllowed)
			}
			if !wantAllowed && got != rbac.DeniedInsufficientRole {
				t.Errorf("Authorize(%s, %s) = %v, want %v", have, need, got, rbac.DeniedInsufficientRole)
			}
		}
	}
}

func TestAuthorize_AbsentPrincipalWinsOverEverything(t *testing.T) {
	gate := rbac.DefaultGate()
	required := append([]rbac.Role{"", "nonsense", "SUPER_ADMIN"}, allRoles...)

	for _, need := range required {
		if got := gate.Authorize(nil, need); got != rbac.DeniedUnauthenticated {
			t.Errorf("Authorize(nil, %q) = %v, want %v", need, got, rbac.DeniedUnauthenticated)
		}
	}
}

func TestAuthorize_Monotonic(t *testing.T) {
	gate := rbac.DefaultGate()
	h := gate.Hierarchy()
	principals := append([]rbac.Role{"unknown_role"}, allRoles...)

	for _, have := range principals {
		for _, need := range allRoles {
			if !gate.Authorize(as(have), need).IsAllowed() {
				continue
			}
			for _, lower := range h.AtOrBelow(need) {
				if !gate.Authorize(as(have), lower).IsAllowed() {
					t.Errorf("%s allowed for %s but denied for lower role %s", have, need, lower)
				}
			}
		}
	}
}

func TestAuthorize_Idempotent(t *testing.T) {
	gate := rbac.DefaultGate()
	first := gate.Authorize(as(rbac.MCLeader), rbac.BranchAdmin)
	for i := 0; i < 100; i++ {
		if got := gate.Authorize(as(rbac.MCLeader), rbac.BranchAdmin); got != first {
			t.Fatalf("call %d returned %v, first call returned %v", i, got, first)
		}
	}
}

func TestAuthorize_UnknownRequiredRoleRanksZero(t *testing.T) {
	gate := rbac.DefaultGate()

	// Every known role satisfies rank 0, and so does another unknown role.
	for _, have := range append([]rbac.Role{"other_unknown"}, allRoles...) {
		if got := gate.Authorize(as(have), "no_such_role"); got != rbac.Allowed {
			t.Errorf("Authorize(%s, no_such_role) = %v, want %v", have, got, rbac.Allowed)
		}
	}
}

func TestAuthorize_TypedNilIsPresent(t *testing.T) {
	gate := rbac.DefaultGate()
	var p *ptrUser
	if !gate.IsAuthenticated(p) {
		t.Fatal("typed nil pointer should count as a present principal")
	}
}

type ptrUser struct{}

func (*ptrUser) PrincipalRole() rbac.Role { return "" }

func TestAuthorize_InjectedHierarchy(t *testing.T) {
	h := rbac.MustHierarchy(map[rbac.Role]rbac.Rank{
		"reader": 10,
		"writer": 20,
	})
	gate := rbac.NewGate(h)

	if got := gate.Authorize(as("writer"), "reader"); got != rbac.Allowed {
		t.Errorf("writer→reader = %v, want allowed", got)
	}
	if got := gate.Authorize(as("reader"), "writer"); got != rbac.DeniedInsufficientRole {
		t.Errorf("reader→writer = %v, want insufficient role", got)
	}
	// Roles from the default table mean nothing here.
	if got := gate.Authorize(as(rbac.SuperAdmin), "reader"); got != rbac.DeniedInsufficientRole {
		t.Errorf("super_admin→reader = %v, want insufficient role", got)
	}
}

func TestAuthorize_Concurrent(t *testing.T) {
	gate := rbac.DefaultGate()
	var wg sync.WaitGroup
	errs := make(chan error, 64)

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			have := allRoles[i%len(allRoles)]
			want := have == rbac.BranchAdmin || have == rbac.SuperAdmin
			if gate.Authorize(as(have), rbac.BranchAdmin).IsAllowed() != want {
				errs <- errors.New("unexpected decision for " + have.String())
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestDecision_String(t *testing.T) {
	tests := map[rbac.Decision]string{
		rbac.Allowed:                "allowed",
		rbac.DeniedUnauthenticated:  "denied_unauthenticated",
		rbac.DeniedInsufficientRole: "denied_insufficient_role",
		rbac.Decision(42):           "unknown",
	}
	for d, want := range tests {
		if got := d.String(); got != want {
			t.Errorf("Decision(%d).String() = %q, want %q", int(d), got, want)
		}
	}
}
