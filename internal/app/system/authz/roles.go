// internal/app/system/authz/roles.go
package authz

import (
	"net/http"

	"github.com/dalemusser/branchhub/internal/app/system/auth"
	"github.com/dalemusser/branchhub/internal/app/system/rbac"
)

// HasAnyRole reports whether the current request's user holds exactly one of
// the given roles. Use AtLeast for hierarchy checks.
func HasAnyRole(r *http.Request, roles ...rbac.Role) bool {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if user.Role == want {
			return true
		}
	}
	return false
}

// Role returns the current user's role and whether a user is present.
func Role(r *http.Request) (rbac.Role, bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", false
	}
	return user.Role, true
}

// VisibleRoles returns the roles the current user may see in listings:
// their own rank and below. Anonymous callers see none.
func VisibleRoles(r *http.Request) []rbac.Role {
	role, ok := Role(r)
	if !ok {
		return nil
	}
	return auth.AccessFor(r).Gate.Hierarchy().AtOrBelow(role)
}

// Rank returns the current user's rank, or rbac.NoRank when anonymous or
// holding an unknown role.
func Rank(r *http.Request) rbac.Rank {
	role, ok := Role(r)
	if !ok {
		return rbac.NoRank
	}
	return auth.AccessFor(r).Gate.Hierarchy().Rank(role)
}
