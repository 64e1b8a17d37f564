// Package userpolicy decides which users the caller may list.
//
// Authorization rules:
//   - Super admins can list users of every branch
//   - Branch admins can list users of their own branch only
//   - Nobody sees users ranked above themselves
//   - Mc leaders and members cannot list users
package userpolicy

import (
	"net/http"

	"github.com/dalemusser/branchhub/internal/app/system/authz"
	"github.com/dalemusser/branchhub/internal/app/system/rbac"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListScope represents the users a caller can see in listings.
type ListScope struct {
	// CanView indicates whether the caller can list users at all.
	CanView bool
	// AllBranches is true for super admins. Otherwise BranchID applies.
	AllBranches bool
	BranchID    primitive.ObjectID
	// Roles are the roles the caller may see, lowest first.
	Roles []rbac.Role
}

// CanListUsers determines what the current user may see in GET /users.
func CanListUsers(r *http.Request) ListScope {
	if !authz.AtLeast(r, rbac.BranchAdmin) {
		return ListScope{CanView: false}
	}

	roles := authz.VisibleRoles(r)
	if authz.IsSuperAdmin(r) {
		return ListScope{CanView: true, AllBranches: true, Roles: roles}
	}

	branchID := authz.UserBranchID(r)
	if branchID.IsZero() {
		return ListScope{CanView: false}
	}
	return ListScope{CanView: true, BranchID: branchID, Roles: roles}
}

// Allows reports whether role is within the scope's visible roles.
func (s ListScope) Allows(role rbac.Role) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}
