// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/branchhub/internal/app/system/auth"
	"github.com/dalemusser/branchhub/internal/app/system/rbac"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role, name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "", "", NilObjectID, false. This ensures callers can trust that ok=true
// means a valid, authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (role rbac.Role, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed.
		return "", "", primitive.NilObjectID, false
	}
	return user.Role, user.Name, userID, true
}

// AtLeast reports whether the current user holds required or a higher role.
// A required role the request's policy rejects is never satisfied.
func AtLeast(r *http.Request, required rbac.Role) bool {
	d, err := auth.Authorize(r, required)
	return err == nil && d.IsAllowed()
}

// IsSuperAdmin reports whether the current request's user is a super_admin.
func IsSuperAdmin(r *http.Request) bool {
	user, ok := auth.CurrentUser(r)
	return ok && user.Role == rbac.SuperAdmin
}

// UserBranchID returns the current user's branch ID as an ObjectID.
// Returns NilObjectID if user is not logged in or has no branch.
func UserBranchID(r *http.Request) primitive.ObjectID {
	user, ok := auth.CurrentUser(r)
	if !ok || user.BranchID == "" {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(user.BranchID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// CanAccessBranch reports whether the current user can see data for branchID.
// Super admins can access every branch. Everyone else only their own.
func CanAccessBranch(r *http.Request, branchID primitive.ObjectID) bool {
	if IsSuperAdmin(r) {
		return true
	}
	own := UserBranchID(r)
	return !own.IsZero() && own == branchID
}
