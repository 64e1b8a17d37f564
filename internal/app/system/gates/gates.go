// Package gates provides authorization gate functions for HTTP handlers.
// Gates check authentication and authorization, writing the JSON error
// envelope when checks fail.
//
// # Two-Tier Authorization Pattern
//
//  1. Route-Level Middleware (SessionManager.RequireSignedIn, RequireRole)
//     Applied in routes.go files for coarse-grained access control.
//     When middleware handles role checking, handlers don't need gates.
//
//  2. Handler-Level Gates (this package)
//     Used when the decision depends on the specific resource, e.g. the
//     branch named in the URL, on top of a minimum role.
//
// Both tiers check against the SessionManager's Access (bound to the request
// by LoadSessionUser), so the gate, the unknown-role policy and the 401/403
// semantics are identical.
package gates

import (
	"net/http"

	"github.com/dalemusser/branchhub/internal/app/system/apierr"
	"github.com/dalemusser/branchhub/internal/app/system/auth"
	"github.com/dalemusser/branchhub/internal/app/system/authz"
	"github.com/dalemusser/branchhub/internal/app/system/rbac"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result contains the result of an authorization gate check.
type Result struct {
	Role   rbac.Role
	Name   string
	UserID primitive.ObjectID
	OK     bool
}

// RequireAuth ensures a user is authenticated.
// If not authenticated, it writes 401 and returns OK=false.
func RequireAuth(w http.ResponseWriter, r *http.Request) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		apierr.Unauthenticated(w)
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}

// RequireRole ensures the user is authenticated and holds at least required.
// A required role the request's policy rejects writes 500.
func RequireRole(w http.ResponseWriter, r *http.Request, required rbac.Role) Result {
	d, err := auth.Authorize(r, required)
	if err != nil {
		apierr.MisconfiguredRoute(w)
		return Result{OK: false}
	}
	if apierr.Decision(w, d) {
		return Result{OK: false}
	}
	return RequireAuth(w, r)
}

// RequireBranchRole ensures the user holds at least required and may access
// branchID. Failing the branch check is a 403, like an insufficient role.
func RequireBranchRole(w http.ResponseWriter, r *http.Request, required rbac.Role, branchID primitive.ObjectID) Result {
	res := RequireRole(w, r, required)
	if !res.OK {
		return res
	}
	if !authz.CanAccessBranch(r, branchID) {
		apierr.Forbidden(w)
		return Result{OK: false}
	}
	return res
}
