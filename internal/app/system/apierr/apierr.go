// Package apierr writes the JSON error envelope every branchhub endpoint
// returns on failure:
//
//	{"error": {"message": "Insufficient permissions", "code": "INSUFFICIENT_PERMISSIONS"}}
package apierr

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/branchhub/internal/app/system/rbac"
)

// Error codes. Clients branch on these, not on messages.
const (
	CodeUnauthenticated         = "UNAUTHENTICATED"
	CodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	CodeMisconfiguredRoute      = "MISCONFIGURED_ROUTE"
	CodeBadRequest              = "BAD_REQUEST"
	CodeInvalidCredentials      = "INVALID_CREDENTIALS"
	CodeNotFound                = "NOT_FOUND"
	CodeMethodNotAllowed        = "METHOD_NOT_ALLOWED"
	CodeRateLimited             = "RATE_LIMITED"
	CodeCrossOrigin             = "CROSS_ORIGIN_REJECTED"
	CodeInternal                = "INTERNAL"
)

// Body is the error object inside the envelope.
type Body struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Envelope is the top-level JSON document.
type Envelope struct {
	Error Body `json:"error"`
}

// Write sends status with the envelope built from message and code.
func Write(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Error: Body{Message: message, Code: code}})
}

// Unauthenticated writes the 401 response.
func Unauthenticated(w http.ResponseWriter) {
	Write(w, http.StatusUnauthorized, "Unauthenticated", CodeUnauthenticated)
}

// Forbidden writes the 403 response.
func Forbidden(w http.ResponseWriter) {
	Write(w, http.StatusForbidden, "Insufficient permissions", CodeInsufficientPermissions)
}

// Decision maps a denied gate decision to its response and reports whether
// it wrote one. Allowed writes nothing and returns false.
func Decision(w http.ResponseWriter, d rbac.Decision) bool {
	switch d {
	case rbac.DeniedUnauthenticated:
		Unauthenticated(w)
		return true
	case rbac.DeniedInsufficientRole:
		Forbidden(w)
		return true
	case rbac.Allowed:
		return false
	default:
		// Unknown decisions fail closed.
		Forbidden(w)
		return true
	}
}

// MisconfiguredRoute writes the 500 for a route requiring a role outside the
// hierarchy.
func MisconfiguredRoute(w http.ResponseWriter) {
	Write(w, http.StatusInternalServerError, "Route misconfigured", CodeMisconfiguredRoute)
}

// BadRequest writes a 400 with a caller-facing message.
func BadRequest(w http.ResponseWriter, message string) {
	Write(w, http.StatusBadRequest, message, CodeBadRequest)
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Not found"
	}
	Write(w, http.StatusNotFound, message, CodeNotFound)
}

// Internal writes a 500 without leaking the underlying error.
func Internal(w http.ResponseWriter) {
	Write(w, http.StatusInternalServerError, "Internal server error", CodeInternal)
}
