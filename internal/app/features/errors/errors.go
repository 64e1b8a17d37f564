// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/branchhub/internal/app/system/apierr"
)

// Handler is the errors feature handler.
// No DB needed; it just writes error envelopes.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden writes the insufficient-permissions envelope.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	apierr.Forbidden(w)
}

// Unauthorized writes the unauthenticated envelope.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	apierr.Unauthenticated(w)
}

// NotFound is the router's fallback for unknown paths.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	apierr.NotFound(w, "")
}

// MethodNotAllowed is the router's fallback for known paths with the wrong verb.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	apierr.Write(w, http.StatusMethodNotAllowed, "Method not allowed", apierr.CodeMethodNotAllowed)
}
