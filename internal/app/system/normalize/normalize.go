// Package normalize canonicalizes user-entered strings before they are
// stored or compared.
package normalize

import (
	"strings"

	"github.com/dalemusser/branchhub/internal/app/system/rbac"
)

// Email trims and lowercases.
func Email(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// LoginID trims and lowercases. Login IDs compare case-insensitively.
func LoginID(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Name trims surrounding space and collapses inner runs of whitespace.
func Name(s string) string { return strings.Join(strings.Fields(s), " ") }

// Role maps a stored role string to an rbac.Role. Unknown values pass
// through unchanged so the gate can rank them 0.
func Role(s string) rbac.Role { return rbac.Parse(s) }

// Status trims and lowercases; empty means active.
func Status(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "active"
	}
	return s
}
