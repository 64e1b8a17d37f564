package rbac

import (
	"errors"
	"fmt"
	"strings"
)

// UnknownRequiredPolicy says what the HTTP boundary does with a route whose
// required role is outside the hierarchy. The gate itself always ranks such
// a role 0; the policy only decides whether the route may be served at all.
type UnknownRequiredPolicy int

const (
	// RejectUnknownRequired fails closed: the route answers 500 and never
	// reaches the gate.
	RejectUnknownRequired UnknownRequiredPolicy = iota
	// AllowUnknownRequired keeps the rank-0 behaviour: any signed-in user passes.
	AllowUnknownRequired
)

// ErrUnknownRequiredRole marks a route requirement outside the hierarchy.
var ErrUnknownRequiredRole = errors.New("required role is not part of the hierarchy")

// ParseUnknownRequiredPolicy accepts "error" (or "reject") and "allow".
func ParseUnknownRequiredPolicy(s string) (UnknownRequiredPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error", "reject":
		return RejectUnknownRequired, nil
	case "allow":
		return AllowUnknownRequired, nil
	default:
		return RejectUnknownRequired, fmt.Errorf("unknown_required_role must be \"error\" or \"allow\", got %q", s)
	}
}

func (p UnknownRequiredPolicy) String() string {
	if p == AllowUnknownRequired {
		return "allow"
	}
	return "error"
}

// CheckRequired validates a route requirement against h under p. It returns
// ErrUnknownRequiredRole only when p rejects unknown roles.
func CheckRequired(h Hierarchy, required Role, p UnknownRequiredPolicy) error {
	if h.Known(required) || p == AllowUnknownRequired {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownRequiredRole, required)
}
