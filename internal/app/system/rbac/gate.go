package rbac

// Decision is the outcome of an authorization check.
type Decision int

const (
	Allowed Decision = iota
	DeniedUnauthenticated
	DeniedInsufficientRole
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case DeniedUnauthenticated:
		return "denied_unauthenticated"
	case DeniedInsufficientRole:
		return "denied_insufficient_role"
	default:
		return "unknown"
	}
}

// IsAllowed reports whether d lets the request through.
func (d Decision) IsAllowed() bool { return d == Allowed }

// Principal is the authenticated actor behind a request.
//
// Callers pass a nil interface for "no principal". A typed nil pointer
// wrapped in the interface is not nil and is treated as present.
type Principal interface {
	PrincipalRole() Role
}

// Gate decides whether a principal may perform an operation that requires a
// minimum role. It holds no mutable state and is safe for concurrent use.
type Gate struct {
	h Hierarchy
}

// NewGate returns a Gate over h.
func NewGate(h Hierarchy) Gate {
	return Gate{h: h}
}

// DefaultGate returns a Gate over DefaultHierarchy.
func DefaultGate() Gate {
	return Gate{h: defaultHierarchy}
}

// Hierarchy returns the table the gate compares against.
func (g Gate) Hierarchy() Hierarchy { return g.h }

// IsAuthenticated reports whether a principal is present.
func (g Gate) IsAuthenticated(p Principal) bool {
	return p != nil
}

// Authorize returns Allowed iff p is present and rank(p's role) >= rank(required).
//
// The presence check runs first, so an absent principal is always
// DeniedUnauthenticated whatever required is. Roles outside the table rank 0
// on both sides: an unknown required role is satisfied by every present
// principal.
func (g Gate) Authorize(p Principal, required Role) Decision {
	if !g.IsAuthenticated(p) {
		return DeniedUnauthenticated
	}
	if g.Allows(p.PrincipalRole(), required) {
		return Allowed
	}
	return DeniedInsufficientRole
}

// Allows compares two roles directly, without a principal.
func (g Gate) Allows(have, required Role) bool {
	return g.h.Rank(have) >= g.h.Rank(required)
}
