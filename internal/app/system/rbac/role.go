// Package rbac holds the branchhub role hierarchy and the access gate that
// every protected route is checked against.
//
// Roles form a closed, totally ordered set:
//
//	member (1) < mc_leader (2) < branch_admin (3) < super_admin (4)
//
// Any role string outside that set ranks 0, below every real role. An
// unknown role is never an error and never grants access on its own.
package rbac

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Role is a privilege category assigned to a user.
type Role string

const (
	Member      Role = "member"
	MCLeader    Role = "mc_leader"
	BranchAdmin Role = "branch_admin"
	SuperAdmin  Role = "super_admin"
)

// Rank orders roles. Higher ranks grant more. Zero is reserved for unknown roles.
type Rank int

// NoRank is the rank of any role that is not part of the hierarchy.
const NoRank Rank = 0

// ErrUnknownRole is returned by ParseKnown for role strings outside the hierarchy.
var ErrUnknownRole = errors.New("unknown role")

// Parse normalizes a stored or submitted role string. The result may be a
// role outside the hierarchy; such roles simply rank 0.
func Parse(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// ParseKnown is Parse for places that must reject roles outside the default
// hierarchy, such as user creation.
func ParseKnown(s string) (Role, error) {
	r := Parse(s)
	if !defaultHierarchy.Known(r) {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

func (r Role) String() string { return string(r) }

// Valid reports whether r belongs to the default hierarchy.
func (r Role) Valid() bool { return defaultHierarchy.Known(r) }

// Hierarchy is an immutable role→rank table. The zero value ranks every role 0.
type Hierarchy struct {
	ranks map[Role]Rank
	order []Role
}

// NewHierarchy copies ranks into a new Hierarchy. Ranks must be positive and
// unique so that the order is total.
func NewHierarchy(ranks map[Role]Rank) (Hierarchy, error) {
	h := Hierarchy{
		ranks: make(map[Role]Rank, len(ranks)),
		order: make([]Role, 0, len(ranks)),
	}
	seen := make(map[Rank]Role, len(ranks))
	for role, rank := range ranks {
		if role == "" {
			return Hierarchy{}, errors.New("rbac: empty role name")
		}
		if rank <= NoRank {
			return Hierarchy{}, fmt.Errorf("rbac: role %q has non-positive rank %d", role, rank)
		}
		if other, dup := seen[rank]; dup {
			return Hierarchy{}, fmt.Errorf("rbac: roles %q and %q share rank %d", other, role, rank)
		}
		seen[rank] = role
		h.ranks[role] = rank
		h.order = append(h.order, role)
	}
	sort.Slice(h.order, func(i, j int) bool { return h.ranks[h.order[i]] < h.ranks[h.order[j]] })
	return h, nil
}

// MustHierarchy is NewHierarchy for tables fixed at compile time.
func MustHierarchy(ranks map[Role]Rank) Hierarchy {
	h, err := NewHierarchy(ranks)
	if err != nil {
		panic(err)
	}
	return h
}

var defaultHierarchy = MustHierarchy(map[Role]Rank{
	Member:      1,
	MCLeader:    2,
	BranchAdmin: 3,
	SuperAdmin:  4,
})

// DefaultHierarchy returns the process-wide branchhub role table.
func DefaultHierarchy() Hierarchy { return defaultHierarchy }

// Rank returns the rank of r, or NoRank if r is not in the table.
func (h Hierarchy) Rank(r Role) Rank {
	return h.ranks[r] // missing key yields NoRank
}

// Known reports whether r is in the table.
func (h Hierarchy) Known(r Role) bool {
	_, ok := h.ranks[r]
	return ok
}

// Roles returns the known roles from lowest to highest rank.
func (h Hierarchy) Roles() []Role {
	out := make([]Role, len(h.order))
	copy(out, h.order)
	return out
}

// AtOrAbove returns the known roles whose rank is at least that of r,
// lowest first. An unknown r yields every known role.
func (h Hierarchy) AtOrAbove(r Role) []Role {
	lo := h.Rank(r)
	var out []Role
	for _, role := range h.order {
		if h.ranks[role] >= lo {
			out = append(out, role)
		}
	}
	return out
}

// AtOrBelow returns the known roles whose rank does not exceed that of r,
// lowest first. An unknown r yields nothing.
func (h Hierarchy) AtOrBelow(r Role) []Role {
	hi := h.Rank(r)
	var out []Role
	for _, role := range h.order {
		if h.ranks[role] <= hi {
			out = append(out, role)
		}
	}
	return out
}
