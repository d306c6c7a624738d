package auth

import (
	"sort"
	"strings"
)

// Role represents a named capability tag. A user may hold zero or more.
type Role string

const (
	// RoleNone is the sentinel stored for a registered account with no
	// roles yet. It grants no protected-page access and is never part of
	// an effective role set.
	RoleNone Role = "none"

	// RoleCyberSecEng grants the security incident surfaces.
	RoleCyberSecEng Role = "cybersec_eng"

	// RoleDataAnalyst grants the data analysis surfaces.
	RoleDataAnalyst Role = "data_analyst"

	// RoleITOps grants the IT ticketing surfaces.
	RoleITOps Role = "it_ops"

	// RoleAdmin grants user management and settings, and implicitly
	// satisfies every other role requirement.
	RoleAdmin Role = "admin"
)

// ValidRoles is the set of assignable roles (excludes the none sentinel).
var ValidRoles = []Role{RoleCyberSecEng, RoleDataAnalyst, RoleITOps, RoleAdmin}

// legacyRoles maps role tokens from older database rows to their current
// names. Unknown tokens are dropped on decode.
var legacyRoles = map[Role]Role{
	"cyber_analyst":  RoleCyberSecEng,
	"cyber":          RoleCyberSecEng,
	"data_scientist": RoleDataAnalyst,
}

// IsValidRole returns true if r is an assignable role.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// RoleSet is an unordered set of roles.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from the given roles, dropping invalid ones.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		if IsValidRole(r) {
			s[r] = struct{}{}
		}
	}
	return s
}

// Contains returns true if the set holds the given role.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// IsAdmin returns true if the set holds the admin role.
func (s RoleSet) IsAdmin() bool {
	return s.Contains(RoleAdmin)
}

// Intersects returns true if the two sets share at least one role.
func (s RoleSet) Intersects(other RoleSet) bool {
	for r := range s {
		if other.Contains(r) {
			return true
		}
	}
	return false
}

// Equal returns true if both sets hold exactly the same roles.
func (s RoleSet) Equal(other RoleSet) bool {
	if len(s) != len(other) {
		return false
	}
	for r := range s {
		if !other.Contains(r) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the set.
func (s RoleSet) Clone() RoleSet {
	c := make(RoleSet, len(s))
	for r := range s {
		c[r] = struct{}{}
	}
	return c
}

// Roles returns the set's members sorted alphabetically for stable display.
func (s RoleSet) Roles() []Role {
	roles := make([]Role, 0, len(s))
	for r := range s {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Names returns the set's members as plain strings, sorted, for JSON
// responses. Empty sets yield a non-nil empty slice.
func (s RoleSet) Names() []string {
	roles := s.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return names
}

// String returns the display form: comma-joined sorted roles, or "none".
func (s RoleSet) String() string {
	return EncodeRoles(s)
}

// EncodeRoles serialises a role set to the storage form: comma-joined sorted
// tokens, or the literal sentinel "none" for an empty set.
func EncodeRoles(s RoleSet) string {
	if len(s) == 0 {
		return string(RoleNone)
	}
	roles := s.Roles()
	tokens := make([]string, len(roles))
	for i, r := range roles {
		tokens[i] = string(r)
	}
	return strings.Join(tokens, ",")
}

// DecodeRoles parses the storage form back into a role set. The sentinel
// "none", empty tokens, and unknown tokens normalise to no membership;
// legacy tokens are remapped to their current names.
func DecodeRoles(raw string) RoleSet {
	s := make(RoleSet)
	for _, token := range strings.Split(raw, ",") {
		r := Role(strings.TrimSpace(token))
		if r == "" || r == RoleNone {
			continue
		}
		if mapped, ok := legacyRoles[r]; ok {
			r = mapped
		}
		if IsValidRole(r) {
			s[r] = struct{}{}
		}
	}
	return s
}
