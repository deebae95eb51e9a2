package model

import "slices"

// User is a member record. Guilds and Roles are sets kept in insertion order.
type User struct {
	ID     string   `json:"id"`
	Guilds []string `json:"guilds"`
	Roles  []Role   `json:"roles"`
}

// NewUser returns a user with non-nil sets
func NewUser(id string) *User {
	return &User{ID: id, Guilds: []string{}, Roles: []Role{}}
}

// HasRole returns true if the user carries role
func (u *User) HasRole(role Role) bool {
	return slices.Contains(u.Roles, role)
}

// InGuild returns true if guildID is in the user's guild set
func (u *User) InGuild(guildID string) bool {
	return slices.Contains(u.Guilds, guildID)
}

// Clone returns a copy that shares no state with u
func (u *User) Clone() *User {
	c := &User{ID: u.ID, Guilds: []string{}, Roles: []Role{}}
	c.Guilds = append(c.Guilds, u.Guilds...)
	c.Roles = append(c.Roles, u.Roles...)
	return c
}

// Diff returns the json names of the set fields that differ between u and other.
// Order is not significant.
func (u *User) Diff(other *User) []string {
	var changed []string
	if !sameSet(u.Guilds, other.Guilds) {
		changed = append(changed, "guilds")
	}
	if !sameSet(u.Roles, other.Roles) {
		changed = append(changed, "roles")
	}
	return changed
}

// Validate checks the fields required to create a user
func (u *User) Validate() []FieldError {
	var errs []FieldError
	if u.ID == "" {
		errs = append(errs, FieldError{Field: "id", Message: "id is required"})
	}
	for _, role := range u.Roles {
		if role == "" {
			errs = append(errs, FieldError{Field: "roles", Message: "role must not be empty"})
			break
		}
	}
	return errs
}

// UserPatch is a partial user update. A nil set is left untouched.
type UserPatch struct {
	Guilds *[]string `json:"guilds,omitempty"`
	Roles  *[]Role   `json:"roles,omitempty"`
}

// ApplyTo returns a copy of u with the patch merged in. Duplicates in the
// patch are collapsed so the result stays a set.
func (p UserPatch) ApplyTo(u *User) *User {
	next := u.Clone()
	if p.Guilds != nil {
		next.Guilds = dedupe(*p.Guilds)
	}
	if p.Roles != nil {
		next.Roles = dedupe(*p.Roles)
	}
	return next
}

// UserRoleChange is the payload of role add/remove events
type UserRoleChange struct {
	User string `json:"user"`
	Role Role   `json:"role"`
}

// UserGuildChange is the payload of membership add/remove events
type UserGuildChange struct {
	User  string `json:"user"`
	Guild string `json:"guild"`
}

func sameSet[T comparable](a, b []T) bool {
	seen := make(map[T]struct{}, len(a))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	other := make(map[T]struct{}, len(b))
	for _, v := range b {
		if _, ok := seen[v]; !ok {
			return false
		}
		other[v] = struct{}{}
	}
	return len(seen) == len(other)
}

func dedupe[T comparable](in []T) []T {
	out := make([]T, 0, len(in))
	seen := make(map[T]struct{}, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
