package service

import (
	"cmp"
	"slices"

	"github.com/forgo/guildhall/api/internal/model"
)

// ViolationKind classifies an audit finding
type ViolationKind string

const (
	// A guild slot names a user that is not cached
	ViolationMissingUser ViolationKind = "missing_user"
	// A slot holder lacks the guild in its guilds set
	ViolationMissingMembership ViolationKind = "missing_membership"
	// A slot holder lacks the slot's role
	ViolationMissingRole ViolationKind = "missing_role"
	// A user carries a structural role no guild assigns it
	ViolationStaleRole ViolationKind = "stale_role"
)

// Violation is one broken guild/user relationship
type Violation struct {
	Kind  ViolationKind `json:"kind"`
	Guild string        `json:"guild,omitempty"`
	User  string        `json:"user"`
	Role  model.Role    `json:"role"`
}

// Audit checks the cached guilds and users against the relationship rules
// the service maintains. Dangling guild ids left on users by RemoveGuild are
// expected and not reported.
func (s *RegistryService) Audit() []Violation {
	s.mu.Lock()
	defer s.mu.Unlock()

	guilds := s.cache.listGuilds()
	users := make(map[string]*model.User)
	for _, u := range s.cache.listUsers() {
		users[u.ID] = u
	}

	var violations []Violation
	assigned := make(map[string]map[model.Role]bool)

	for _, g := range guilds {
		for _, role := range model.StructuralRoles {
			userID := g.Slot(role)
			if userID == "" {
				continue
			}
			if assigned[userID] == nil {
				assigned[userID] = make(map[model.Role]bool)
			}
			assigned[userID][role] = true

			u, ok := users[userID]
			if !ok {
				violations = append(violations, Violation{Kind: ViolationMissingUser, Guild: g.ID, User: userID, Role: role})
				continue
			}
			if !u.InGuild(g.ID) {
				violations = append(violations, Violation{Kind: ViolationMissingMembership, Guild: g.ID, User: userID, Role: role})
			}
			if !u.HasRole(role) {
				violations = append(violations, Violation{Kind: ViolationMissingRole, Guild: g.ID, User: userID, Role: role})
			}
		}
	}

	for _, u := range users {
		for _, role := range model.StructuralRoles {
			if u.HasRole(role) && !assigned[u.ID][role] {
				violations = append(violations, Violation{Kind: ViolationStaleRole, User: u.ID, Role: role})
			}
		}
	}

	slices.SortStableFunc(violations, func(a, b Violation) int {
		return cmp.Or(
			cmp.Compare(a.User, b.User),
			cmp.Compare(a.Guild, b.Guild),
			cmp.Compare(a.Role, b.Role),
			cmp.Compare(a.Kind, b.Kind),
		)
	})

	s.metrics.SetViolations(len(violations))
	return violations
}
