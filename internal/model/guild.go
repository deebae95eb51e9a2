package model

// Guild is an organization with up to three distinguished members held in
// role slots. An empty slot means the role is unassigned.
type Guild struct {
	ID          string `json:"id"`
	Type        int    `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Character   string `json:"character"`
	Invite      string `json:"invite"`
	Owner       string `json:"owner,omitempty"`
	Advisor     string `json:"advisor,omitempty"`
	Voter       string `json:"voter,omitempty"`
}

// Slot returns the user id held in the given role slot
func (g *Guild) Slot(role Role) string {
	switch role {
	case RoleOwner:
		return g.Owner
	case RoleAdvisor:
		return g.Advisor
	case RoleVoter:
		return g.Voter
	}
	return ""
}

// HoldsSlot returns true if any role slot of the guild references userID
func (g *Guild) HoldsSlot(userID string) bool {
	if userID == "" {
		return false
	}
	return g.Owner == userID || g.Advisor == userID || g.Voter == userID
}

// Clone returns a copy that shares no state with g
func (g *Guild) Clone() *Guild {
	c := *g
	return &c
}

// Diff returns the json names of the fields that differ between g and other
func (g *Guild) Diff(other *Guild) []string {
	var changed []string
	if g.Type != other.Type {
		changed = append(changed, "type")
	}
	if g.Name != other.Name {
		changed = append(changed, "name")
	}
	if g.Description != other.Description {
		changed = append(changed, "description")
	}
	if g.Character != other.Character {
		changed = append(changed, "character")
	}
	if g.Invite != other.Invite {
		changed = append(changed, "invite")
	}
	for _, role := range StructuralRoles {
		if g.Slot(role) != other.Slot(role) {
			changed = append(changed, string(role))
		}
	}
	return changed
}

// Validate checks the fields required to create a guild
func (g *Guild) Validate() []FieldError {
	var errs []FieldError
	if g.ID == "" {
		errs = append(errs, FieldError{Field: "id", Message: "id is required"})
	}
	if len(g.Name) > MaxGuildNameLength {
		errs = append(errs, FieldError{Field: "name", Message: "name exceeds maximum length"})
	}
	return errs
}

// GuildPatch is a partial guild update. Nil fields are left untouched; a
// role slot patched to "" is cleared.
type GuildPatch struct {
	Type        *int    `json:"type,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Character   *string `json:"character,omitempty"`
	Invite      *string `json:"invite,omitempty"`
	Owner       *string `json:"owner,omitempty"`
	Advisor     *string `json:"advisor,omitempty"`
	Voter       *string `json:"voter,omitempty"`
}

// ApplyTo returns a copy of g with the patch merged in
func (p GuildPatch) ApplyTo(g *Guild) *Guild {
	next := g.Clone()
	if p.Type != nil {
		next.Type = *p.Type
	}
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Character != nil {
		next.Character = *p.Character
	}
	if p.Invite != nil {
		next.Invite = *p.Invite
	}
	if p.Owner != nil {
		next.Owner = *p.Owner
	}
	if p.Advisor != nil {
		next.Advisor = *p.Advisor
	}
	if p.Voter != nil {
		next.Voter = *p.Voter
	}
	return next
}

// Validate checks the patch
func (p GuildPatch) Validate() []FieldError {
	var errs []FieldError
	if p.Name != nil && len(*p.Name) > MaxGuildNameLength {
		errs = append(errs, FieldError{Field: "name", Message: "name exceeds maximum length"})
	}
	return errs
}

// Business constraints
const (
	MaxGuildNameLength = 100
)
