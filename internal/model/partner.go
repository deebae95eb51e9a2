package model

// Partner is an affiliated organization. It carries no relations.
type Partner struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Clone returns a copy of p
func (p *Partner) Clone() *Partner {
	c := *p
	return &c
}

// Validate checks the fields required to create a partner
func (p *Partner) Validate() []FieldError {
	if p.ID == "" {
		return []FieldError{{Field: "id", Message: "id is required"}}
	}
	return nil
}

// PartnerPatch is a partial partner update
type PartnerPatch struct {
	Name *string `json:"name,omitempty"`
}

// ApplyTo returns a copy of p with the patch merged in
func (pp PartnerPatch) ApplyTo(p *Partner) *Partner {
	next := p.Clone()
	if pp.Name != nil {
		next.Name = *pp.Name
	}
	return next
}

// Snapshot is every cached entity, used to seed new change-stream clients
type Snapshot struct {
	Users    []*User    `json:"users"`
	Guilds   []*Guild   `json:"guilds"`
	Partners []*Partner `json:"partners"`
}
