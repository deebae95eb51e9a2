package model

// Role is a label carried in a user's roles set
type Role string

// Structural roles are mirrored from guild role slots and are never edited
// directly on a user.
const (
	RoleOwner   Role = "owner"
	RoleAdvisor Role = "advisor"
	RoleVoter   Role = "voter"
)

// RoleObserver is the free role that grants write access to the API
const RoleObserver Role = "observer"

// StructuralRoles lists the role slots in the order they are reconciled
var StructuralRoles = []Role{RoleOwner, RoleAdvisor, RoleVoter}

// IsStructural returns true if the role is backed by a guild role slot
func (r Role) IsStructural() bool {
	switch r {
	case RoleOwner, RoleAdvisor, RoleVoter:
		return true
	default:
		return false
	}
}
