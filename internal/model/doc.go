// Package model defines the Guildhall entities and the API error envelope.
//
// # Entities
//
//   - Guild: an organization with three role slots (owner, advisor, voter)
//   - User: a member with a set of guild ids and a set of roles
//   - Partner: an affiliated organization with no relations
//
// Guild slots and user sets reference each other by id. Keeping the two
// sides consistent is the registry service's job; the types here only
// carry data, patches and field validation.
//
// # Patches
//
// GuildPatch, UserPatch and PartnerPatch use pointer fields so that an
// absent field is left untouched:
//
//	next := model.GuildPatch{Owner: &userID}.ApplyTo(current)
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go and written with
// ProblemDetails.WriteJSON.
package model
