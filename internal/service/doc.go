// Package service implements the guild registry.
//
// RegistryService is the only writer of guilds, users and partners. Each
// mutation runs under a single lock and follows the same steps:
//
//  1. validate against the in-memory cache
//  2. write the change to the repository
//  3. swap the new value into the cache
//  4. publish the change event
//
// Guild role slots (owner, advisor, voter) are mirrored onto users. Creating
// or editing a guild links each new slot holder, creating the user when it
// does not exist yet; a holder that leaves a slot loses the matching role
// only when no other guild still assigns it. Follow-up user writes happen
// before the guild's own event so subscribers always see users settle first.
//
// # Error Handling
//
// Every error returned for a rejected request wraps one of three kinds:
//
//	ErrConflict   duplicate id, or a change that fights a role slot
//	ErrNotFound   unknown id
//	ErrBadRequest structural role on the free-role path, unknown guild
//
// Anything else comes from the repository. A repository error during a
// follow-up write is returned as is; the writes already made are kept and
// the mismatch shows up in Audit.
//
// # Events
//
// EventHub fans events out to stream subscribers with a bounded buffer per
// subscriber. Slow subscribers lose events rather than stall writers.
package service
