// Package repository implements the SurrealDB persistence gateway.
//
// Each repository handles one record table (guild, user, partner) and
// exposes the four operations the registry needs: FindAll, Create, Update
// and Delete. Records are keyed by the entity's own string id:
//
//	CREATE type::thing("guild", $id) CONTENT $content
//
// Reads project the key back out with record::id(id) so callers never see
// the table prefix. Create on an existing key surfaces database.ErrDuplicate;
// nothing here retries or batches writes.
package repository
