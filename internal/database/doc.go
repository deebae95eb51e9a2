// Package database provides SurrealDB connectivity for the guildhall API.
//
// The Database interface is the narrow surface the repositories need:
//
//	type Database interface {
//	    Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)
//	    Execute(ctx context.Context, query string, vars map[string]interface{}) error
//	    Close() error
//	}
//
// Every statement the registry issues touches a single record, so there is
// no transaction support here. Cascaded writes across guilds and users are
// sequenced by the service layer instead.
//
// # Error Types
//
//   - ErrDuplicate: Record id already taken
//   - ErrConnection: Database connection failed
//   - ErrQuery: Query execution failed
//
// Use errors.Is() to check error types:
//
//	if errors.Is(err, database.ErrDuplicate) {
//	    // Handle conflict
//	}
package database
