// Package testdb provides SurrealDB test databases for the Guildhall API.
//
// Each call to New connects to the server named by TEST_DB_HOST and
// TEST_DB_PORT, creates a unique namespace and applies every .surql file
// under migrations/. Tests are skipped when no server is reachable:
//
//	func TestGuildRepository(t *testing.T) {
//	    tdb := testdb.New(t)
//	    repo := repository.NewGuildRepository(tdb.DB)
//	    ...
//	}
//
// The namespace is removed when the test finishes.
package testdb
