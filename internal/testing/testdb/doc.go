// Package testdb provides SurrealDB test databases for store-level
// acceptance tests.
//
// Each TestDB connects to the instance named by TEST_DB_HOST (plus
// TEST_DB_PORT, TEST_DB_USER and TEST_DB_PASSWORD), works in a fresh
// namespace with the schema defined, and removes that namespace on cleanup.
// Tests are skipped when TEST_DB_HOST is not set.
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    repos := tdb.Repositories()
//	    f := repos.Fixtures(nil)
//	    user := f.CreateUser(t)
//	}
package testdb
