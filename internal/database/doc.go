// Package database provides database connectivity for the arena API.
//
// # Backends
//
//   - SurrealDB: NewSurrealDB returns a Database driven through surrealdb.go
//   - PostgreSQL: OpenPostgres returns an *sqlx.DB backed by the pgx stdlib driver
//
// # Connection Management
//
//	db := database.NewSurrealDB(database.Config{
//	    Host:      "localhost",
//	    Port:      "8000",
//	    Namespace: "arena",
//	    Database:  "main",
//	    User:      "root",
//	    Password:  "secret",
//	    Timeout:   5 * time.Second,
//	})
//	if err := db.Connect(ctx); err != nil { ... }
//
// # Multi-step Writes
//
// MultiStepOperation runs dependent writes across repositories and undoes
// completed steps in reverse order when a later step fails:
//
//	op := database.NewMultiStepOperation()
//	op.AddStep("accept_request", accept, reopen)
//	op.AddStep("insert_member", insert, nil)
//	err := op.Execute(ctx)
package database
