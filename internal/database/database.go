// Package database provides the storage connectivity layer for arena.
//
// This package defines the Database interface that abstracts SurrealDB operations,
// the connection helper for PostgreSQL, and the transaction utilities the
// repositories and services use for multi-row writes.
//
// # Interface Design
//
// The Database interface provides three query methods:
//   - Query: Returns multiple results (for SELECT queries returning lists)
//   - QueryOne: Returns a single result (for SELECT by ID)
//   - Execute: No return value (for CREATE/UPDATE/DELETE mutations)
//
// # Transaction Support
//
// SurrealDB transactions here are BATCH-BASED, not connection-level.
// Statements accumulate until Commit() and are then wrapped in
// BEGIN TRANSACTION / COMMIT TRANSACTION and executed together.
// See transaction.go.
//
// # Error Handling
//
// Every backend maps its failures onto the same sentinels:
//   - ErrNotFound: Record does not exist
//   - ErrDuplicate: Unique constraint violation
//   - ErrConnection: Store unreachable or request timed out
//   - ErrQuery: Query execution failures
//   - ErrConflict: Conditional status write found a different current status
//   - ErrInUse: Delete refused because active rows still reference the record
//   - ErrLimitReached: Conditional write would exceed a counted limit
//
//	if errors.Is(err, database.ErrDuplicate) {
//	    // Another writer got there first
//	}
package database

import (
	"context"
	"errors"
	"time"
)

// Standard errors for database operations.
// Use errors.Is() to check these error types in calling code.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")

	// ErrConnection indicates a failure to connect to or communicate with the database,
	// including request timeouts.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure (syntax error, invalid reference, etc.).
	ErrQuery = errors.New("query error")

	// ErrConflict indicates a conditional write found the row in a different state.
	ErrConflict = errors.New("conditional write conflict")

	// ErrInUse indicates a delete was refused because active rows still reference the record.
	ErrInUse = errors.New("record in use")

	// ErrLimitReached indicates a conditional write would push a counted set past its limit.
	ErrLimitReached = errors.New("limit reached")
)

// Database defines the interface for database operations
type Database interface {
	// Connection management
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query executes a query and returns results
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// QueryOne executes a query and returns a single result
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)

	// Execute runs a query without returning results (for mutations)
	Execute(ctx context.Context, query string, vars map[string]interface{}) error

	// Transaction support
	BeginTx(ctx context.Context) (Transaction, error)
}

// Transaction represents a database transaction
type Transaction interface {
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
	Commit() error
	Rollback() error
}

// Config holds SurrealDB connection configuration
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
	// Timeout bounds every request sent to the store. Zero disables it.
	Timeout time.Duration
}

// IsUnavailable reports whether err means the store could not serve the request
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrConnection) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// IsStoreFailure reports whether err means the store failed to carry out the
// request, as opposed to answering it with a domain outcome such as not found,
// duplicate, conflict, in use or limit reached.
func IsStoreFailure(err error) bool {
	return IsUnavailable(err) || errors.Is(err, ErrQuery)
}
