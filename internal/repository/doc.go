// Package repository implements the SurrealDB entity store.
//
// Each repository struct handles one entity and satisfies the matching
// interface declared in the service package. Sibling packages provide the
// other backends: postgres (sqlx) and memory (tests and local runs).
//
// # Repository Pattern
//
//   - Constructor function (NewXxxRepository) accepts a database.Database
//   - GetByID style lookups return nil, nil when the record does not exist
//   - SurrealQL is parameterised with $variable syntax and type::record()
//   - Rows are parsed field by field into model structs
//
// # Uniqueness
//
// SurrealDB has no partial unique index, so rules that only hold while a row
// is in certain statuses are enforced with lock tables:
//
//   - application_lock:[competition_id, applicant_id] while an application is active
//   - join_request_lock:[team_id, user_id, competition_id] while a request is pending
//
// Lock records are created and deleted inside the same transaction as the
// status write. A collision surfaces as database.ErrDuplicate.
//
// # Conditional Writes
//
// Status changes are written as
//
//	LET $updated = UPDATE type::record($id) SET status = $to WHERE status = $from RETURN AFTER;
//	IF array::len($updated) = 0 { THROW "conditional write conflict" };
//
// and the thrown error comes back as database.ErrConflict.
package repository
