// Package model defines domain entities and data structures for the arena API.
//
// The model package contains the competition, team, application and join
// request entities, their request types with Validate methods, and the
// RFC 9457 Problem Details error type used at the HTTP edge.
//
// # Domain Entities
//
//   - Competition: an event with a registration window and an event window
//   - Team: a captain plus zero or more TeamMember rows
//   - Application: an individual's or team's entry into a competition
//   - JoinRequest: a user asking to join a recruiting team
//   - User: read-only account view
//
// # Status Enumerations
//
// Statuses are closed string types with IsValid helpers. Which transitions
// between them are legal is decided by the service package, not here.
//
// # Validation
//
// Request types return []FieldError from Validate:
//
//	if errors := req.Validate(); len(errors) > 0 {
//	    return model.NewValidationError(errors)
//	}
package model
