package service

import "errors"

// Centralized service layer errors.
// Services return these (wrapped with %w where context helps) and the
// Workflow façade classifies them into a Failure kind.

// ===== User Errors =====
var (
	ErrUserNotFound = errors.New("user not found")
)

// ===== Competition Errors =====
var (
	ErrCompetitionNotFound   = errors.New("competition not found")
	ErrNotOrganizer          = errors.New("only the competition organizer can perform this action")
	ErrHasActiveApplications = errors.New("resource still has active applications")
)

// ===== Eligibility Errors =====
var (
	ErrRegistrationClosed = errors.New("registration is not open")
	ErrRegionMismatch     = errors.New("applicant region does not match competition region")
	ErrRegionUnverified   = errors.New("applicant region could not be verified")
	ErrCapacityExceeded   = errors.New("capacity exceeded")
)

// ===== Application Errors =====
var (
	ErrApplicationNotFound  = errors.New("application not found")
	ErrDuplicateApplication = errors.New("an active application already exists")
	ErrInvalidTransition    = errors.New("status transition not allowed")
	ErrNotApplicant         = errors.New("only the applicant can perform this action")
)

// ===== Team Errors =====
var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrNotCaptain       = errors.New("only the team captain can perform this action")
	ErrAlreadyMember    = errors.New("user is already on the team")
	ErrMemberNotFound   = errors.New("team member not found")
	ErrCannotAddCaptain = errors.New("the captain is already part of the team")
)

// ===== Join Request Errors =====
var (
	ErrJoinRequestNotFound = errors.New("join request not found")
	ErrDuplicateRequest    = errors.New("a pending join request already exists")
)

// ===== Store Errors =====
var (
	ErrStoreUnavailable = errors.New("store unavailable")
)
