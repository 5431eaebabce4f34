package model

import (
	"sort"
	"strings"
	"time"
)

// ApplicationType distinguishes individual entries from team entries
type ApplicationType string

const (
	ApplicationTypeIndividual ApplicationType = "individual"
	ApplicationTypeTeam       ApplicationType = "team"
)

// IsValid reports whether t is a known application type
func (t ApplicationType) IsValid() bool {
	return t == ApplicationTypeIndividual || t == ApplicationTypeTeam
}

// ApplicationStatus is the closed set of application states
type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusApproved  ApplicationStatus = "approved"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusCancelled ApplicationStatus = "cancelled"
	ApplicationStatusForming   ApplicationStatus = "forming"
)

// ActiveApplicationStatuses are the non-terminal statuses. At most one
// application per (competition, applicant) may be in one of them.
var ActiveApplicationStatuses = []ApplicationStatus{
	ApplicationStatusPending,
	ApplicationStatusApproved,
	ApplicationStatusForming,
}

// IsValid reports whether s is a known application status
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusApproved, ApplicationStatusRejected,
		ApplicationStatusCancelled, ApplicationStatusForming:
		return true
	}
	return false
}

// IsTerminal reports whether s is rejected or cancelled
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusRejected || s == ApplicationStatusCancelled
}

// Recruiting limits
const (
	MaxRequiredMembers = 50
	MaxRolesNeeded     = 10
	MaxRoleTagLength   = 40
)

// RecruitingInfo is the advertisement a forming team publishes
type RecruitingInfo struct {
	RequiredMembers *int     `json:"required_members,omitempty"`
	RolesNeeded     []string `json:"roles_needed,omitempty"`
}

// Normalize lower-cases, trims, de-duplicates and sorts the role tags
func (r *RecruitingInfo) Normalize() {
	if r == nil {
		return
	}
	seen := make(map[string]struct{}, len(r.RolesNeeded))
	roles := make([]string, 0, len(r.RolesNeeded))
	for _, role := range r.RolesNeeded {
		tag := strings.ToLower(strings.TrimSpace(role))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		roles = append(roles, tag)
	}
	sort.Strings(roles)
	r.RolesNeeded = roles
}

// Validate validates the recruiting metadata. Call Normalize first.
func (r *RecruitingInfo) Validate() []FieldError {
	var errors []FieldError
	if r == nil {
		return errors
	}
	if r.RequiredMembers != nil {
		if *r.RequiredMembers < 0 {
			errors = append(errors, FieldError{Field: "required_members", Message: "required_members must be 0 or greater"})
		} else if *r.RequiredMembers > MaxRequiredMembers {
			errors = append(errors, FieldError{Field: "required_members", Message: "required_members must be 50 or less"})
		}
	}
	if len(r.RolesNeeded) > MaxRolesNeeded {
		errors = append(errors, FieldError{Field: "roles_needed", Message: "at most 10 roles can be listed"})
	}
	for _, role := range r.RolesNeeded {
		if len(role) > MaxRoleTagLength {
			errors = append(errors, FieldError{Field: "roles_needed", Message: "role tags must be 40 characters or less"})
			break
		}
	}
	return errors
}

// Application is an individual's or a team's entry into a competition
type Application struct {
	ID              string            `json:"id"`
	CompetitionID   string            `json:"competition_id"`
	Type            ApplicationType   `json:"type"`
	ApplicantUserID *string           `json:"applicant_user_id,omitempty"`
	ApplicantTeamID *string           `json:"applicant_team_id,omitempty"`
	Status          ApplicationStatus `json:"status"`
	Recruiting      *RecruitingInfo   `json:"recruiting,omitempty"`
	SubmittedOn     time.Time         `json:"submitted_on"`
	UpdatedOn       time.Time         `json:"updated_on"`
}

// ApplicantID returns the user or team id the application belongs to
func (a *Application) ApplicantID() string {
	if a.ApplicantTeamID != nil {
		return *a.ApplicantTeamID
	}
	if a.ApplicantUserID != nil {
		return *a.ApplicantUserID
	}
	return ""
}

// ApplicationFilter narrows a competition's application listing
type ApplicationFilter struct {
	Status *ApplicationStatus
	Type   *ApplicationType
}

// SubmitApplicationRequest represents a request to enter a competition
type SubmitApplicationRequest struct {
	Type       string          `json:"type"`
	TeamID     *string         `json:"team_id,omitempty"`
	Recruiting *RecruitingInfo `json:"recruiting,omitempty"`
}

// Validate validates the submit application request
func (r *SubmitApplicationRequest) Validate() []FieldError {
	var errors []FieldError

	switch ApplicationType(r.Type) {
	case ApplicationTypeIndividual:
		if r.TeamID != nil {
			errors = append(errors, FieldError{Field: "team_id", Message: "team_id is not allowed for individual applications"})
		}
		if r.Recruiting != nil {
			errors = append(errors, FieldError{Field: "recruiting", Message: "only team applications can recruit"})
		}
	case ApplicationTypeTeam:
		if r.TeamID == nil || strings.TrimSpace(*r.TeamID) == "" {
			errors = append(errors, FieldError{Field: "team_id", Message: "team_id is required for team applications"})
		}
	default:
		errors = append(errors, FieldError{Field: "type", Message: "type must be 'individual' or 'team'"})
	}

	if r.Recruiting != nil {
		r.Recruiting.Normalize()
		errors = append(errors, r.Recruiting.Validate()...)
	}

	return errors
}

// ChangeApplicationStatusRequest represents an organizer decision
type ChangeApplicationStatusRequest struct {
	Status string `json:"status"`
}

// Validate validates the status change request
func (r *ChangeApplicationStatusRequest) Validate() []FieldError {
	var errors []FieldError
	if !ApplicationStatus(r.Status).IsValid() {
		errors = append(errors, FieldError{Field: "status", Message: "status must be one of pending, approved, rejected, cancelled, forming"})
	}
	return errors
}

// RecruitingTeam is one entry of the "looking for members" board
type RecruitingTeam struct {
	ApplicationID string          `json:"application_id"`
	CompetitionID string          `json:"competition_id"`
	Team          *Team           `json:"team"`
	MemberCount   int             `json:"member_count"`
	Recruiting    *RecruitingInfo `json:"recruiting,omitempty"`
	SubmittedOn   time.Time       `json:"submitted_on"`
}
