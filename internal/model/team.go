package model

import (
	"strings"
	"time"
)

// Validation constants
const (
	MaxTeamNameLength = 100
)

// Team is a group of users led by a single captain. The captain is an
// implicit member and never has a TeamMember row.
type Team struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CaptainUserID string    `json:"captain_user_id"`
	CreatedOn     time.Time `json:"created_on"`
}

// TeamMember links a non-captain user to a team
type TeamMember struct {
	ID       string    `json:"id"`
	TeamID   string    `json:"team_id"`
	UserID   string    `json:"user_id"`
	JoinedOn time.Time `json:"joined_on"`
}

// TeamDetail is a team with its roster and application history
type TeamDetail struct {
	*Team
	Members      []*TeamMember  `json:"members"`
	Applications []*Application `json:"applications"`
}

// UserTeams splits a user's teams by role
type UserTeams struct {
	Captain []*Team `json:"captain"`
	Member  []*Team `json:"member"`
}

// CreateTeamRequest represents a request to create a team
type CreateTeamRequest struct {
	Name string `json:"name"`
}

// Validate validates the create team request
func (r *CreateTeamRequest) Validate() []FieldError {
	return validateTeamName(r.Name)
}

// RenameTeamRequest represents a request to rename a team
type RenameTeamRequest struct {
	Name string `json:"name"`
}

// Validate validates the rename team request
func (r *RenameTeamRequest) Validate() []FieldError {
	return validateTeamName(r.Name)
}

func validateTeamName(name string) []FieldError {
	var errors []FieldError
	name = strings.TrimSpace(name)
	if name == "" {
		errors = append(errors, FieldError{Field: "name", Message: "name is required"})
	} else if len(name) > MaxTeamNameLength {
		errors = append(errors, FieldError{Field: "name", Message: "name must be 100 characters or less"})
	}
	return errors
}

// AddTeamMemberRequest represents a captain adding a user directly
type AddTeamMemberRequest struct {
	UserID string `json:"user_id"`
}

// Validate validates the add member request
func (r *AddTeamMemberRequest) Validate() []FieldError {
	var errors []FieldError
	if strings.TrimSpace(r.UserID) == "" {
		errors = append(errors, FieldError{Field: "user_id", Message: "user_id is required"})
	}
	return errors
}
