package model

import (
	"strings"
	"time"
)

// CompetitionType controls who may enter a competition
type CompetitionType string

const (
	CompetitionTypeOpen     CompetitionType = "open"
	CompetitionTypeRegional CompetitionType = "regional"
	CompetitionTypeFederal  CompetitionType = "federal"
)

// IsValid reports whether t is a known competition type
func (t CompetitionType) IsValid() bool {
	switch t {
	case CompetitionTypeOpen, CompetitionTypeRegional, CompetitionTypeFederal:
		return true
	}
	return false
}

// CompetitionStatus is the persisted lifecycle status of a competition.
// Draft and published are set by the organizer; the remaining statuses
// are derived from the registration and event windows.
type CompetitionStatus string

const (
	CompetitionStatusDraft            CompetitionStatus = "draft"
	CompetitionStatusPublished        CompetitionStatus = "published"
	CompetitionStatusRegistrationOpen CompetitionStatus = "registration_open"
	CompetitionStatusInProgress       CompetitionStatus = "in_progress"
	CompetitionStatusFinished         CompetitionStatus = "finished"
)

// CompetitionPhase is the time-derived phase of a competition
type CompetitionPhase string

const (
	PhaseUpcoming           CompetitionPhase = "upcoming"
	PhaseRegistrationOpen   CompetitionPhase = "registration_open"
	PhaseRegistrationClosed CompetitionPhase = "registration_closed"
	PhaseRunning            CompetitionPhase = "running"
	PhaseFinished           CompetitionPhase = "finished"
)

// Validation constants
const (
	MaxCompetitionNameLength = 200
	MaxCompetitionDescLength = 5000
)

// Competition represents a federation competition
type Competition struct {
	ID                     string            `json:"id"`
	Name                   string            `json:"name"`
	Description            *string           `json:"description,omitempty"`
	DisciplineID           string            `json:"discipline_id"`
	RegionID               *string           `json:"region_id,omitempty"`
	Type                   CompetitionType   `json:"type"`
	MaxParticipantsOrTeams *int              `json:"max_participants_or_teams,omitempty"`
	RegistrationStart      time.Time         `json:"registration_start"`
	RegistrationEnd        time.Time         `json:"registration_end"`
	Start                  time.Time         `json:"start"`
	End                    time.Time         `json:"end"`
	Status                 CompetitionStatus `json:"status"`
	OrganizerUserID        string            `json:"organizer_user_id"`
	CreatedOn              time.Time         `json:"created_on"`
	UpdatedOn              time.Time         `json:"updated_on"`
}

// IsRegional reports whether entry is restricted to the competition's region
func (c *Competition) IsRegional() bool {
	return c.Type == CompetitionTypeRegional
}

// CompetitionView is a competition together with its phase at read time
type CompetitionView struct {
	*Competition
	Phase            CompetitionPhase `json:"phase"`
	ApprovedCount    int              `json:"approved_count"`
	AcceptingEntries bool             `json:"accepting_entries"`
}

// CreateCompetitionRequest represents a request to create a competition
type CreateCompetitionRequest struct {
	Name                   string  `json:"name"`
	Description            *string `json:"description,omitempty"`
	DisciplineID           string  `json:"discipline_id"`
	RegionID               *string `json:"region_id,omitempty"`
	Type                   string  `json:"type"`
	MaxParticipantsOrTeams *int    `json:"max_participants_or_teams,omitempty"`
	RegistrationStart      string  `json:"registration_start"`
	RegistrationEnd        string  `json:"registration_end"`
	Start                  string  `json:"start"`
	End                    string  `json:"end"`
	Publish                bool    `json:"publish,omitempty"`
}

// CompetitionWindows holds the parsed registration and event windows
type CompetitionWindows struct {
	RegistrationStart time.Time
	RegistrationEnd   time.Time
	Start             time.Time
	End               time.Time
}

// Validate validates the create competition request
func (r *CreateCompetitionRequest) Validate() []FieldError {
	var errors []FieldError

	name := strings.TrimSpace(r.Name)
	if name == "" {
		errors = append(errors, FieldError{Field: "name", Message: "name is required"})
	} else if len(name) > MaxCompetitionNameLength {
		errors = append(errors, FieldError{Field: "name", Message: "name must be 200 characters or less"})
	}
	if r.Description != nil && len(*r.Description) > MaxCompetitionDescLength {
		errors = append(errors, FieldError{Field: "description", Message: "description must be 5000 characters or less"})
	}
	if strings.TrimSpace(r.DisciplineID) == "" {
		errors = append(errors, FieldError{Field: "discipline_id", Message: "discipline_id is required"})
	}
	if !CompetitionType(r.Type).IsValid() {
		errors = append(errors, FieldError{Field: "type", Message: "type must be 'open', 'regional' or 'federal'"})
	}
	if CompetitionType(r.Type) == CompetitionTypeRegional && (r.RegionID == nil || strings.TrimSpace(*r.RegionID) == "") {
		errors = append(errors, FieldError{Field: "region_id", Message: "region_id is required for regional competitions"})
	}
	if r.MaxParticipantsOrTeams != nil && *r.MaxParticipantsOrTeams < 1 {
		errors = append(errors, FieldError{Field: "max_participants_or_teams", Message: "max_participants_or_teams must be at least 1"})
	}

	_, windowErrors := r.Windows()
	errors = append(errors, windowErrors...)

	return errors
}

// Windows parses the four RFC3339 timestamps and checks their ordering
func (r *CreateCompetitionRequest) Windows() (CompetitionWindows, []FieldError) {
	var w CompetitionWindows
	var errors []FieldError

	parse := func(field, value string, dst *time.Time) {
		if value == "" {
			errors = append(errors, FieldError{Field: field, Message: field + " is required"})
			return
		}
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			errors = append(errors, FieldError{Field: field, Message: "invalid date format, use RFC3339"})
			return
		}
		*dst = t.UTC()
	}
	parse("registration_start", r.RegistrationStart, &w.RegistrationStart)
	parse("registration_end", r.RegistrationEnd, &w.RegistrationEnd)
	parse("start", r.Start, &w.Start)
	parse("end", r.End, &w.End)

	if len(errors) > 0 {
		return w, errors
	}
	return w, w.Validate()
}

// Validate checks registration_end > registration_start, start > registration_start and end > start
func (w CompetitionWindows) Validate() []FieldError {
	var errors []FieldError
	if !w.RegistrationEnd.After(w.RegistrationStart) {
		errors = append(errors, FieldError{Field: "registration_end", Message: "registration_end must be after registration_start"})
	}
	if !w.Start.After(w.RegistrationStart) {
		errors = append(errors, FieldError{Field: "start", Message: "start must be after registration_start"})
	}
	if !w.End.After(w.Start) {
		errors = append(errors, FieldError{Field: "end", Message: "end must be after start"})
	}
	return errors
}
