package model

import (
	"strings"
	"time"
)

// JoinRequestStatus is the closed set of join request states
type JoinRequestStatus string

const (
	JoinRequestStatusPending  JoinRequestStatus = "pending"
	JoinRequestStatusAccepted JoinRequestStatus = "accepted"
	JoinRequestStatusRejected JoinRequestStatus = "rejected"
)

// IsValid reports whether s is a known join request status
func (s JoinRequestStatus) IsValid() bool {
	switch s {
	case JoinRequestStatusPending, JoinRequestStatusAccepted, JoinRequestStatusRejected:
		return true
	}
	return false
}

// JoinRequestAction is a captain's decision on a join request
type JoinRequestAction string

const (
	JoinRequestAccept JoinRequestAction = "accept"
	JoinRequestReject JoinRequestAction = "reject"
)

// JoinRequest is a user's request to join a recruiting team for one competition
type JoinRequest struct {
	ID            string            `json:"id"`
	TeamID        string            `json:"team_id"`
	UserID        string            `json:"user_id"`
	CompetitionID string            `json:"competition_id"`
	Status        JoinRequestStatus `json:"status"`
	CreatedOn     time.Time         `json:"created_on"`
	DecidedOn     *time.Time        `json:"decided_on,omitempty"`
}

// RequestToJoinRequest represents a request to join a team
type RequestToJoinRequest struct {
	CompetitionID string `json:"competition_id"`
}

// Validate validates the join request
func (r *RequestToJoinRequest) Validate() []FieldError {
	var errors []FieldError
	if strings.TrimSpace(r.CompetitionID) == "" {
		errors = append(errors, FieldError{Field: "competition_id", Message: "competition_id is required"})
	}
	return errors
}
