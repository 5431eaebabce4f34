package service

import "github.com/sportfed/arena/internal/model"

// Actor is the role in which a user acts on an application
type Actor string

const (
	ActorOrganizer Actor = "organizer"
	ActorApplicant Actor = "applicant"
	ActorCaptain   Actor = "captain"
)

type transitionKey struct {
	from  model.ApplicationStatus
	actor Actor
}

// applicationTransitions lists the allowed targets per (status, actor).
// Cancelled is final for every actor.
var applicationTransitions = map[transitionKey][]model.ApplicationStatus{
	{model.ApplicationStatusPending, ActorOrganizer}: {model.ApplicationStatusApproved, model.ApplicationStatusRejected},
	{model.ApplicationStatusPending, ActorApplicant}: {model.ApplicationStatusCancelled},

	{model.ApplicationStatusForming, ActorOrganizer}: {model.ApplicationStatusApproved, model.ApplicationStatusRejected},
	{model.ApplicationStatusForming, ActorApplicant}: {model.ApplicationStatusCancelled},
	{model.ApplicationStatusForming, ActorCaptain}:   {model.ApplicationStatusPending},

	{model.ApplicationStatusApproved, ActorOrganizer}: {model.ApplicationStatusRejected},
	{model.ApplicationStatusApproved, ActorApplicant}: {model.ApplicationStatusCancelled},

	{model.ApplicationStatusRejected, ActorOrganizer}: {model.ApplicationStatusApproved},
}

// CanTransition reports whether actor may move an application from one status to another
func CanTransition(from, to model.ApplicationStatus, actor Actor) bool {
	for _, target := range applicationTransitions[transitionKey{from, actor}] {
		if target == to {
			return true
		}
	}
	return false
}
