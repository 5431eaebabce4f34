package service

import (
	"time"

	"github.com/sportfed/arena/internal/model"
)

// RegionVerdict is the outcome of a region restriction check
type RegionVerdict string

const (
	RegionUnrestricted RegionVerdict = "unrestricted"
	RegionMatch        RegionVerdict = "restricted_match"
	RegionMismatch     RegionVerdict = "restricted_mismatch"
	RegionUnknown      RegionVerdict = "unknown"
)

// CapacityState compares a team's non-captain roster to its recruiting target
type CapacityState string

const (
	CapacityUnder     CapacityState = "under"
	CapacityFull      CapacityState = "full"
	CapacityOver      CapacityState = "over"
	CapacityUnbounded CapacityState = "unbounded"
)

// Evaluator decides whether an applicant may enter a competition.
// All of its checks are pure; the only policy it carries is how an
// unknown region is treated.
type Evaluator struct {
	AllowUnknownRegion bool
}

// NewEvaluator creates an evaluator with the given unknown-region policy
func NewEvaluator(allowUnknownRegion bool) *Evaluator {
	return &Evaluator{AllowUnknownRegion: allowUnknownRegion}
}

// CompetitionPhase computes the phase of c at now. Both ends of each window
// are inclusive. While the registration window is open it takes precedence
// over an overlapping event window.
func CompetitionPhase(c *model.Competition, now time.Time) model.CompetitionPhase {
	switch {
	case now.Before(c.RegistrationStart):
		return model.PhaseUpcoming
	case !now.After(c.RegistrationEnd):
		return model.PhaseRegistrationOpen
	case now.Before(c.Start):
		return model.PhaseRegistrationClosed
	case !now.After(c.End):
		return model.PhaseRunning
	default:
		return model.PhaseFinished
	}
}

// DerivedStatus maps the phase of a non-draft competition to its persisted status
func DerivedStatus(c *model.Competition, now time.Time) model.CompetitionStatus {
	switch CompetitionPhase(c, now) {
	case model.PhaseRegistrationOpen:
		return model.CompetitionStatusRegistrationOpen
	case model.PhaseRunning:
		return model.CompetitionStatusInProgress
	case model.PhaseFinished:
		return model.CompetitionStatusFinished
	default:
		return model.CompetitionStatusPublished
	}
}

// CheckRegion compares the applicant's region with a regional competition's
func CheckRegion(c *model.Competition, applicantRegion *string) RegionVerdict {
	if !c.IsRegional() {
		return RegionUnrestricted
	}
	if c.RegionID == nil || *c.RegionID == "" || applicantRegion == nil || *applicantRegion == "" {
		return RegionUnknown
	}
	if *c.RegionID == *applicantRegion {
		return RegionMatch
	}
	return RegionMismatch
}

// Check returns the first reason the applicant may not apply, or nil.
// Phase is checked first, then an existing active application, then region.
func (e *Evaluator) Check(c *model.Competition, applicantRegion *string, now time.Time, existingNonTerminal bool) error {
	if c == nil {
		return ErrCompetitionNotFound
	}
	if CompetitionPhase(c, now) != model.PhaseRegistrationOpen {
		return ErrRegistrationClosed
	}
	if existingNonTerminal {
		return ErrDuplicateApplication
	}
	switch CheckRegion(c, applicantRegion) {
	case RegionMismatch:
		return ErrRegionMismatch
	case RegionUnknown:
		if !e.AllowUnknownRegion {
			return ErrRegionUnverified
		}
	}
	return nil
}

// CanApply reports whether Check passes
func (e *Evaluator) CanApply(c *model.Competition, applicantRegion *string, now time.Time, existingNonTerminal bool) bool {
	return e.Check(c, applicantRegion, now, existingNonTerminal) == nil
}

// CapacityExceeded reports whether a competition with count accepted entries is full
func CapacityExceeded(c *model.Competition, count int) bool {
	return c.MaxParticipantsOrTeams != nil && count >= *c.MaxParticipantsOrTeams
}

// Roster is the computed membership of a team: the captain plus every member row
type Roster struct {
	CaptainUserID string
	Members       []*model.TeamMember
}

// NewRoster builds the roster of team from its member rows
func NewRoster(team *model.Team, members []*model.TeamMember) Roster {
	return Roster{CaptainUserID: team.CaptainUserID, Members: members}
}

// Contains reports whether userID is the captain or a member
func (r Roster) Contains(userID string) bool {
	if r.CaptainUserID == userID {
		return true
	}
	for _, m := range r.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// NonCaptainCount counts members other than the captain
func (r Roster) NonCaptainCount() int {
	n := 0
	for _, m := range r.Members {
		if m.UserID != r.CaptainUserID {
			n++
		}
	}
	return n
}

// Size counts everyone on the team, captain included
func (r Roster) Size() int {
	return r.NonCaptainCount() + 1
}

// TeamCapacity compares the non-captain roster to the recruiting target
func TeamCapacity(r Roster, info *model.RecruitingInfo) CapacityState {
	if info == nil || info.RequiredMembers == nil {
		return CapacityUnbounded
	}
	count := r.NonCaptainCount()
	switch {
	case count < *info.RequiredMembers:
		return CapacityUnder
	case count == *info.RequiredMembers:
		return CapacityFull
	default:
		return CapacityOver
	}
}
