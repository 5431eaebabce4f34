package memory

import (
	"context"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

// ApplicationRepository stores applications
type ApplicationRepository struct {
	s *Store
}

// activeExistsLocked reports whether another non-terminal application holds
// the (competition, applicant) slot
func (r *ApplicationRepository) activeExistsLocked(competitionID, applicantID, exceptID string) bool {
	for id, app := range r.s.applications {
		if id == exceptID || app.CompetitionID != competitionID || app.Status.IsTerminal() {
			continue
		}
		if app.ApplicantID() == applicantID {
			return true
		}
	}
	return false
}

// Create inserts an application. A second non-terminal application for the
// same competition and applicant fails with database.ErrDuplicate.
func (r *ApplicationRepository) Create(_ context.Context, app *model.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if !app.Status.IsTerminal() && r.activeExistsLocked(app.CompetitionID, app.ApplicantID(), "") {
		return database.ErrDuplicate
	}

	now := r.s.now()
	app.ID = newID()
	app.SubmittedOn = now
	app.UpdatedOn = now
	r.s.applications[app.ID] = *cloneApplication(*app)
	return nil
}

// GetByID retrieves an application by ID
func (r *ApplicationRepository) GetByID(_ context.Context, id string) (*model.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	app, ok := r.s.applications[id]
	if !ok {
		return nil, nil
	}
	return cloneApplication(app), nil
}

// ListByCompetition lists a competition's applications, newest first
func (r *ApplicationRepository) ListByCompetition(_ context.Context, competitionID string, filter model.ApplicationFilter) ([]*model.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Application, 0)
	for _, app := range r.s.applications {
		if app.CompetitionID != competitionID {
			continue
		}
		if filter.Status != nil && app.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && app.Type != *filter.Type {
			continue
		}
		out = append(out, cloneApplication(app))
	}
	sortApplications(out)
	return out, nil
}

// ListByTeam lists every application a team has submitted, newest first
func (r *ApplicationRepository) ListByTeam(_ context.Context, teamID string) ([]*model.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Application, 0)
	for _, app := range r.s.applications {
		if app.ApplicantTeamID != nil && *app.ApplicantTeamID == teamID {
			out = append(out, cloneApplication(app))
		}
	}
	sortApplications(out)
	return out, nil
}

// FindActive returns the non-terminal application for (competition, applicant), if any
func (r *ApplicationRepository) FindActive(_ context.Context, competitionID, applicantID string) (*model.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, app := range r.s.applications {
		if app.CompetitionID == competitionID && !app.Status.IsTerminal() && app.ApplicantID() == applicantID {
			return cloneApplication(app), nil
		}
	}
	return nil, nil
}

// CountByStatus counts a competition's applications in one status
func (r *ApplicationRepository) CountByStatus(_ context.Context, competitionID string, status model.ApplicationStatus) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for _, app := range r.s.applications {
		if app.CompetitionID == competitionID && app.Status == status {
			count++
		}
	}
	return count, nil
}

// UpdateStatus moves an application from one status to another. It fails with
// database.ErrConflict when the stored status is no longer from, and with
// database.ErrDuplicate when reactivating would collide with another
// non-terminal application.
func (r *ApplicationRepository) UpdateStatus(_ context.Context, id string, from, to model.ApplicationStatus) (*model.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.moveLocked(id, from, to, false)
}

// Approve moves an application from from to approved. The competition's
// capacity is counted under the same lock as the write, so a competition with
// as many approved applications as it admits fails with database.ErrLimitReached.
func (r *ApplicationRepository) Approve(_ context.Context, id string, from model.ApplicationStatus) (*model.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.moveLocked(id, from, model.ApplicationStatusApproved, true)
}

func (r *ApplicationRepository) moveLocked(id string, from, to model.ApplicationStatus, withinCapacity bool) (*model.Application, error) {
	app, ok := r.s.applications[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if app.Status != from {
		return nil, database.ErrConflict
	}
	if withinCapacity && r.fullLocked(app.CompetitionID) {
		return nil, database.ErrLimitReached
	}
	if from.IsTerminal() && !to.IsTerminal() && r.activeExistsLocked(app.CompetitionID, app.ApplicantID(), id) {
		return nil, database.ErrDuplicate
	}

	app.Status = to
	app.UpdatedOn = r.s.now()
	r.s.applications[id] = app
	return cloneApplication(app), nil
}

// fullLocked reports whether a competition already approved as many
// applications as it admits
func (r *ApplicationRepository) fullLocked(competitionID string) bool {
	c, ok := r.s.competitions[competitionID]
	if !ok || c.MaxParticipantsOrTeams == nil {
		return false
	}
	approved := 0
	for _, app := range r.s.applications {
		if app.CompetitionID == competitionID && app.Status == model.ApplicationStatusApproved {
			approved++
		}
	}
	return approved >= *c.MaxParticipantsOrTeams
}

// UpdateRecruiting replaces the recruiting advertisement of a forming application
func (r *ApplicationRepository) UpdateRecruiting(_ context.Context, id string, info *model.RecruitingInfo) (*model.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	app, ok := r.s.applications[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if app.Status != model.ApplicationStatusForming {
		return nil, database.ErrConflict
	}
	app.Recruiting = cloneRecruiting(info)
	app.UpdatedOn = r.s.now()
	r.s.applications[id] = app
	return cloneApplication(app), nil
}
