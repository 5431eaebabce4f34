package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

// ApplicationRepository defines the interface for application storage.
// At most one pending, approved or forming application may exist per
// (competition, applicant); Create and UpdateStatus report a violation
// as database.ErrDuplicate.
type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	GetByID(ctx context.Context, id string) (*model.Application, error)
	ListByCompetition(ctx context.Context, competitionID string, filter model.ApplicationFilter) ([]*model.Application, error)
	ListByTeam(ctx context.Context, teamID string) ([]*model.Application, error)
	FindActive(ctx context.Context, competitionID, applicantID string) (*model.Application, error)
	CountByStatus(ctx context.Context, competitionID string, status model.ApplicationStatus) (int, error)
	// UpdateStatus fails with database.ErrConflict when the stored status is not from
	UpdateStatus(ctx context.Context, id string, from, to model.ApplicationStatus) (*model.Application, error)
	// Approve is UpdateStatus into approved with the competition's capacity
	// checked in the same atomic write; a full competition fails with
	// database.ErrLimitReached
	Approve(ctx context.Context, id string, from model.ApplicationStatus) (*model.Application, error)
	// UpdateRecruiting fails with database.ErrConflict unless the application is forming
	UpdateRecruiting(ctx context.Context, id string, info *model.RecruitingInfo) (*model.Application, error)
}

// ApplicationService handles submission and status changes of applications
type ApplicationService struct {
	competitionRepo CompetitionRepository
	applicationRepo ApplicationRepository
	teamRepo        TeamRepository
	userRepo        UserRepository
	evaluator       *Evaluator
	now             func() time.Time
}

// ApplicationServiceConfig holds configuration for the application service
type ApplicationServiceConfig struct {
	CompetitionRepo CompetitionRepository
	ApplicationRepo ApplicationRepository
	TeamRepo        TeamRepository
	UserRepo        UserRepository
	Evaluator       *Evaluator
	Clock           func() time.Time
}

// NewApplicationService creates a new application service
func NewApplicationService(cfg ApplicationServiceConfig) *ApplicationService {
	evaluator := cfg.Evaluator
	if evaluator == nil {
		evaluator = NewEvaluator(true)
	}
	return &ApplicationService{
		competitionRepo: cfg.CompetitionRepo,
		applicationRepo: cfg.ApplicationRepo,
		teamRepo:        cfg.TeamRepo,
		userRepo:        cfg.UserRepo,
		evaluator:       evaluator,
		now:             clockOrDefault(cfg.Clock),
	}
}

// Submit enters actorID, or a team actorID captains, into a competition.
// The gate runs eligibility, then capacity, then the insert.
func (s *ApplicationService) Submit(ctx context.Context, actorID, competitionID string, req *model.SubmitApplicationRequest) (*model.Application, error) {
	if errors := req.Validate(); len(errors) > 0 {
		return nil, model.NewValidationError(errors)
	}

	c, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get competition: %w", err)
	}
	if c == nil {
		return nil, ErrCompetitionNotFound
	}
	if c.Status == model.CompetitionStatusDraft {
		return nil, ErrRegistrationClosed
	}

	app := &model.Application{
		CompetitionID: competitionID,
		Type:          model.ApplicationType(req.Type),
		Status:        model.ApplicationStatusPending,
	}

	switch app.Type {
	case model.ApplicationTypeTeam:
		team, err := s.teamRepo.GetByID(ctx, *req.TeamID)
		if err != nil {
			return nil, fmt.Errorf("failed to get team: %w", err)
		}
		if team == nil {
			return nil, ErrTeamNotFound
		}
		if team.CaptainUserID != actorID {
			return nil, ErrNotCaptain
		}
		app.ApplicantTeamID = &team.ID
		if req.Recruiting != nil {
			app.Status = model.ApplicationStatusForming
			app.Recruiting = req.Recruiting
		}
	default:
		app.ApplicantUserID = &actorID
	}

	// Team entries are gated on the captain's region
	region, err := s.regionOf(ctx, actorID)
	if err != nil {
		return nil, err
	}

	existing, err := s.applicationRepo.FindActive(ctx, competitionID, app.ApplicantID())
	if err != nil {
		return nil, fmt.Errorf("failed to check existing applications: %w", err)
	}
	if err := s.evaluator.Check(c, region, s.now(), existing != nil); err != nil {
		return nil, err
	}

	approved, err := s.applicationRepo.CountByStatus(ctx, competitionID, model.ApplicationStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to count approved applications: %w", err)
	}
	if CapacityExceeded(c, approved) {
		return nil, ErrCapacityExceeded
	}

	if err := s.applicationRepo.Create(ctx, app); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrDuplicateApplication
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return app, nil
}

// ListByCompetition returns a competition's applications to its organizer, newest first
func (s *ApplicationService) ListByCompetition(ctx context.Context, actorID, competitionID string, filter model.ApplicationFilter) ([]*model.Application, error) {
	c, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get competition: %w", err)
	}
	if c == nil {
		return nil, ErrCompetitionNotFound
	}
	if c.OrganizerUserID != actorID {
		return nil, ErrNotOrganizer
	}

	apps, err := s.applicationRepo.ListByCompetition(ctx, competitionID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// ChangeStatus applies an organizer decision. Moving into approved
// re-checks the competition's capacity, first from the current count and then
// inside the store's write.
func (s *ApplicationService) ChangeStatus(ctx context.Context, actorID, applicationID string, target model.ApplicationStatus) (*model.Application, error) {
	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	c, err := s.competitionRepo.GetByID(ctx, app.CompetitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get competition: %w", err)
	}
	if c == nil {
		return nil, ErrCompetitionNotFound
	}
	if c.OrganizerUserID != actorID {
		return nil, ErrNotOrganizer
	}

	if !CanTransition(app.Status, target, ActorOrganizer) {
		return nil, ErrInvalidTransition
	}

	if target == model.ApplicationStatusApproved {
		approved, err := s.applicationRepo.CountByStatus(ctx, c.ID, model.ApplicationStatusApproved)
		if err != nil {
			return nil, fmt.Errorf("failed to count approved applications: %w", err)
		}
		if CapacityExceeded(c, approved) {
			return nil, ErrCapacityExceeded
		}
	}

	return s.updateStatus(ctx, app, target)
}

// Withdraw cancels an application on behalf of its applicant. For team
// applications the applicant is the captain.
func (s *ApplicationService) Withdraw(ctx context.Context, actorID, applicationID string) (*model.Application, error) {
	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if app.Type == model.ApplicationTypeTeam {
		if _, err := s.captainTeam(ctx, app, actorID); err != nil {
			if errors.Is(err, ErrNotCaptain) {
				return nil, ErrNotApplicant
			}
			return nil, err
		}
	} else if app.ApplicantUserID == nil || *app.ApplicantUserID != actorID {
		return nil, ErrNotApplicant
	}

	if !CanTransition(app.Status, model.ApplicationStatusCancelled, ActorApplicant) {
		return nil, ErrInvalidTransition
	}
	return s.updateStatus(ctx, app, model.ApplicationStatusCancelled)
}

// CloseRecruiting moves a forming team application to pending
func (s *ApplicationService) CloseRecruiting(ctx context.Context, actorID, applicationID string) (*model.Application, error) {
	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.captainTeam(ctx, app, actorID); err != nil {
		return nil, err
	}
	if !CanTransition(app.Status, model.ApplicationStatusPending, ActorCaptain) {
		return nil, ErrInvalidTransition
	}
	return s.updateStatus(ctx, app, model.ApplicationStatusPending)
}

// UpdateRecruiting replaces the advertisement of a forming team application
func (s *ApplicationService) UpdateRecruiting(ctx context.Context, actorID, applicationID string, info *model.RecruitingInfo) (*model.Application, error) {
	if info == nil {
		info = &model.RecruitingInfo{}
	}
	info.Normalize()
	if errors := info.Validate(); len(errors) > 0 {
		return nil, model.NewValidationError(errors)
	}

	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.captainTeam(ctx, app, actorID); err != nil {
		return nil, err
	}
	if app.Status != model.ApplicationStatusForming {
		return nil, ErrInvalidTransition
	}

	updated, err := s.applicationRepo.UpdateRecruiting(ctx, app.ID, info)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrConflict):
			return nil, ErrInvalidTransition
		case errors.Is(err, database.ErrNotFound):
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to update recruiting: %w", err)
	}
	return updated, nil
}

// updateStatus writes a transition. Approvals go through the store's
// capacity-checked write.
func (s *ApplicationService) updateStatus(ctx context.Context, app *model.Application, target model.ApplicationStatus) (*model.Application, error) {
	var updated *model.Application
	var err error
	if target == model.ApplicationStatusApproved {
		updated, err = s.applicationRepo.Approve(ctx, app.ID, app.Status)
	} else {
		updated, err = s.applicationRepo.UpdateStatus(ctx, app.ID, app.Status, target)
	}
	if err != nil {
		switch {
		case errors.Is(err, database.ErrConflict):
			// Someone else moved the application first
			return nil, ErrInvalidTransition
		case errors.Is(err, database.ErrLimitReached):
			return nil, ErrCapacityExceeded
		case errors.Is(err, database.ErrDuplicate):
			return nil, ErrDuplicateApplication
		case errors.Is(err, database.ErrNotFound):
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to update application status: %w", err)
	}
	return updated, nil
}

func (s *ApplicationService) getApplication(ctx context.Context, id string) (*model.Application, error) {
	app, err := s.applicationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	if app == nil {
		return nil, ErrApplicationNotFound
	}
	return app, nil
}

// captainTeam returns the applicant team of app when actorID captains it
func (s *ApplicationService) captainTeam(ctx context.Context, app *model.Application, actorID string) (*model.Team, error) {
	if app.ApplicantTeamID == nil {
		return nil, ErrNotCaptain
	}
	team, err := s.teamRepo.GetByID(ctx, *app.ApplicantTeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	if team.CaptainUserID != actorID {
		return nil, ErrNotCaptain
	}
	return team, nil
}

// regionOf returns the user's region; an unknown user has no region
func (s *ApplicationService) regionOf(ctx context.Context, userID string) (*string, error) {
	if s.userRepo == nil {
		return nil, nil
	}
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return nil, nil
	}
	return u.RegionID, nil
}
