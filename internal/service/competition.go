package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

// CompetitionRepository defines the interface for competition storage
type CompetitionRepository interface {
	Create(ctx context.Context, c *model.Competition) error
	GetByID(ctx context.Context, id string) (*model.Competition, error)
	UpdateStatus(ctx context.Context, id string, status model.CompetitionStatus) error
	// Delete removes the competition with its applications and join requests
	// Delete fails with database.ErrInUse while any application of the
	// competition is pending, approved or forming
	Delete(ctx context.Context, id string) error
	// ListForStatusSync returns every competition that is neither draft nor finished
	ListForStatusSync(ctx context.Context) ([]*model.Competition, error)
}

// UserRepository defines read access to federation users
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// CompetitionService handles competition business logic
type CompetitionService struct {
	competitionRepo CompetitionRepository
	applicationRepo ApplicationRepository
	now             func() time.Time
}

// CompetitionServiceConfig holds configuration for the competition service
type CompetitionServiceConfig struct {
	CompetitionRepo CompetitionRepository
	ApplicationRepo ApplicationRepository
	Clock           func() time.Time
}

// NewCompetitionService creates a new competition service
func NewCompetitionService(cfg CompetitionServiceConfig) *CompetitionService {
	return &CompetitionService{
		competitionRepo: cfg.CompetitionRepo,
		applicationRepo: cfg.ApplicationRepo,
		now:             clockOrDefault(cfg.Clock),
	}
}

// Create creates a competition owned by organizerID. The Workflow checks the
// caller's role before calling it.
func (s *CompetitionService) Create(ctx context.Context, organizerID string, req *model.CreateCompetitionRequest) (*model.Competition, error) {
	if errors := req.Validate(); len(errors) > 0 {
		return nil, model.NewValidationError(errors)
	}
	windows, _ := req.Windows()

	status := model.CompetitionStatusDraft
	if req.Publish {
		status = model.CompetitionStatusPublished
	}

	c := &model.Competition{
		Name:                   strings.TrimSpace(req.Name),
		Description:            req.Description,
		DisciplineID:           strings.TrimSpace(req.DisciplineID),
		Type:                   model.CompetitionType(req.Type),
		MaxParticipantsOrTeams: req.MaxParticipantsOrTeams,
		RegistrationStart:      windows.RegistrationStart,
		RegistrationEnd:        windows.RegistrationEnd,
		Start:                  windows.Start,
		End:                    windows.End,
		Status:                 status,
		OrganizerUserID:        organizerID,
	}
	if req.RegionID != nil && strings.TrimSpace(*req.RegionID) != "" {
		region := strings.TrimSpace(*req.RegionID)
		c.RegionID = &region
	}

	if err := s.competitionRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create competition: %w", err)
	}
	return c, nil
}

// Get returns a competition with its phase and approved entry count
func (s *CompetitionService) Get(ctx context.Context, id string) (*model.CompetitionView, error) {
	c, err := s.getCompetition(ctx, id)
	if err != nil {
		return nil, err
	}

	approved, err := s.applicationRepo.CountByStatus(ctx, id, model.ApplicationStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to count approved applications: %w", err)
	}

	now := s.now()
	return &model.CompetitionView{
		Competition:      c,
		Phase:            CompetitionPhase(c, now),
		ApprovedCount:    approved,
		AcceptingEntries: acceptingEntries(c, now) && !CapacityExceeded(c, approved),
	}, nil
}

// Delete removes a competition. Only the organizer may delete it, and only
// while it has no pending, approved or forming applications.
func (s *CompetitionService) Delete(ctx context.Context, actorID, id string) error {
	c, err := s.getCompetition(ctx, id)
	if err != nil {
		return err
	}
	if c.OrganizerUserID != actorID {
		return ErrNotOrganizer
	}

	apps, err := s.applicationRepo.ListByCompetition(ctx, id, model.ApplicationFilter{})
	if err != nil {
		return fmt.Errorf("failed to list applications: %w", err)
	}
	for _, app := range apps {
		if !app.Status.IsTerminal() {
			return ErrHasActiveApplications
		}
	}

	if err := s.competitionRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, database.ErrInUse):
			return ErrHasActiveApplications
		case errors.Is(err, database.ErrNotFound):
			return ErrCompetitionNotFound
		}
		return fmt.Errorf("failed to delete competition: %w", err)
	}
	return nil
}

// SyncStatuses persists the time-derived status of every published
// competition and returns how many changed
func (s *CompetitionService) SyncStatuses(ctx context.Context) (int, error) {
	competitions, err := s.competitionRepo.ListForStatusSync(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list competitions: %w", err)
	}

	now := s.now()
	updated := 0
	for _, c := range competitions {
		derived := DerivedStatus(c, now)
		if derived == c.Status {
			continue
		}
		if err := s.competitionRepo.UpdateStatus(ctx, c.ID, derived); err != nil {
			return updated, fmt.Errorf("failed to update competition %s: %w", c.ID, err)
		}
		updated++
	}
	return updated, nil
}

func (s *CompetitionService) getCompetition(ctx context.Context, id string) (*model.Competition, error) {
	c, err := s.competitionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get competition: %w", err)
	}
	if c == nil {
		return nil, ErrCompetitionNotFound
	}
	return c, nil
}

// acceptingEntries reports whether a competition takes applications at now.
// Draft competitions never do.
func acceptingEntries(c *model.Competition, now time.Time) bool {
	return c.Status != model.CompetitionStatusDraft && CompetitionPhase(c, now) == model.PhaseRegistrationOpen
}

func clockOrDefault(clock func() time.Time) func() time.Time {
	if clock != nil {
		return clock
	}
	return func() time.Time { return time.Now().UTC() }
}
