package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

// TeamRepository defines the interface for team storage. Member rows never
// include the captain; AddMember reports an existing (team, user) row as
// database.ErrDuplicate.
type TeamRepository interface {
	Create(ctx context.Context, team *model.Team) error
	GetByID(ctx context.Context, id string) (*model.Team, error)
	Rename(ctx context.Context, id, name string) (*model.Team, error)
	// Delete removes the team with its join requests, member rows and applications
	// Delete fails with database.ErrInUse while any application of the team
	// is pending, approved or forming
	Delete(ctx context.Context, id string) error
	ListByCaptain(ctx context.Context, userID string) ([]*model.Team, error)
	ListByMember(ctx context.Context, userID string) ([]*model.Team, error)
	ListMembers(ctx context.Context, teamID string) ([]*model.TeamMember, error)
	GetMember(ctx context.Context, memberID string) (*model.TeamMember, error)
	AddMember(ctx context.Context, member *model.TeamMember) error
	RemoveMember(ctx context.Context, memberID string) error
}

// TeamService handles team lifecycle and direct roster management
type TeamService struct {
	teamRepo        TeamRepository
	applicationRepo ApplicationRepository
	userRepo        UserRepository
}

// TeamServiceConfig holds configuration for the team service
type TeamServiceConfig struct {
	TeamRepo        TeamRepository
	ApplicationRepo ApplicationRepository
	UserRepo        UserRepository
}

// NewTeamService creates a new team service
func NewTeamService(cfg TeamServiceConfig) *TeamService {
	return &TeamService{
		teamRepo:        cfg.TeamRepo,
		applicationRepo: cfg.ApplicationRepo,
		userRepo:        cfg.UserRepo,
	}
}

// Create creates a team captained by captainID
func (s *TeamService) Create(ctx context.Context, captainID string, req *model.CreateTeamRequest) (*model.Team, error) {
	if errors := req.Validate(); len(errors) > 0 {
		return nil, model.NewValidationError(errors)
	}

	team := &model.Team{
		Name:          strings.TrimSpace(req.Name),
		CaptainUserID: captainID,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

// Get returns a team with its member rows and applications, newest first
func (s *TeamService) Get(ctx context.Context, teamID string) (*model.TeamDetail, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	members, err := s.teamRepo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	apps, err := s.applicationRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	return &model.TeamDetail{Team: team, Members: members, Applications: apps}, nil
}

// ListForUser splits the user's teams into the ones they captain and the ones they belong to
func (s *TeamService) ListForUser(ctx context.Context, userID string) (*model.UserTeams, error) {
	captain, err := s.teamRepo.ListByCaptain(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list captained teams: %w", err)
	}
	member, err := s.teamRepo.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list member teams: %w", err)
	}
	return &model.UserTeams{Captain: captain, Member: member}, nil
}

// Rename renames a team. Captain only.
func (s *TeamService) Rename(ctx context.Context, actorID, teamID string, req *model.RenameTeamRequest) (*model.Team, error) {
	if errors := req.Validate(); len(errors) > 0 {
		return nil, model.NewValidationError(errors)
	}
	if _, err := s.captainOf(ctx, actorID, teamID); err != nil {
		return nil, err
	}

	team, err := s.teamRepo.Rename(ctx, teamID, strings.TrimSpace(req.Name))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to rename team: %w", err)
	}
	return team, nil
}

// AddMember adds a user to the roster directly. Captain only.
func (s *TeamService) AddMember(ctx context.Context, actorID, teamID string, req *model.AddTeamMemberRequest) (*model.TeamMember, error) {
	if errors := req.Validate(); len(errors) > 0 {
		return nil, model.NewValidationError(errors)
	}
	team, err := s.captainOf(ctx, actorID, teamID)
	if err != nil {
		return nil, err
	}
	if req.UserID == team.CaptainUserID {
		return nil, ErrCannotAddCaptain
	}

	if s.userRepo != nil {
		u, err := s.userRepo.GetByID(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if u == nil {
			return nil, ErrUserNotFound
		}
	}

	member := &model.TeamMember{TeamID: teamID, UserID: req.UserID}
	if err := s.teamRepo.AddMember(ctx, member); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return member, nil
}

// RemoveMember deletes a member row of the team. Captain only.
func (s *TeamService) RemoveMember(ctx context.Context, actorID, teamID, memberID string) error {
	if _, err := s.captainOf(ctx, actorID, teamID); err != nil {
		return err
	}

	member, err := s.teamRepo.GetMember(ctx, memberID)
	if err != nil {
		return fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil || member.TeamID != teamID {
		return ErrMemberNotFound
	}

	if err := s.teamRepo.RemoveMember(ctx, memberID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// Delete removes a team and everything attached to it. Captain only, and
// refused while any of its applications is pending, approved or forming.
func (s *TeamService) Delete(ctx context.Context, actorID, teamID string) error {
	if _, err := s.captainOf(ctx, actorID, teamID); err != nil {
		return err
	}

	apps, err := s.applicationRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to list applications: %w", err)
	}
	for _, app := range apps {
		if !app.Status.IsTerminal() {
			return ErrHasActiveApplications
		}
	}

	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		switch {
		case errors.Is(err, database.ErrInUse):
			// An application arrived after the check above
			return ErrHasActiveApplications
		case errors.Is(err, database.ErrNotFound):
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return nil
}

func (s *TeamService) getTeam(ctx context.Context, teamID string) (*model.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	return team, nil
}

// captainOf loads the team and checks that actorID captains it
func (s *TeamService) captainOf(ctx context.Context, actorID, teamID string) (*model.Team, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.CaptainUserID != actorID {
		return nil, ErrNotCaptain
	}
	return team, nil
}
