package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

// JoinRequestRepository defines the interface for join request storage.
// At most one pending request may exist per (team, user, competition).
type JoinRequestRepository interface {
	// Create stores a pending request; a second pending one is database.ErrDuplicate
	Create(ctx context.Context, req *model.JoinRequest) error
	GetByID(ctx context.Context, id string) (*model.JoinRequest, error)
	ListByTeam(ctx context.Context, teamID string, status *model.JoinRequestStatus) ([]*model.JoinRequest, error)
	// UpdateStatus fails with database.ErrConflict when the stored status is not from
	UpdateStatus(ctx context.Context, id string, from, to model.JoinRequestStatus) (*model.JoinRequest, error)
}

// TeamFormationService coordinates recruiting teams and the users asking to join them
type TeamFormationService struct {
	teamRepo        TeamRepository
	applicationRepo ApplicationRepository
	joinRequestRepo JoinRequestRepository
	competitionRepo CompetitionRepository
	onRollbackError func(step string, err error)
}

// TeamFormationServiceConfig holds configuration for the team formation service
type TeamFormationServiceConfig struct {
	TeamRepo        TeamRepository
	ApplicationRepo ApplicationRepository
	JoinRequestRepo JoinRequestRepository
	CompetitionRepo CompetitionRepository
	// OnRollbackError is told when compensating a failed accept fails too
	OnRollbackError func(step string, err error)
}

// NewTeamFormationService creates a new team formation service
func NewTeamFormationService(cfg TeamFormationServiceConfig) *TeamFormationService {
	return &TeamFormationService{
		teamRepo:        cfg.TeamRepo,
		applicationRepo: cfg.ApplicationRepo,
		joinRequestRepo: cfg.JoinRequestRepo,
		competitionRepo: cfg.CompetitionRepo,
		onRollbackError: cfg.OnRollbackError,
	}
}

// ListRecruitingTeams returns the forming team applications of a competition
// whose roster does not already include excludingUserID
func (s *TeamFormationService) ListRecruitingTeams(ctx context.Context, competitionID, excludingUserID string) ([]*model.RecruitingTeam, error) {
	if err := s.requireCompetition(ctx, competitionID); err != nil {
		return nil, err
	}

	status := model.ApplicationStatusForming
	appType := model.ApplicationTypeTeam
	apps, err := s.applicationRepo.ListByCompetition(ctx, competitionID, model.ApplicationFilter{Status: &status, Type: &appType})
	if err != nil {
		return nil, fmt.Errorf("failed to list forming applications: %w", err)
	}

	out := make([]*model.RecruitingTeam, 0, len(apps))
	for _, app := range apps {
		if app.ApplicantTeamID == nil {
			continue
		}
		team, err := s.teamRepo.GetByID(ctx, *app.ApplicantTeamID)
		if err != nil {
			return nil, fmt.Errorf("failed to get team: %w", err)
		}
		if team == nil {
			continue
		}
		roster, err := s.roster(ctx, team)
		if err != nil {
			return nil, err
		}
		if roster.Contains(excludingUserID) {
			continue
		}
		out = append(out, &model.RecruitingTeam{
			ApplicationID: app.ID,
			CompetitionID: app.CompetitionID,
			Team:          team,
			MemberCount:   roster.Size(),
			Recruiting:    app.Recruiting,
			SubmittedOn:   app.SubmittedOn,
		})
	}
	return out, nil
}

// RequestToJoin files a pending request from userID to join teamID for a competition.
// It does not require the team to still be forming.
func (s *TeamFormationService) RequestToJoin(ctx context.Context, userID, teamID, competitionID string) (*model.JoinRequest, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	if err := s.requireCompetition(ctx, competitionID); err != nil {
		return nil, err
	}

	roster, err := s.roster(ctx, team)
	if err != nil {
		return nil, err
	}
	if roster.Contains(userID) {
		return nil, ErrAlreadyMember
	}

	req := &model.JoinRequest{
		TeamID:        teamID,
		UserID:        userID,
		CompetitionID: competitionID,
	}
	if err := s.joinRequestRepo.Create(ctx, req); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrDuplicateRequest
		}
		return nil, fmt.Errorf("failed to create join request: %w", err)
	}
	return req, nil
}

// ListJoinRequests returns a team's join requests to its captain.
// A nil status lists pending requests.
func (s *TeamFormationService) ListJoinRequests(ctx context.Context, captainID, teamID string, status *model.JoinRequestStatus) ([]*model.JoinRequest, error) {
	if _, err := s.captainOf(ctx, captainID, teamID); err != nil {
		return nil, err
	}
	if status == nil {
		pending := model.JoinRequestStatusPending
		status = &pending
	}

	reqs, err := s.joinRequestRepo.ListByTeam(ctx, teamID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	return reqs, nil
}

// ResolveJoinRequest accepts or rejects a join request on behalf of the
// team's captain. Accepting returns the new member row; rejecting returns nil.
//
// Accepting is two writes: the request becomes accepted, then the member row
// is inserted. An existing member row leaves the request accepted and
// reports ErrAlreadyMember. Any other insert failure puts the request back
// to pending, or rejects it when the user has filed a newer pending request
// for the same team and competition in the meantime. Accepting an already accepted request only retries the insert.
//
// It panics on an action other than accept or reject.
func (s *TeamFormationService) ResolveJoinRequest(ctx context.Context, captainID, requestID string, action model.JoinRequestAction) (*model.TeamMember, error) {
	if action != model.JoinRequestAccept && action != model.JoinRequestReject {
		panic(fmt.Sprintf("service: unknown join request action %q", action))
	}

	req, err := s.joinRequestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get join request: %w", err)
	}
	if req == nil {
		return nil, ErrJoinRequestNotFound
	}
	team, err := s.captainOf(ctx, captainID, req.TeamID)
	if err != nil {
		return nil, err
	}

	if action == model.JoinRequestReject {
		if req.Status != model.JoinRequestStatusPending {
			return nil, ErrInvalidTransition
		}
		if _, err := s.joinRequestRepo.UpdateStatus(ctx, req.ID, model.JoinRequestStatusPending, model.JoinRequestStatusRejected); err != nil {
			if errors.Is(err, database.ErrConflict) {
				return nil, ErrInvalidTransition
			}
			return nil, fmt.Errorf("failed to reject join request: %w", err)
		}
		return nil, nil
	}

	switch req.Status {
	case model.JoinRequestStatusAccepted:
		return s.insertMember(ctx, req)
	case model.JoinRequestStatusRejected:
		return nil, ErrInvalidTransition
	}

	if err := s.checkTeamCapacity(ctx, team, req.CompetitionID); err != nil {
		return nil, err
	}
	return s.accept(ctx, req)
}

// accept runs the two-step accept of a pending request
func (s *TeamFormationService) accept(ctx context.Context, req *model.JoinRequest) (*model.TeamMember, error) {
	member := &model.TeamMember{TeamID: req.TeamID, UserID: req.UserID}

	op := database.NewMultiStepOperation().
		AddStep("accept_request",
			func(ctx context.Context) error {
				_, err := s.joinRequestRepo.UpdateStatus(ctx, req.ID, model.JoinRequestStatusPending, model.JoinRequestStatusAccepted)
				return err
			},
			func(ctx context.Context) error {
				_, err := s.joinRequestRepo.UpdateStatus(ctx, req.ID, model.JoinRequestStatusAccepted, model.JoinRequestStatusPending)
				if errors.Is(err, database.ErrDuplicate) {
					// The user filed a newer pending request meanwhile; that one
					// stays and this one is closed
					_, err = s.joinRequestRepo.UpdateStatus(ctx, req.ID, model.JoinRequestStatusAccepted, model.JoinRequestStatusRejected)
				}
				return err
			},
		).
		AddStep("insert_member",
			func(ctx context.Context) error {
				return s.teamRepo.AddMember(ctx, member)
			},
			nil,
		).
		KeepCompletedOn(database.ErrDuplicate)
	if s.onRollbackError != nil {
		op.OnRollbackError(s.onRollbackError)
	}

	err := op.Execute(ctx)
	switch {
	case err == nil:
		return member, nil
	case errors.Is(err, database.ErrDuplicate):
		return nil, ErrAlreadyMember
	case errors.Is(err, database.ErrConflict):
		// A concurrent resolution got there first
		return s.afterLostRace(ctx, req.ID)
	case errors.Is(err, database.ErrNotFound):
		return nil, ErrJoinRequestNotFound
	}
	return nil, fmt.Errorf("%w: failed to accept join request: %w", ErrStoreUnavailable, err)
}

// afterLostRace re-reads a request whose pending to accepted write lost
func (s *TeamFormationService) afterLostRace(ctx context.Context, requestID string) (*model.TeamMember, error) {
	current, err := s.joinRequestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get join request: %w", err)
	}
	if current == nil {
		return nil, ErrJoinRequestNotFound
	}
	if current.Status == model.JoinRequestStatusAccepted {
		return s.insertMember(ctx, current)
	}
	return nil, ErrInvalidTransition
}

// insertMember retries only the member insert of an accepted request
func (s *TeamFormationService) insertMember(ctx context.Context, req *model.JoinRequest) (*model.TeamMember, error) {
	member := &model.TeamMember{TeamID: req.TeamID, UserID: req.UserID}
	if err := s.teamRepo.AddMember(ctx, member); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("%w: failed to add member: %w", ErrStoreUnavailable, err)
	}
	return member, nil
}

// checkTeamCapacity refuses an accept when the team's forming application
// for the competition already has the members it asked for
func (s *TeamFormationService) checkTeamCapacity(ctx context.Context, team *model.Team, competitionID string) error {
	app, err := s.applicationRepo.FindActive(ctx, competitionID, team.ID)
	if err != nil {
		return fmt.Errorf("failed to find team application: %w", err)
	}
	if app == nil || app.Status != model.ApplicationStatusForming {
		return nil
	}

	roster, err := s.roster(ctx, team)
	if err != nil {
		return err
	}
	switch TeamCapacity(roster, app.Recruiting) {
	case CapacityFull, CapacityOver:
		return ErrCapacityExceeded
	}
	return nil
}

func (s *TeamFormationService) roster(ctx context.Context, team *model.Team) (Roster, error) {
	members, err := s.teamRepo.ListMembers(ctx, team.ID)
	if err != nil {
		return Roster{}, fmt.Errorf("failed to list members: %w", err)
	}
	return NewRoster(team, members), nil
}

func (s *TeamFormationService) captainOf(ctx context.Context, actorID, teamID string) (*model.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
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

func (s *TeamFormationService) requireCompetition(ctx context.Context, competitionID string) error {
	c, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return fmt.Errorf("failed to get competition: %w", err)
	}
	if c == nil {
		return ErrCompetitionNotFound
	}
	return nil
}
