package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/metrics"
	"github.com/sportfed/arena/internal/model"
)

// Kind classifies a workflow failure
type Kind string

const (
	KindUnauthorized          Kind = "unauthorized"
	KindDuplicateApplication  Kind = "duplicate_application"
	KindDuplicateRequest      Kind = "duplicate_request"
	KindAlreadyMember         Kind = "already_member"
	KindCapacityExceeded      Kind = "capacity_exceeded"
	KindHasActiveApplications Kind = "has_active_applications"
	KindInvalidTransition     Kind = "invalid_transition"
	KindStoreUnavailable      Kind = "store_unavailable"
	KindNotFound              Kind = "not_found"
	KindValidation            Kind = "validation"
	KindNotEligible           Kind = "not_eligible"
	KindInternal              Kind = "internal"
)

var kindMessages = map[Kind]string{
	KindUnauthorized:          "You are not allowed to perform this action",
	KindDuplicateApplication:  "An active application for this competition already exists",
	KindDuplicateRequest:      "A pending join request for this team already exists",
	KindAlreadyMember:         "The user is already on the team",
	KindCapacityExceeded:      "The capacity limit has been reached",
	KindHasActiveApplications: "There are still pending, approved or forming applications",
	KindInvalidTransition:     "This status change is not allowed",
	KindStoreUnavailable:      "The service is temporarily unavailable, please retry",
	KindNotFound:              "The requested resource was not found",
	KindValidation:            "One or more fields failed validation",
	KindNotEligible:           "You are not eligible to apply to this competition",
	KindInternal:              "An unexpected error occurred",
}

// Failure is the only error type the Workflow returns. Message is safe to
// show to the caller; the underlying cause is kept for logging only.
type Failure struct {
	Kind    Kind
	Message string
	Fields  []model.FieldError
	err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.err
}

// Workflow is the entry point of the application and team formation workflow
type Workflow struct {
	competitions *CompetitionService
	applications *ApplicationService
	teams        *TeamService
	formation    *TeamFormationService
	logger       *zap.Logger
	now          func() time.Time
}

// WorkflowConfig holds the stores and policy the workflow is built from
type WorkflowConfig struct {
	Competitions CompetitionRepository
	Applications ApplicationRepository
	Teams        TeamRepository
	JoinRequests JoinRequestRepository
	Users        UserRepository
	Evaluator    *Evaluator
	Clock        func() time.Time
	Logger       *zap.Logger
}

// NewWorkflow wires the competition, application, team and team formation services
func NewWorkflow(cfg WorkflowConfig) *Workflow {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := clockOrDefault(cfg.Clock)

	return &Workflow{
		competitions: NewCompetitionService(CompetitionServiceConfig{
			CompetitionRepo: cfg.Competitions,
			ApplicationRepo: cfg.Applications,
			Clock:           clock,
		}),
		applications: NewApplicationService(ApplicationServiceConfig{
			CompetitionRepo: cfg.Competitions,
			ApplicationRepo: cfg.Applications,
			TeamRepo:        cfg.Teams,
			UserRepo:        cfg.Users,
			Evaluator:       cfg.Evaluator,
			Clock:           clock,
		}),
		teams: NewTeamService(TeamServiceConfig{
			TeamRepo:        cfg.Teams,
			ApplicationRepo: cfg.Applications,
			UserRepo:        cfg.Users,
		}),
		formation: NewTeamFormationService(TeamFormationServiceConfig{
			TeamRepo:        cfg.Teams,
			ApplicationRepo: cfg.Applications,
			JoinRequestRepo: cfg.JoinRequests,
			CompetitionRepo: cfg.Competitions,
			OnRollbackError: func(step string, err error) {
				logger.Error("join request compensation failed", zap.String("step", step), zap.Error(err))
			},
		}),
		logger: logger,
		now:    clock,
	}
}

// ============================================================================
// Competitions
// ============================================================================

// CreateCompetition creates a competition organized by actorID
func (w *Workflow) CreateCompetition(ctx context.Context, actorID string, role model.UserRole, req *model.CreateCompetitionRequest) (*model.Competition, error) {
	start := w.now()
	if !role.CanOrganize() {
		return nil, w.fail("create_competition", start, ErrNotOrganizer)
	}
	c, err := w.competitions.Create(ctx, actorID, req)
	return c, w.fail("create_competition", start, err)
}

// GetCompetition returns a competition with its current phase
func (w *Workflow) GetCompetition(ctx context.Context, competitionID string) (*model.CompetitionView, error) {
	start := w.now()
	view, err := w.competitions.Get(ctx, competitionID)
	return view, w.fail("get_competition", start, err)
}

// DeleteCompetition deletes a competition without active applications
func (w *Workflow) DeleteCompetition(ctx context.Context, actorID, competitionID string) error {
	start := w.now()
	return w.fail("delete_competition", start, w.competitions.Delete(ctx, actorID, competitionID))
}

// SyncCompetitionStatuses persists time-derived competition statuses
func (w *Workflow) SyncCompetitionStatuses(ctx context.Context) (int, error) {
	start := w.now()
	n, err := w.competitions.SyncStatuses(ctx)
	return n, w.fail("sync_competition_statuses", start, err)
}

// ============================================================================
// Applications
// ============================================================================

// SubmitApplication enters the actor, or a team the actor captains, into a competition
func (w *Workflow) SubmitApplication(ctx context.Context, actorID, competitionID string, req *model.SubmitApplicationRequest) (*model.Application, error) {
	start := w.now()
	app, err := w.applications.Submit(ctx, actorID, competitionID, req)
	return app, w.fail("submit_application", start, err)
}

// ListApplications lists a competition's applications for its organizer
func (w *Workflow) ListApplications(ctx context.Context, actorID, competitionID string, filter model.ApplicationFilter) ([]*model.Application, error) {
	start := w.now()
	apps, err := w.applications.ListByCompetition(ctx, actorID, competitionID, filter)
	return apps, w.fail("list_applications", start, err)
}

// ChangeApplicationStatus applies an organizer decision to an application
func (w *Workflow) ChangeApplicationStatus(ctx context.Context, actorID, applicationID string, target model.ApplicationStatus) (*model.Application, error) {
	start := w.now()
	if !target.IsValid() {
		req := model.ChangeApplicationStatusRequest{Status: string(target)}
		return nil, w.fail("change_application_status", start, model.NewValidationError(req.Validate()))
	}
	app, err := w.applications.ChangeStatus(ctx, actorID, applicationID, target)
	return app, w.fail("change_application_status", start, err)
}

// WithdrawApplication cancels an application on behalf of its applicant
func (w *Workflow) WithdrawApplication(ctx context.Context, actorID, applicationID string) (*model.Application, error) {
	start := w.now()
	app, err := w.applications.Withdraw(ctx, actorID, applicationID)
	return app, w.fail("withdraw_application", start, err)
}

// AdvertiseRecruiting updates the recruiting metadata of a forming team application
func (w *Workflow) AdvertiseRecruiting(ctx context.Context, actorID, applicationID string, info *model.RecruitingInfo) (*model.Application, error) {
	start := w.now()
	app, err := w.applications.UpdateRecruiting(ctx, actorID, applicationID, info)
	return app, w.fail("advertise_recruiting", start, err)
}

// CloseRecruiting stops recruiting and hands the team application to the organizer
func (w *Workflow) CloseRecruiting(ctx context.Context, actorID, applicationID string) (*model.Application, error) {
	start := w.now()
	app, err := w.applications.CloseRecruiting(ctx, actorID, applicationID)
	return app, w.fail("close_recruiting", start, err)
}

// ============================================================================
// Team formation
// ============================================================================

// ListRecruitingTeams lists teams recruiting for a competition that the actor is not on
func (w *Workflow) ListRecruitingTeams(ctx context.Context, actorID, competitionID string) ([]*model.RecruitingTeam, error) {
	start := w.now()
	teams, err := w.formation.ListRecruitingTeams(ctx, competitionID, actorID)
	return teams, w.fail("list_recruiting_teams", start, err)
}

// RequestToJoin files a join request from the actor to a team
func (w *Workflow) RequestToJoin(ctx context.Context, actorID, teamID, competitionID string) (*model.JoinRequest, error) {
	start := w.now()
	req, err := w.formation.RequestToJoin(ctx, actorID, teamID, competitionID)
	return req, w.fail("request_to_join", start, err)
}

// ResolveJoinRequest accepts or rejects a join request as the team's captain.
// An action other than accept or reject panics.
func (w *Workflow) ResolveJoinRequest(ctx context.Context, actorID, requestID string, action model.JoinRequestAction) (*model.TeamMember, error) {
	start := w.now()
	member, err := w.formation.ResolveJoinRequest(ctx, actorID, requestID, action)
	return member, w.fail("resolve_join_request", start, err)
}

// ListJoinRequests lists a team's join requests for its captain
func (w *Workflow) ListJoinRequests(ctx context.Context, actorID, teamID string, status *model.JoinRequestStatus) ([]*model.JoinRequest, error) {
	start := w.now()
	reqs, err := w.formation.ListJoinRequests(ctx, actorID, teamID, status)
	return reqs, w.fail("list_join_requests", start, err)
}

// ============================================================================
// Teams
// ============================================================================

// CreateTeam creates a team captained by the actor
func (w *Workflow) CreateTeam(ctx context.Context, actorID string, req *model.CreateTeamRequest) (*model.Team, error) {
	start := w.now()
	team, err := w.teams.Create(ctx, actorID, req)
	return team, w.fail("create_team", start, err)
}

// GetTeam returns a team with its roster and applications
func (w *Workflow) GetTeam(ctx context.Context, teamID string) (*model.TeamDetail, error) {
	start := w.now()
	team, err := w.teams.Get(ctx, teamID)
	return team, w.fail("get_team", start, err)
}

// ListUserTeams returns the teams the actor captains or belongs to
func (w *Workflow) ListUserTeams(ctx context.Context, actorID string) (*model.UserTeams, error) {
	start := w.now()
	teams, err := w.teams.ListForUser(ctx, actorID)
	return teams, w.fail("list_user_teams", start, err)
}

// RenameTeam renames a team
func (w *Workflow) RenameTeam(ctx context.Context, actorID, teamID string, req *model.RenameTeamRequest) (*model.Team, error) {
	start := w.now()
	team, err := w.teams.Rename(ctx, actorID, teamID, req)
	return team, w.fail("rename_team", start, err)
}

// DeleteTeam deletes a team without active applications
func (w *Workflow) DeleteTeam(ctx context.Context, actorID, teamID string) error {
	start := w.now()
	return w.fail("delete_team", start, w.teams.Delete(ctx, actorID, teamID))
}

// AddMember adds a user to a team directly
func (w *Workflow) AddMember(ctx context.Context, actorID, teamID string, req *model.AddTeamMemberRequest) (*model.TeamMember, error) {
	start := w.now()
	member, err := w.teams.AddMember(ctx, actorID, teamID, req)
	return member, w.fail("add_member", start, err)
}

// RemoveMember removes a member row from a team
func (w *Workflow) RemoveMember(ctx context.Context, actorID, teamID, memberID string) error {
	start := w.now()
	return w.fail("remove_member", start, w.teams.RemoveMember(ctx, actorID, teamID, memberID))
}

// ============================================================================
// Failure classification
// ============================================================================

// fail converts err into a *Failure, logs store problems and records the outcome.
// A nil err records success and returns nil.
func (w *Workflow) fail(operation string, start time.Time, err error) error {
	elapsed := w.now().Sub(start)
	if err == nil {
		metrics.RecordWorkflowOutcome(operation, "ok", elapsed)
		return nil
	}

	f := Classify(err)
	metrics.RecordWorkflowOutcome(operation, string(f.Kind), elapsed)

	switch f.Kind {
	case KindStoreUnavailable, KindInternal:
		w.logger.Error("workflow operation failed",
			zap.String("operation", operation),
			zap.String("kind", string(f.Kind)),
			zap.Error(err),
		)
	default:
		w.logger.Debug("workflow operation rejected",
			zap.String("operation", operation),
			zap.String("kind", string(f.Kind)),
			zap.String("reason", err.Error()),
		)
	}
	return f
}

// Classify maps a service error to a Failure
func Classify(err error) *Failure {
	var existing *Failure
	if errors.As(err, &existing) {
		return existing
	}

	var problem *model.ProblemDetails
	if errors.As(err, &problem) && problem.Code == model.ErrCodeValidation {
		return newFailure(KindValidation, kindMessages[KindValidation], problem.Errors, err)
	}

	switch {
	case errors.Is(err, ErrNotOrganizer), errors.Is(err, ErrNotCaptain), errors.Is(err, ErrNotApplicant):
		return newFailure(KindUnauthorized, kindMessages[KindUnauthorized], nil, err)
	case errors.Is(err, ErrDuplicateApplication):
		return newFailure(KindDuplicateApplication, kindMessages[KindDuplicateApplication], nil, err)
	case errors.Is(err, ErrDuplicateRequest):
		return newFailure(KindDuplicateRequest, kindMessages[KindDuplicateRequest], nil, err)
	case errors.Is(err, ErrAlreadyMember):
		return newFailure(KindAlreadyMember, kindMessages[KindAlreadyMember], nil, err)
	case errors.Is(err, ErrCapacityExceeded):
		return newFailure(KindCapacityExceeded, kindMessages[KindCapacityExceeded], nil, err)
	case errors.Is(err, ErrHasActiveApplications):
		return newFailure(KindHasActiveApplications, kindMessages[KindHasActiveApplications], nil, err)
	case errors.Is(err, ErrInvalidTransition):
		return newFailure(KindInvalidTransition, kindMessages[KindInvalidTransition], nil, err)
	case errors.Is(err, ErrStoreUnavailable), database.IsStoreFailure(err):
		return newFailure(KindStoreUnavailable, kindMessages[KindStoreUnavailable], nil, err)
	case errors.Is(err, ErrCannotAddCaptain):
		return newFailure(KindValidation, kindMessages[KindValidation], []model.FieldError{{Field: "user_id", Message: ErrCannotAddCaptain.Error()}}, err)
	}

	for _, sentinel := range notFoundErrors {
		if errors.Is(err, sentinel) {
			return newFailure(KindNotFound, sentinel.Error(), nil, err)
		}
	}
	for _, sentinel := range notEligibleErrors {
		if errors.Is(err, sentinel) {
			return newFailure(KindNotEligible, sentinel.Error(), nil, err)
		}
	}

	return newFailure(KindInternal, kindMessages[KindInternal], nil, err)
}

var notFoundErrors = []error{
	ErrCompetitionNotFound,
	ErrApplicationNotFound,
	ErrTeamNotFound,
	ErrMemberNotFound,
	ErrJoinRequestNotFound,
	ErrUserNotFound,
}

var notEligibleErrors = []error{
	ErrRegistrationClosed,
	ErrRegionMismatch,
	ErrRegionUnverified,
}

func newFailure(kind Kind, message string, fields []model.FieldError, err error) *Failure {
	return &Failure{Kind: kind, Message: message, Fields: fields, err: err}
}
