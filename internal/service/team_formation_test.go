package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

type formationFixture struct {
	team     *model.Team
	request  *model.JoinRequest
	members  []*model.TeamMember
	teamRepo *mockTeamRepo
	appRepo  *mockApplicationRepo
	joinRepo *mockJoinRequestRepo
	svc      *TeamFormationService
	statuses []string
}

// newFormationFixture builds a service whose join request store behaves like
// a conditional write over a single request
func newFormationFixture(status model.JoinRequestStatus) *formationFixture {
	f := &formationFixture{
		team:    &model.Team{ID: "team-1", CaptainUserID: "captain"},
		request: &model.JoinRequest{ID: "req-1", TeamID: "team-1", UserID: "user-1", CompetitionID: "comp-1", Status: status},
	}
	f.teamRepo = teamRepoWith(f.team)
	f.teamRepo.listMembersFunc = func(ctx context.Context, teamID string) ([]*model.TeamMember, error) {
		return f.members, nil
	}
	f.teamRepo.addMemberFunc = func(ctx context.Context, member *model.TeamMember) error {
		for _, m := range f.members {
			if m.UserID == member.UserID {
				return database.ErrDuplicate
			}
		}
		f.members = append(f.members, member)
		return nil
	}
	f.appRepo = &mockApplicationRepo{}
	f.joinRepo = &mockJoinRequestRepo{
		getByIDFunc: func(ctx context.Context, id string) (*model.JoinRequest, error) {
			if id != f.request.ID {
				return nil, nil
			}
			copied := *f.request
			return &copied, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, from, to model.JoinRequestStatus) (*model.JoinRequest, error) {
			if f.request.Status != from {
				return nil, database.ErrConflict
			}
			f.request.Status = to
			f.statuses = append(f.statuses, fmt.Sprintf("%s->%s", from, to))
			copied := *f.request
			return &copied, nil
		},
	}
	f.svc = NewTeamFormationService(TeamFormationServiceConfig{
		TeamRepo:        f.teamRepo,
		ApplicationRepo: f.appRepo,
		JoinRequestRepo: f.joinRepo,
		CompetitionRepo: competitionRepoWith(testCompetition()),
	})
	return f
}

func TestResolveJoinRequest_AcceptPending(t *testing.T) {
	t.Parallel()
	f := newFormationFixture(model.JoinRequestStatusPending)

	member, err := f.svc.ResolveJoinRequest(context.Background(), "captain", "req-1", model.JoinRequestAccept)
	require.NoError(t, err)
	assert.Equal(t, "user-1", member.UserID)
	assert.Equal(t, model.JoinRequestStatusAccepted, f.request.Status)
	assert.Len(t, f.members, 1)
}

func TestResolveJoinRequest_NonCaptainIsUnauthorized(t *testing.T) {
	t.Parallel()
	f := newFormationFixture(model.JoinRequestStatusPending)

	_, err := f.svc.ResolveJoinRequest(context.Background(), "user-1", "req-1", model.JoinRequestAccept)
	assert.ErrorIs(t, err, ErrNotCaptain)
	assert.Equal(t, model.JoinRequestStatusPending, f.request.Status)
}

func TestResolveJoinRequest_UnknownActionPanics(t *testing.T) {
	t.Parallel()
	f := newFormationFixture(model.JoinRequestStatusPending)

	assert.Panics(t, func() {
		_, _ = f.svc.ResolveJoinRequest(context.Background(), "captain", "req-1", model.JoinRequestAction("maybe"))
	})
}

func TestResolveJoinRequest_Reject(t *testing.T) {
	t.Parallel()
	f := newFormationFixture(model.JoinRequestStatusPending)

	member, err := f.svc.ResolveJoinRequest(context.Background(), "captain", "req-1", model.JoinRequestReject)
	require.NoError(t, err)
	assert.Nil(t, member)
	assert.Equal(t, model.JoinRequestStatusRejected, f.request.Status)

	_, err = f.svc.ResolveJoinRequest(context.Background(), "captain", "req-1", model.JoinRequestReject)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestResolveJoinRequest_AcceptRejectedIsInvalid(t *testing.T) {
	t.Parallel()
	f := newFormationFixture(model.JoinRequestStatusRejected)

	_, err := f.svc.ResolveJoinRequest(context.Background(), "captain", "req-1", model.JoinRequestAccept)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, f.members)
}

func TestResolveJoinRequest_AcceptAlreadyAcceptedRetriesInsert(t *testing.T) {
	t.Parallel()
	f := newFormationFixture(model.JoinRequestStatusAccepted)

	member, err := f.svc.ResolveJoinRequest(context.Background(), "captain", "req-1", model.JoinRequestAccept)
	require.NoError(t, err)
	assert.NotNil(t, member)
	assert.Empty(t, f.statuses, "no status write when only the insert is retried")

	_, err = f.svc.ResolveJoinRequest(context.Background(), "captain", "req-1", model.JoinRequestAccept)
	assert.ErrorIs(t, err, ErrAlreadyMember)
	assert.Len(t, f.members, 1)
}

func TestResolveJoinRequest_DuplicateMemberKeepsAccepted(t *testing.T) {
	t.Parallel()
	f := newFormationFixture(model.JoinRequestStatusPending)
	f.members = []*model.TeamMember{{ID: "m-1", TeamID: "team-1", UserID: "user-1"}}
	f.teamRepo.listMembersFunc = func(ctx context.Context, teamID string) ([]*model.TeamMember, error) {
		return nil, nil
	}

	_, err := f.svc.ResolveJoinRequest(context.Background(), "captain", "req-1", model.JoinRequestAccept)
	assert.ErrorIs(t, err, ErrAlreadyMember)
	assert.Equal(t, model.JoinRequestStatusAccepted, f.request.Status)
	assert.Equal(t, []string{"pending->accepted"}, f.statuses)
}

func TestResolveJoinRequest_InsertFailureIsCompensated(t *testing.T) {
	t.Parallel()
	f := newFormationFixture(model.JoinRequestStatusPending)
	f.teamRepo.addMemberFunc = func(ctx context.Context, member *model.TeamMember) error {
		return fmt.Errorf("%w: connection reset", database.ErrConnection)
	}

	_, err := f.svc.ResolveJoinRequest(context.Background(), "captain", "req-1", model.JoinRequestAccept)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, model.JoinRequestStatusPending, f.request.Status)
	assert.Equal(t, []string{"pending->accepted", "accepted->pending"}, f.statuses)
}

func TestResolveJoinRequest_CompensationFailureIsReported(t *testing.T) {
	t.Parallel()
	f := newFormationFixture(model.JoinRequestStatusPending)
	f.teamRepo.addMemberFunc = func(ctx context.Context, member *model.TeamMember) error {
		return database.ErrQuery
	}
	calls := 0
	f.joinRepo.updateStatusFunc = func(ctx context.Context, id string, from, to model.JoinRequestStatus) (*model.JoinRequest, error) {
		calls++
		if calls == 1 {
			f.request.Status = to
			return f.request, nil
		}
		return nil, database.ErrConnection
	}
	var failedStep string
	f.svc.onRollbackError = func(step string, err error) { failedStep = step }

	_, err := f.svc.ResolveJoinRequest(context.Background(), "captain", "req-1", model.JoinRequestAccept)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, "accept_request", failedStep)
}

func TestResolveJoinRequest_CompensationYieldsToNewerPendingRequest(t *testing.T) {
	t.Parallel()
	f := newFormationFixture(model.JoinRequestStatusPending)
	f.teamRepo.addMemberFunc = func(ctx context.Context, member *model.TeamMember) error {
		return database.ErrConnection
	}
	conditional := f.joinRepo.updateStatusFunc
	f.joinRepo.updateStatusFunc = func(ctx context.Context, id string, from, to model.JoinRequestStatus) (*model.JoinRequest, error) {
		if to == model.JoinRequestStatusPending {
			// The user filed a fresh request while this one was accepted
			return nil, database.ErrDuplicate
		}
		return conditional(ctx, id, from, to)
	}
	rollbackFailed := false
	f.svc.onRollbackError = func(step string, err error) { rollbackFailed = true }

	_, err := f.svc.ResolveJoinRequest(context.Background(), "captain", "req-1", model.JoinRequestAccept)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.False(t, rollbackFailed)
	assert.Equal(t, model.JoinRequestStatusRejected, f.request.Status)
	assert.Equal(t, []string{"pending->accepted", "accepted->rejected"}, f.statuses)
	assert.Empty(t, f.members)
}

func TestResolveJoinRequest_LostRaceRetriesInsertOnly(t *testing.T) {
	t.Parallel()
	f := newFormationFixture(model.JoinRequestStatusPending)
	// Another captain session accepts between our read and our write
	f.joinRepo.updateStatusFunc = func(ctx context.Context, id string, from, to model.JoinRequestStatus) (*model.JoinRequest, error) {
		f.request.Status = model.JoinRequestStatusAccepted
		return nil, database.ErrConflict
	}

	member, err := f.svc.ResolveJoinRequest(context.Background(), "captain", "req-1", model.JoinRequestAccept)
	require.NoError(t, err)
	assert.NotNil(t, member)
	assert.Len(t, f.members, 1)
}

func TestResolveJoinRequest_FullTeamIsCapacityExceeded(t *testing.T) {
	t.Parallel()
	f := newFormationFixture(model.JoinRequestStatusPending)
	f.members = []*model.TeamMember{{UserID: "u-a"}, {UserID: "u-b"}}
	f.appRepo.findActiveFunc = func(ctx context.Context, competitionID, applicantID string) (*model.Application, error) {
		assert.Equal(t, "team-1", applicantID)
		app := formingTeamApplication()
		return app, nil
	}

	_, err := f.svc.ResolveJoinRequest(context.Background(), "captain", "req-1", model.JoinRequestAccept)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, model.JoinRequestStatusPending, f.request.Status)
}

func TestRequestToJoin(t *testing.T) {
	t.Parallel()
	f := newFormationFixture(model.JoinRequestStatusPending)
	f.members = []*model.TeamMember{{UserID: "member"}}

	_, err := f.svc.RequestToJoin(context.Background(), "captain", "team-1", "comp-1")
	assert.ErrorIs(t, err, ErrAlreadyMember)

	_, err = f.svc.RequestToJoin(context.Background(), "member", "team-1", "comp-1")
	assert.ErrorIs(t, err, ErrAlreadyMember)

	_, err = f.svc.RequestToJoin(context.Background(), "newcomer", "missing-team", "comp-1")
	assert.ErrorIs(t, err, ErrTeamNotFound)

	f.joinRepo.createFunc = func(ctx context.Context, req *model.JoinRequest) error {
		return database.ErrDuplicate
	}
	_, err = f.svc.RequestToJoin(context.Background(), "newcomer", "team-1", "comp-1")
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestListJoinRequests_DefaultsToPending(t *testing.T) {
	t.Parallel()
	f := newFormationFixture(model.JoinRequestStatusPending)
	var got *model.JoinRequestStatus
	f.joinRepo.listByTeamFunc = func(ctx context.Context, teamID string, status *model.JoinRequestStatus) ([]*model.JoinRequest, error) {
		got = status
		return nil, nil
	}

	_, err := f.svc.ListJoinRequests(context.Background(), "user-1", "team-1", nil)
	assert.ErrorIs(t, err, ErrNotCaptain)

	_, err = f.svc.ListJoinRequests(context.Background(), "captain", "team-1", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.JoinRequestStatusPending, *got)
}
