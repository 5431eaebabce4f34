package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

func strPtr(s string) *string { return &s }

func newRepos(t *testing.T) *Repositories {
	t.Helper()
	return NewRepositories(NewStore())
}

func individualApp(competitionID, userID string, status model.ApplicationStatus) *model.Application {
	return &model.Application{
		CompetitionID:   competitionID,
		Type:            model.ApplicationTypeIndividual,
		ApplicantUserID: strPtr(userID),
		Status:          status,
	}
}

// ============================================================================
// Application Tests
// ============================================================================

func TestApplicationRepository_Create_RejectsSecondActive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := newRepos(t)

	require.NoError(t, repos.Applications.Create(ctx, individualApp("c1", "u1", model.ApplicationStatusPending)))

	err := repos.Applications.Create(ctx, individualApp("c1", "u1", model.ApplicationStatusPending))
	assert.ErrorIs(t, err, database.ErrDuplicate)

	// Different competition is fine
	require.NoError(t, repos.Applications.Create(ctx, individualApp("c2", "u1", model.ApplicationStatusPending)))
}

func TestApplicationRepository_Create_AllowsAfterTerminal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := newRepos(t)

	first := individualApp("c1", "u1", model.ApplicationStatusPending)
	require.NoError(t, repos.Applications.Create(ctx, first))
	_, err := repos.Applications.UpdateStatus(ctx, first.ID, model.ApplicationStatusPending, model.ApplicationStatusCancelled)
	require.NoError(t, err)

	require.NoError(t, repos.Applications.Create(ctx, individualApp("c1", "u1", model.ApplicationStatusPending)))
}

func TestApplicationRepository_Create_ConcurrentOnlyOneWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := newRepos(t)

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	created, duplicates := 0, 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repos.Applications.Create(ctx, individualApp("c1", "u1", model.ApplicationStatusPending))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if assert.ErrorIs(t, err, database.ErrDuplicate) {
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, duplicates)
}

func TestApplicationRepository_UpdateStatus_ConflictOnStaleFrom(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := newRepos(t)

	app := individualApp("c1", "u1", model.ApplicationStatusPending)
	require.NoError(t, repos.Applications.Create(ctx, app))

	_, err := repos.Applications.UpdateStatus(ctx, app.ID, model.ApplicationStatusApproved, model.ApplicationStatusRejected)
	assert.ErrorIs(t, err, database.ErrConflict)

	_, err = repos.Applications.UpdateStatus(ctx, "missing", model.ApplicationStatusPending, model.ApplicationStatusRejected)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestApplicationRepository_UpdateStatus_ReinstatementCollides(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := newRepos(t)

	rejected := individualApp("c1", "u1", model.ApplicationStatusPending)
	require.NoError(t, repos.Applications.Create(ctx, rejected))
	_, err := repos.Applications.UpdateStatus(ctx, rejected.ID, model.ApplicationStatusPending, model.ApplicationStatusRejected)
	require.NoError(t, err)

	require.NoError(t, repos.Applications.Create(ctx, individualApp("c1", "u1", model.ApplicationStatusPending)))

	_, err = repos.Applications.UpdateStatus(ctx, rejected.ID, model.ApplicationStatusRejected, model.ApplicationStatusApproved)
	assert.ErrorIs(t, err, database.ErrDuplicate)
}

func competitionWithCapacity(t *testing.T, repos *Repositories, capacity int) string {
	t.Helper()
	c := &model.Competition{Name: "Cup", Status: model.CompetitionStatusPublished, MaxParticipantsOrTeams: &capacity}
	require.NoError(t, repos.Competitions.Create(context.Background(), c))
	return c.ID
}

func TestApplicationRepository_Approve_RefusesFullCompetition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := newRepos(t)
	competitionID := competitionWithCapacity(t, repos, 1)

	first := individualApp(competitionID, "u1", model.ApplicationStatusPending)
	second := individualApp(competitionID, "u2", model.ApplicationStatusPending)
	require.NoError(t, repos.Applications.Create(ctx, first))
	require.NoError(t, repos.Applications.Create(ctx, second))

	approved, err := repos.Applications.Approve(ctx, first.ID, model.ApplicationStatusPending)
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusApproved, approved.Status)

	_, err = repos.Applications.Approve(ctx, second.ID, model.ApplicationStatusPending)
	assert.ErrorIs(t, err, database.ErrLimitReached)

	got, err := repos.Applications.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusPending, got.Status)
}

func TestApplicationRepository_Approve_ConcurrentRespectsCapacity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := newRepos(t)

	const capacity, workers = 3, 12
	competitionID := competitionWithCapacity(t, repos, capacity)
	ids := make([]string, workers)
	for i := range ids {
		app := individualApp(competitionID, fmt.Sprintf("u%d", i), model.ApplicationStatusPending)
		require.NoError(t, repos.Applications.Create(ctx, app))
		ids[i] = app.ID
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	approved, refused := 0, 0
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := repos.Applications.Approve(ctx, id, model.ApplicationStatusPending)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				approved++
			} else if assert.ErrorIs(t, err, database.ErrLimitReached) {
				refused++
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, capacity, approved)
	assert.Equal(t, workers-capacity, refused)
	n, err := repos.Applications.CountByStatus(ctx, competitionID, model.ApplicationStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, capacity, n)
}

func TestApplicationRepository_Approve_UnlimitedCompetition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := newRepos(t)

	c := &model.Competition{Name: "Open", Status: model.CompetitionStatusPublished}
	require.NoError(t, repos.Competitions.Create(ctx, c))
	for i := 0; i < 3; i++ {
		app := individualApp(c.ID, fmt.Sprintf("u%d", i), model.ApplicationStatusPending)
		require.NoError(t, repos.Applications.Create(ctx, app))
		_, err := repos.Applications.Approve(ctx, app.ID, model.ApplicationStatusPending)
		require.NoError(t, err)
	}
}

func TestApplicationRepository_ListByCompetition_Filters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := newRepos(t)

	require.NoError(t, repos.Applications.Create(ctx, individualApp("c1", "u1", model.ApplicationStatusPending)))
	require.NoError(t, repos.Applications.Create(ctx, individualApp("c1", "u2", model.ApplicationStatusPending)))
	require.NoError(t, repos.Applications.Create(ctx, &model.Application{
		CompetitionID:   "c1",
		Type:            model.ApplicationTypeTeam,
		ApplicantTeamID: strPtr("t1"),
		Status:          model.ApplicationStatusForming,
	}))

	forming := model.ApplicationStatusForming
	apps, err := repos.Applications.ListByCompetition(ctx, "c1", model.ApplicationFilter{Status: &forming})
	require.NoError(t, err)
	assert.Len(t, apps, 1)

	individual := model.ApplicationTypeIndividual
	apps, err = repos.Applications.ListByCompetition(ctx, "c1", model.ApplicationFilter{Type: &individual})
	require.NoError(t, err)
	assert.Len(t, apps, 2)

	count, err := repos.Applications.CountByStatus(ctx, "c1", model.ApplicationStatusPending)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestApplicationRepository_UpdateRecruiting_OnlyForming(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := newRepos(t)

	app := individualApp("c1", "u1", model.ApplicationStatusPending)
	require.NoError(t, repos.Applications.Create(ctx, app))

	_, err := repos.Applications.UpdateRecruiting(ctx, app.ID, &model.RecruitingInfo{})
	assert.ErrorIs(t, err, database.ErrConflict)
}

// ============================================================================
// Team Tests
// ============================================================================

func TestTeamRepository_AddMember_RejectsDuplicate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := newRepos(t)

	team := &model.Team{Name: "Byte Knights", CaptainUserID: "cap"}
	require.NoError(t, repos.Teams.Create(ctx, team))

	require.NoError(t, repos.Teams.AddMember(ctx, &model.TeamMember{TeamID: team.ID, UserID: "u1"}))
	err := repos.Teams.AddMember(ctx, &model.TeamMember{TeamID: team.ID, UserID: "u1"})
	assert.ErrorIs(t, err, database.ErrDuplicate)

	members, err := repos.Teams.ListMembers(ctx, team.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestTeamRepository_Delete_Cascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := newRepos(t)

	team := &model.Team{Name: "Byte Knights", CaptainUserID: "cap"}
	require.NoError(t, repos.Teams.Create(ctx, team))
	require.NoError(t, repos.Teams.AddMember(ctx, &model.TeamMember{TeamID: team.ID, UserID: "u1"}))
	require.NoError(t, repos.JoinRequests.Create(ctx, &model.JoinRequest{TeamID: team.ID, UserID: "u2", CompetitionID: "c1"}))
	app := &model.Application{CompetitionID: "c1", Type: model.ApplicationTypeTeam, ApplicantTeamID: strPtr(team.ID), Status: model.ApplicationStatusRejected}
	require.NoError(t, repos.Applications.Create(ctx, app))

	require.NoError(t, repos.Teams.Delete(ctx, team.ID))

	got, err := repos.Teams.GetByID(ctx, team.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	members, _ := repos.Teams.ListMembers(ctx, team.ID)
	assert.Empty(t, members)
	requests, _ := repos.JoinRequests.ListByTeam(ctx, team.ID, nil)
	assert.Empty(t, requests)
	gotApp, _ := repos.Applications.GetByID(ctx, app.ID)
	assert.Nil(t, gotApp)
}

func TestTeamRepository_Delete_RefusesActiveApplication(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := newRepos(t)

	team := &model.Team{Name: "Byte Knights", CaptainUserID: "cap"}
	require.NoError(t, repos.Teams.Create(ctx, team))
	app := &model.Application{CompetitionID: "c1", Type: model.ApplicationTypeTeam, ApplicantTeamID: strPtr(team.ID), Status: model.ApplicationStatusForming}
	require.NoError(t, repos.Applications.Create(ctx, app))

	assert.ErrorIs(t, repos.Teams.Delete(ctx, team.ID), database.ErrInUse)

	got, err := repos.Teams.GetByID(ctx, team.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
	gotApp, err := repos.Applications.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.NotNil(t, gotApp)
}

func TestTeamRepository_ListByMember(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := newRepos(t)

	a := &model.Team{Name: "A", CaptainUserID: "cap"}
	b := &model.Team{Name: "B", CaptainUserID: "u1"}
	require.NoError(t, repos.Teams.Create(ctx, a))
	require.NoError(t, repos.Teams.Create(ctx, b))
	require.NoError(t, repos.Teams.AddMember(ctx, &model.TeamMember{TeamID: a.ID, UserID: "u1"}))

	memberOf, err := repos.Teams.ListByMember(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, memberOf, 1)
	assert.Equal(t, a.ID, memberOf[0].ID)

	captainOf, err := repos.Teams.ListByCaptain(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, captainOf, 1)
	assert.Equal(t, b.ID, captainOf[0].ID)
}

// ============================================================================
// Join Request Tests
// ============================================================================

func TestJoinRequestRepository_Create_OnePendingPerTriple(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := newRepos(t)

	first := &model.JoinRequest{TeamID: "t1", UserID: "u1", CompetitionID: "c1"}
	require.NoError(t, repos.JoinRequests.Create(ctx, first))

	err := repos.JoinRequests.Create(ctx, &model.JoinRequest{TeamID: "t1", UserID: "u1", CompetitionID: "c1"})
	assert.ErrorIs(t, err, database.ErrDuplicate)

	// Once decided, a new request may be filed
	_, err = repos.JoinRequests.UpdateStatus(ctx, first.ID, model.JoinRequestStatusPending, model.JoinRequestStatusRejected)
	require.NoError(t, err)
	require.NoError(t, repos.JoinRequests.Create(ctx, &model.JoinRequest{TeamID: "t1", UserID: "u1", CompetitionID: "c1"}))
}

func TestJoinRequestRepository_UpdateStatus_SetsDecidedOn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := newRepos(t)

	req := &model.JoinRequest{TeamID: "t1", UserID: "u1", CompetitionID: "c1"}
	require.NoError(t, repos.JoinRequests.Create(ctx, req))

	accepted, err := repos.JoinRequests.UpdateStatus(ctx, req.ID, model.JoinRequestStatusPending, model.JoinRequestStatusAccepted)
	require.NoError(t, err)
	assert.NotNil(t, accepted.DecidedOn)

	_, err = repos.JoinRequests.UpdateStatus(ctx, req.ID, model.JoinRequestStatusPending, model.JoinRequestStatusRejected)
	assert.ErrorIs(t, err, database.ErrConflict)

	reopened, err := repos.JoinRequests.UpdateStatus(ctx, req.ID, model.JoinRequestStatusAccepted, model.JoinRequestStatusPending)
	require.NoError(t, err)
	assert.Nil(t, reopened.DecidedOn)
}

// ============================================================================
// Competition Tests
// ============================================================================

func TestCompetitionRepository_ListForStatusSync_SkipsDraftAndFinished(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := newRepos(t)

	for _, status := range []model.CompetitionStatus{
		model.CompetitionStatusDraft,
		model.CompetitionStatusPublished,
		model.CompetitionStatusInProgress,
		model.CompetitionStatusFinished,
	} {
		require.NoError(t, repos.Competitions.Create(ctx, &model.Competition{Name: string(status), Status: status}))
	}

	list, err := repos.Competitions.ListForStatusSync(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCompetitionRepository_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("refuses active application", func(t *testing.T) {
		t.Parallel()
		repos := newRepos(t)
		c := &model.Competition{Name: "Cup", Status: model.CompetitionStatusPublished}
		require.NoError(t, repos.Competitions.Create(ctx, c))
		require.NoError(t, repos.Applications.Create(ctx, individualApp(c.ID, "u1", model.ApplicationStatusApproved)))

		assert.ErrorIs(t, repos.Competitions.Delete(ctx, c.ID), database.ErrInUse)
		got, err := repos.Competitions.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("cascades terminal applications", func(t *testing.T) {
		t.Parallel()
		repos := newRepos(t)
		c := &model.Competition{Name: "Cup", Status: model.CompetitionStatusPublished}
		require.NoError(t, repos.Competitions.Create(ctx, c))
		app := individualApp(c.ID, "u1", model.ApplicationStatusCancelled)
		require.NoError(t, repos.Applications.Create(ctx, app))

		require.NoError(t, repos.Competitions.Delete(ctx, c.ID))
		gotApp, err := repos.Applications.GetByID(ctx, app.ID)
		require.NoError(t, err)
		assert.Nil(t, gotApp)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, newRepos(t).Competitions.Delete(ctx, "missing"), database.ErrNotFound)
	})
}

func TestUserRepository_GetByID_Missing(t *testing.T) {
	t.Parallel()
	store := NewStore()
	repos := NewRepositories(store)

	u := store.PutUser(model.User{FullName: "Ada"})

	got, err := repos.Users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FullName)

	missing, err := repos.Users.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
