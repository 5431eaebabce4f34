package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

// ============================================================================
// Mock Database
// ============================================================================

type mockDatabase struct {
	queryFunc    func(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)
	queryOneFunc func(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)
	queries      []string
}

func (m *mockDatabase) Connect(ctx context.Context) error { return nil }
func (m *mockDatabase) Close() error                      { return nil }
func (m *mockDatabase) Ping(ctx context.Context) error    { return nil }

func (m *mockDatabase) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	m.queries = append(m.queries, query)
	if m.queryFunc != nil {
		return m.queryFunc(ctx, query, vars)
	}
	return nil, nil
}

func (m *mockDatabase) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	if m.queryOneFunc != nil {
		return m.queryOneFunc(ctx, query, vars)
	}
	return nil, database.ErrNotFound
}

func (m *mockDatabase) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := m.Query(ctx, query, vars)
	return err
}

func (m *mockDatabase) BeginTx(ctx context.Context) (database.Transaction, error) {
	return nil, database.ErrConnection
}

func okResult(rows ...map[string]interface{}) []interface{} {
	result := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		result = append(result, row)
	}
	return []interface{}{map[string]interface{}{"status": "OK", "result": result}}
}

func applicationRow(status string) map[string]interface{} {
	return map[string]interface{}{
		"id":                models.RecordID{Table: "application", ID: "a1"},
		"competition_id":    "competition:c1",
		"type":              "team",
		"applicant_team_id": "team:t1",
		"status":            status,
		"recruiting": map[string]interface{}{
			"required_members": float64(3),
			"roles_needed":     []interface{}{"defender", "keeper"},
		},
		"submitted_on": "2025-01-05T10:00:00Z",
		"updated_on":   models.CustomDateTime{Time: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)},
	}
}

// ============================================================================
// Parsing
// ============================================================================

func TestParseApplication(t *testing.T) {
	t.Parallel()

	app := parseApplication(applicationRow("forming"))

	assert.Equal(t, "application:a1", app.ID)
	assert.Equal(t, model.ApplicationStatusForming, app.Status)
	assert.Equal(t, "team:t1", app.ApplicantID())
	assert.Nil(t, app.ApplicantUserID)
	require.NotNil(t, app.Recruiting)
	require.NotNil(t, app.Recruiting.RequiredMembers)
	assert.Equal(t, 3, *app.Recruiting.RequiredMembers)
	assert.Equal(t, []string{"defender", "keeper"}, app.Recruiting.RolesNeeded)
	assert.Equal(t, time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC), app.SubmittedOn)
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), app.UpdatedOn)
}

func TestStatementRecords_RowWithStatusField(t *testing.T) {
	t.Parallel()

	row := applicationRow("pending")
	assert.Len(t, statementRecords(row), 1)
	assert.Len(t, statementRecords(okResult(row)[0]), 1)
	assert.Empty(t, statementRecords(map[string]interface{}{"status": "ERR", "result": "boom"}))
}

// ============================================================================
// ApplicationRepository
// ============================================================================

func TestApplicationRepository_Create_TakesLockInSameTransaction(t *testing.T) {
	t.Parallel()
	db := &mockDatabase{
		queryFunc: func(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
			return append(okResult(map[string]interface{}{"id": "application_lock:x"}), okResult(applicationRow("pending"))...), nil
		},
	}
	repo := NewApplicationRepository(db)

	teamID := "team:t1"
	app := &model.Application{CompetitionID: "competition:c1", Type: model.ApplicationTypeTeam, ApplicantTeamID: &teamID, Status: model.ApplicationStatusPending}
	require.NoError(t, repo.Create(context.Background(), app))

	require.Len(t, db.queries, 1)
	q := db.queries[0]
	assert.True(t, strings.HasPrefix(q, "BEGIN TRANSACTION;"))
	assert.Less(t, strings.Index(q, "application_lock"), strings.Index(q, "CREATE application CONTENT"))
	assert.Equal(t, "application:a1", app.ID)
}

func TestApplicationRepository_Create_DuplicateLock(t *testing.T) {
	t.Parallel()
	db := &mockDatabase{
		queryFunc: func(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
			return nil, fmt.Errorf("%w: Database record `application_lock:['c1','u1']` already exists", database.ErrDuplicate)
		},
	}
	repo := NewApplicationRepository(db)

	userID := "user:u1"
	err := repo.Create(context.Background(), &model.Application{CompetitionID: "competition:c1", ApplicantUserID: &userID, Status: model.ApplicationStatusPending})
	assert.ErrorIs(t, err, database.ErrDuplicate)
}

func TestApplicationRepository_UpdateStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		stored     string
		from, to   model.ApplicationStatus
		wantErr    error
		wantInTx   string
		wantNotTx  string
		wantQuerys int
	}{
		{name: "stale from", stored: "approved", from: "pending", to: "approved", wantErr: database.ErrConflict},
		{name: "active to active", stored: "pending", from: "pending", to: "approved", wantNotTx: "application_lock", wantQuerys: 1},
		{name: "release lock", stored: "approved", from: "approved", to: "cancelled", wantInTx: "DELETE type::thing('application_lock'", wantQuerys: 1},
		{name: "retake lock", stored: "rejected", from: "rejected", to: "approved", wantInTx: "CREATE type::thing('application_lock'", wantQuerys: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			db := &mockDatabase{
				queryOneFunc: func(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
					return applicationRow(tt.stored), nil
				},
				queryFunc: func(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
					return okResult(applicationRow(string(tt.to))), nil
				},
			}
			repo := NewApplicationRepository(db)

			app, err := repo.UpdateStatus(context.Background(), "application:a1", tt.from, tt.to)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, db.queries)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, app.Status)
			require.Len(t, db.queries, tt.wantQuerys)
			assert.Contains(t, db.queries[0], database.ConflictMarker)
			if tt.wantInTx != "" {
				assert.Contains(t, db.queries[0], tt.wantInTx)
			}
			if tt.wantNotTx != "" {
				assert.NotContains(t, db.queries[0], tt.wantNotTx)
			}
		})
	}
}

func TestApplicationRepository_UpdateStatus_Missing(t *testing.T) {
	t.Parallel()
	repo := NewApplicationRepository(&mockDatabase{})

	_, err := repo.UpdateStatus(context.Background(), "application:nope", "pending", "approved")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestApplicationRepository_UpdateStatus_LostRace(t *testing.T) {
	t.Parallel()
	db := &mockDatabase{
		queryOneFunc: func(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
			return applicationRow("pending"), nil
		},
		queryFunc: func(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
			return nil, fmt.Errorf("%w: An error occurred: %s", database.ErrConflict, database.ConflictMarker)
		},
	}
	repo := NewApplicationRepository(db)

	_, err := repo.UpdateStatus(context.Background(), "application:a1", "pending", "approved")
	assert.ErrorIs(t, err, database.ErrConflict)
}

func TestApplicationRepository_Approve_ChecksCapacityInTransaction(t *testing.T) {
	t.Parallel()
	db := &mockDatabase{
		queryOneFunc: func(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
			return applicationRow("pending"), nil
		},
		queryFunc: func(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
			return okResult(applicationRow("approved")), nil
		},
	}

	app, err := NewApplicationRepository(db).Approve(context.Background(), "application:a1", "pending")
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusApproved, app.Status)
	require.Len(t, db.queries, 1)

	query := db.queries[0]
	guard := strings.Index(query, "approval_guard")
	limit := strings.Index(query, database.LimitMarker)
	update := strings.Index(query, "LET $updated = UPDATE")
	require.True(t, guard >= 0 && limit >= 0 && update >= 0, query)
	assert.Less(t, guard, limit)
	assert.Less(t, limit, update)
}

func TestApplicationRepository_Approve_FullCompetition(t *testing.T) {
	t.Parallel()
	db := &mockDatabase{
		queryOneFunc: func(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
			return applicationRow("pending"), nil
		},
		queryFunc: func(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
			return nil, fmt.Errorf("%w: An error occurred: %s", database.ErrLimitReached, database.LimitMarker)
		},
	}

	_, err := NewApplicationRepository(db).Approve(context.Background(), "application:a1", "pending")
	assert.ErrorIs(t, err, database.ErrLimitReached)
}

func TestApplicationRepository_UpdateStatus_SkipsCapacityGuard(t *testing.T) {
	t.Parallel()
	db := &mockDatabase{
		queryOneFunc: func(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
			return applicationRow("approved"), nil
		},
		queryFunc: func(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
			return okResult(applicationRow("rejected")), nil
		},
	}

	_, err := NewApplicationRepository(db).UpdateStatus(context.Background(), "application:a1", "approved", "rejected")
	require.NoError(t, err)
	require.Len(t, db.queries, 1)
	assert.NotContains(t, db.queries[0], database.LimitMarker)
}

func TestApplicationRepository_UpdateRecruiting_NotForming(t *testing.T) {
	t.Parallel()
	db := &mockDatabase{
		queryOneFunc: func(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
			return applicationRow("pending"), nil
		},
		queryFunc: func(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
			return okResult(), nil
		},
	}
	repo := NewApplicationRepository(db)

	_, err := repo.UpdateRecruiting(context.Background(), "application:a1", &model.RecruitingInfo{})
	assert.ErrorIs(t, err, database.ErrConflict)
}

func TestApplicationRepository_CountByStatus(t *testing.T) {
	t.Parallel()
	db := &mockDatabase{
		queryFunc: func(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
			assert.Equal(t, "approved", vars["status"])
			return okResult(map[string]interface{}{"count": float64(4)}), nil
		},
	}

	n, err := NewApplicationRepository(db).CountByStatus(context.Background(), "competition:c1", model.ApplicationStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestApplicationRepository_ListByCompetition_Filters(t *testing.T) {
	t.Parallel()
	var gotQuery string
	var gotVars map[string]interface{}
	db := &mockDatabase{
		queryFunc: func(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
			gotQuery, gotVars = query, vars
			return okResult(applicationRow("pending")), nil
		},
	}

	status := model.ApplicationStatusPending
	appType := model.ApplicationTypeTeam
	apps, err := NewApplicationRepository(db).ListByCompetition(context.Background(), "competition:c1", model.ApplicationFilter{Status: &status, Type: &appType})
	require.NoError(t, err)
	assert.Len(t, apps, 1)
	assert.Contains(t, gotQuery, "status = $status")
	assert.Contains(t, gotQuery, "type = $type")
	assert.Contains(t, gotQuery, "ORDER BY submitted_on DESC")
	assert.Equal(t, "team", gotVars["type"])
}

// ============================================================================
// JoinRequestRepository
// ============================================================================

func joinRequestRow(status string) map[string]interface{} {
	return map[string]interface{}{
		"id":             models.RecordID{Table: "join_request", ID: "r1"},
		"team_id":        "team:t1",
		"user_id":        "user:u1",
		"competition_id": "competition:c1",
		"status":         status,
		"created_on":     "2025-01-05T10:00:00Z",
	}
}

func TestJoinRequestRepository_UpdateStatus_Locks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to model.JoinRequestStatus
		contains string
		decided  string
	}{
		{from: "pending", to: "accepted", contains: "DELETE type::thing('join_request_lock'", decided: "decided_on = time::now()"},
		{from: "accepted", to: "pending", contains: "CREATE type::thing('join_request_lock'", decided: "decided_on = NONE"},
	}

	for _, tt := range tests {
		db := &mockDatabase{
			queryOneFunc: func(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
				return joinRequestRow(string(tt.from)), nil
			},
			queryFunc: func(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
				return okResult(joinRequestRow(string(tt.to))), nil
			},
		}

		req, err := NewJoinRequestRepository(db).UpdateStatus(context.Background(), "join_request:r1", tt.from, tt.to)
		require.NoError(t, err)
		assert.Equal(t, tt.to, req.Status)
		require.Len(t, db.queries, 1)
		assert.Contains(t, db.queries[0], tt.contains)
		assert.Contains(t, db.queries[0], tt.decided)
	}
}

func TestJoinRequestRepository_GetByID_Missing(t *testing.T) {
	t.Parallel()

	req, err := NewJoinRequestRepository(&mockDatabase{}).GetByID(context.Background(), "join_request:nope")
	require.NoError(t, err)
	assert.Nil(t, req)
}

// ============================================================================
// TeamRepository
// ============================================================================

func TestTeamRepository_Delete_CascadesInOneBatch(t *testing.T) {
	t.Parallel()
	db := &mockDatabase{
		queryOneFunc: func(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{"id": "team:t1", "name": "Owls", "captain_user_id": "user:c"}, nil
		},
	}

	require.NoError(t, NewTeamRepository(db).Delete(context.Background(), "team:t1"))
	require.Len(t, db.queries, 1)
	for _, table := range []string{"join_request_lock", "join_request", "team_member", "application_lock", "application"} {
		assert.Contains(t, db.queries[0], "DELETE "+table+" WHERE")
	}
}

func TestTeamRepository_Delete_GuardPrecedesCascade(t *testing.T) {
	t.Parallel()
	db := &mockDatabase{
		queryOneFunc: func(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{"id": "team:t1", "name": "Owls", "captain_user_id": "user:c"}, nil
		},
	}

	require.NoError(t, NewTeamRepository(db).Delete(context.Background(), "team:t1"))
	require.Len(t, db.queries, 1)
	guard := strings.Index(db.queries[0], database.InUseMarker)
	require.GreaterOrEqual(t, guard, 0)
	assert.Less(t, guard, strings.Index(db.queries[0], "DELETE application_lock WHERE"))
}

func TestTeamRepository_Delete_InUse(t *testing.T) {
	t.Parallel()
	db := &mockDatabase{
		queryOneFunc: func(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{"id": "team:t1", "name": "Owls", "captain_user_id": "user:c"}, nil
		},
		queryFunc: func(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
			return nil, fmt.Errorf("%w: An error occurred: %s", database.ErrInUse, database.InUseMarker)
		},
	}

	assert.ErrorIs(t, NewTeamRepository(db).Delete(context.Background(), "team:t1"), database.ErrInUse)
}

func TestCompetitionRepository_Delete_GuardPrecedesCascade(t *testing.T) {
	t.Parallel()
	db := &mockDatabase{
		queryOneFunc: func(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{"id": "competition:c1", "name": "Cup", "status": "published"}, nil
		},
	}

	require.NoError(t, NewCompetitionRepository(db).Delete(context.Background(), "competition:c1"))
	require.Len(t, db.queries, 1)
	query := db.queries[0]
	guard := strings.Index(query, database.InUseMarker)
	require.GreaterOrEqual(t, guard, 0)
	assert.Less(t, guard, strings.Index(query, "DELETE application WHERE"))
	assert.Contains(t, query, "DELETE type::thing('approval_guard'")
}

func TestTeamRepository_RemoveMember_Missing(t *testing.T) {
	t.Parallel()
	db := &mockDatabase{
		queryFunc: func(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
			return okResult(), nil
		},
	}

	err := NewTeamRepository(db).RemoveMember(context.Background(), "team_member:m1")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

// ============================================================================
// Schema
// ============================================================================

func TestDefineSchema(t *testing.T) {
	t.Parallel()
	db := &mockDatabase{}

	require.NoError(t, DefineSchema(context.Background(), db))
	assert.Len(t, db.queries, len(schemaStatements))
	assert.Contains(t, strings.Join(db.queries, "\n"), "team_member_unique ON team_member FIELDS team_id, user_id UNIQUE")
}
