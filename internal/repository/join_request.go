package repository

import (
	"context"
	"fmt"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

// JoinRequestRepository handles join request data access. A
// join_request_lock record keyed by [team_id, user_id, competition_id] exists
// while the triple has a pending request.
type JoinRequestRepository struct {
	db database.Database
}

// NewJoinRequestRepository creates a new join request repository
func NewJoinRequestRepository(db database.Database) *JoinRequestRepository {
	return &JoinRequestRepository{db: db}
}

const createJoinRequestLock = `
	CREATE type::thing('join_request_lock', [$team_id, $user_id, $competition_id]) CONTENT {
		team_id: $team_id,
		user_id: $user_id,
		competition_id: $competition_id
	}
`

const deleteJoinRequestLock = `DELETE type::thing('join_request_lock', [$team_id, $user_id, $competition_id])`

// Create inserts a pending join request. A second pending request for the
// same (team, user, competition) fails with database.ErrDuplicate.
func (r *JoinRequestRepository) Create(ctx context.Context, req *model.JoinRequest) error {
	vars := map[string]interface{}{
		"team_id":        req.TeamID,
		"user_id":        req.UserID,
		"competition_id": req.CompetitionID,
	}

	tb := database.NewTxBuilder()
	tb.Add(createJoinRequestLock, vars)
	tb.Add(`
		CREATE join_request CONTENT {
			team_id: $team_id,
			user_id: $user_id,
			competition_id: $competition_id,
			status: $status,
			created_on: time::now()
		}
	`, map[string]interface{}{
		"team_id":        req.TeamID,
		"user_id":        req.UserID,
		"competition_id": req.CompetitionID,
		"status":         string(model.JoinRequestStatusPending),
	})

	results, err := database.ExecuteTransaction(ctx, r.db, tb)
	if err != nil {
		return err
	}
	records := lastRecords(results)
	if len(records) == 0 {
		return fmt.Errorf("%w: create returned no record", database.ErrQuery)
	}

	created := parseJoinRequest(records[0])
	req.ID = created.ID
	req.Status = created.Status
	req.CreatedOn = created.CreatedOn
	return nil
}

// GetByID retrieves a join request by ID
func (r *JoinRequestRepository) GetByID(ctx context.Context, id string) (*model.JoinRequest, error) {
	record, err := queryOneRecord(ctx, r.db, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil || record == nil {
		return nil, err
	}
	return parseJoinRequest(record), nil
}

// ListByTeam lists a team's join requests, oldest first, optionally by status
func (r *JoinRequestRepository) ListByTeam(ctx context.Context, teamID string, status *model.JoinRequestStatus) ([]*model.JoinRequest, error) {
	query := `SELECT * FROM join_request WHERE team_id = $team_id ORDER BY created_on`
	vars := map[string]interface{}{"team_id": teamID}
	if status != nil {
		query = `SELECT * FROM join_request WHERE team_id = $team_id AND status = $status ORDER BY created_on`
		vars["status"] = string(*status)
	}

	records, err := queryRecords(ctx, r.db, query, vars)
	if err != nil {
		return nil, err
	}
	requests := make([]*model.JoinRequest, 0, len(records))
	for _, record := range records {
		requests = append(requests, parseJoinRequest(record))
	}
	return requests, nil
}

// UpdateStatus moves a join request from one status to another. The write only
// applies while the stored status is still from; otherwise it fails with
// database.ErrConflict. Deciding a request stamps decided_on; returning it to
// pending clears the stamp and takes the pending lock again.
func (r *JoinRequestRepository) UpdateStatus(ctx context.Context, id string, from, to model.JoinRequestStatus) (*model.JoinRequest, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, database.ErrNotFound
	}
	if current.Status != from {
		return nil, database.ErrConflict
	}

	lockVars := map[string]interface{}{
		"team_id":        current.TeamID,
		"user_id":        current.UserID,
		"competition_id": current.CompetitionID,
	}
	decided := `time::now()`
	if to == model.JoinRequestStatusPending {
		decided = `NONE`
	}

	tb := database.NewTxBuilder()
	tb.Add(`LET $updated = UPDATE type::record($id) SET status = $to, decided_on = `+decided+` WHERE status = $from RETURN AFTER`,
		map[string]interface{}{"id": id, "from": string(from), "to": string(to)})
	tb.Add(conflictGuard, nil)
	switch {
	case from == model.JoinRequestStatusPending && to != model.JoinRequestStatusPending:
		tb.Add(deleteJoinRequestLock, lockVars)
	case from != model.JoinRequestStatusPending && to == model.JoinRequestStatusPending:
		tb.Add(createJoinRequestLock, lockVars)
	}
	tb.Add(`SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})

	results, err := database.ExecuteTransaction(ctx, r.db, tb)
	if err != nil {
		return nil, err
	}
	records := lastRecords(results)
	if len(records) == 0 {
		return nil, database.ErrNotFound
	}
	return parseJoinRequest(records[0]), nil
}

func parseJoinRequest(data map[string]interface{}) *model.JoinRequest {
	req := &model.JoinRequest{
		ID:            convertID(data["id"]),
		TeamID:        getString(data, "team_id"),
		UserID:        getString(data, "user_id"),
		CompetitionID: getString(data, "competition_id"),
		Status:        model.JoinRequestStatus(getString(data, "status")),
		CreatedOn:     getTimeValue(data, "created_on"),
	}
	if t := getTime(data, "decided_on"); t != nil {
		decided := t.UTC()
		req.DecidedOn = &decided
	}
	return req
}
