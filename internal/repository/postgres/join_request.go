package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

const joinRequestReturning = "RETURNING id, team_id, user_id, competition_id, status, created_on, decided_on"

var joinRequestColumns = []string{"id", "team_id", "user_id", "competition_id", "status", "created_on", "decided_on"}

type joinRequestRow struct {
	ID            string       `db:"id"`
	TeamID        string       `db:"team_id"`
	UserID        string       `db:"user_id"`
	CompetitionID string       `db:"competition_id"`
	Status        string       `db:"status"`
	CreatedOn     time.Time    `db:"created_on"`
	DecidedOn     sql.NullTime `db:"decided_on"`
}

func (r joinRequestRow) toModel() *model.JoinRequest {
	req := &model.JoinRequest{
		ID:            r.ID,
		TeamID:        r.TeamID,
		UserID:        r.UserID,
		CompetitionID: r.CompetitionID,
		Status:        model.JoinRequestStatus(r.Status),
		CreatedOn:     r.CreatedOn.UTC(),
	}
	if r.DecidedOn.Valid {
		t := r.DecidedOn.Time.UTC()
		req.DecidedOn = &t
	}
	return req
}

// JoinRequestRepository stores join requests. join_requests_pending_key
// keeps one pending request per (team, user, competition).
type JoinRequestRepository struct {
	s *store
}

// Create stores a pending join request
func (r *JoinRequestRepository) Create(ctx context.Context, req *model.JoinRequest) error {
	id := newID()
	now := r.s.now()
	_, err := qExec(ctx, r.s.db, psql.Insert("join_requests").
		Columns("id", "team_id", "user_id", "competition_id", "status", "created_on").
		Values(id, req.TeamID, req.UserID, req.CompetitionID, string(model.JoinRequestStatusPending), now))
	if err != nil {
		return err
	}

	req.ID = id
	req.Status = model.JoinRequestStatusPending
	req.CreatedOn = now
	req.DecidedOn = nil
	return nil
}

// GetByID retrieves a join request by ID
func (r *JoinRequestRepository) GetByID(ctx context.Context, id string) (*model.JoinRequest, error) {
	var row joinRequestRow
	found, err := getOptional(ctx, r.s.db, &row, psql.Select(joinRequestColumns...).From("join_requests").Where(sq.Eq{"id": id}))
	if err != nil || !found {
		return nil, err
	}
	return row.toModel(), nil
}

// ListByTeam lists a team's join requests oldest first, optionally by status
func (r *JoinRequestRepository) ListByTeam(ctx context.Context, teamID string, status *model.JoinRequestStatus) ([]*model.JoinRequest, error) {
	where := sq.Eq{"team_id": teamID}
	if status != nil {
		where["status"] = string(*status)
	}

	var rows []joinRequestRow
	err := qSelect(ctx, r.s.db, &rows, psql.Select(joinRequestColumns...).
		From("join_requests").
		Where(where).
		OrderBy("created_on"))
	if err != nil {
		return nil, err
	}

	out := make([]*model.JoinRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

// UpdateStatus moves a join request from one status to another, stamping
// decided_on unless it returns to pending
func (r *JoinRequestRepository) UpdateStatus(ctx context.Context, id string, from, to model.JoinRequestStatus) (*model.JoinRequest, error) {
	decided := sql.NullTime{}
	if to != model.JoinRequestStatusPending {
		decided = sql.NullTime{Time: r.s.now(), Valid: true}
	}

	var row joinRequestRow
	err := qGet(ctx, r.s.db, &row, psql.Update("join_requests").
		Set("status", string(to)).
		Set("decided_on", decided).
		Where(sq.Eq{"id": id, "status": string(from)}).
		Suffix(joinRequestReturning))
	if errors.Is(err, database.ErrNotFound) {
		var status string
		found, lookupErr := getOptional(ctx, r.s.db, &status, psql.Select("status").From("join_requests").Where(sq.Eq{"id": id}))
		if lookupErr != nil {
			return nil, lookupErr
		}
		if !found {
			return nil, database.ErrNotFound
		}
		return nil, database.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}
