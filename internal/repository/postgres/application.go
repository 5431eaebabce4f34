package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

var applicationColumns = []string{
	"id", "competition_id", "type", "applicant_user_id", "applicant_team_id",
	"status", "recruiting", "submitted_on", "updated_on",
}

type applicationRow struct {
	ID              string         `db:"id"`
	CompetitionID   string         `db:"competition_id"`
	Type            string         `db:"type"`
	ApplicantUserID sql.NullString `db:"applicant_user_id"`
	ApplicantTeamID sql.NullString `db:"applicant_team_id"`
	Status          string         `db:"status"`
	Recruiting      sql.NullString `db:"recruiting"`
	SubmittedOn     time.Time      `db:"submitted_on"`
	UpdatedOn       time.Time      `db:"updated_on"`
}

func (r applicationRow) toModel() (*model.Application, error) {
	app := &model.Application{
		ID:              r.ID,
		CompetitionID:   r.CompetitionID,
		Type:            model.ApplicationType(r.Type),
		ApplicantUserID: stringPtr(r.ApplicantUserID),
		ApplicantTeamID: stringPtr(r.ApplicantTeamID),
		Status:          model.ApplicationStatus(r.Status),
		SubmittedOn:     r.SubmittedOn.UTC(),
		UpdatedOn:       r.UpdatedOn.UTC(),
	}
	if r.Recruiting.Valid && r.Recruiting.String != "" {
		var info model.RecruitingInfo
		if err := json.Unmarshal([]byte(r.Recruiting.String), &info); err != nil {
			return nil, fmt.Errorf("failed to decode recruiting info of %s: %w", r.ID, err)
		}
		app.Recruiting = &info
	}
	return app, nil
}

func encodeRecruiting(info *model.RecruitingInfo) (sql.NullString, error) {
	if info == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(info)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode recruiting info: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func activeStatusValues() []string {
	out := make([]string, 0, len(model.ActiveApplicationStatuses))
	for _, s := range model.ActiveApplicationStatuses {
		out = append(out, string(s))
	}
	return out
}

// ApplicationRepository stores applications. The applications_active_key
// index enforces a single active application per applicant.
type ApplicationRepository struct {
	s *store
}

// Create inserts an application and assigns its ID
func (r *ApplicationRepository) Create(ctx context.Context, app *model.Application) error {
	recruiting, err := encodeRecruiting(app.Recruiting)
	if err != nil {
		return err
	}

	id := newID()
	now := r.s.now()
	_, err = qExec(ctx, r.s.db, psql.Insert("applications").
		Columns(applicationColumns...).
		Values(id, app.CompetitionID, string(app.Type), nullString(app.ApplicantUserID), nullString(app.ApplicantTeamID),
			string(app.Status), recruiting, now, now))
	if err != nil {
		return err
	}

	app.ID = id
	app.SubmittedOn = now
	app.UpdatedOn = now
	return nil
}

// GetByID retrieves an application by ID
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*model.Application, error) {
	var row applicationRow
	found, err := getOptional(ctx, r.s.db, &row, psql.Select(applicationColumns...).From("applications").Where(sq.Eq{"id": id}))
	if err != nil || !found {
		return nil, err
	}
	return row.toModel()
}

// ListByCompetition lists a competition's applications, newest first
func (r *ApplicationRepository) ListByCompetition(ctx context.Context, competitionID string, filter model.ApplicationFilter) ([]*model.Application, error) {
	where := sq.Eq{"competition_id": competitionID}
	if filter.Status != nil {
		where["status"] = string(*filter.Status)
	}
	if filter.Type != nil {
		where["type"] = string(*filter.Type)
	}
	return r.list(ctx, psql.Select(applicationColumns...).From("applications").Where(where).OrderBy("submitted_on DESC"))
}

// ListByTeam lists every application the team has made, newest first
func (r *ApplicationRepository) ListByTeam(ctx context.Context, teamID string) ([]*model.Application, error) {
	return r.list(ctx, psql.Select(applicationColumns...).
		From("applications").
		Where(sq.Eq{"applicant_team_id": teamID}).
		OrderBy("submitted_on DESC"))
}

// FindActive returns the applicant's pending, approved or forming application
func (r *ApplicationRepository) FindActive(ctx context.Context, competitionID, applicantID string) (*model.Application, error) {
	var row applicationRow
	found, err := getOptional(ctx, r.s.db, &row, psql.Select(applicationColumns...).
		From("applications").
		Where(sq.Eq{"competition_id": competitionID, "status": activeStatusValues()}).
		Where(sq.Or{sq.Eq{"applicant_user_id": applicantID}, sq.Eq{"applicant_team_id": applicantID}}).
		Limit(1))
	if err != nil || !found {
		return nil, err
	}
	return row.toModel()
}

// CountByStatus counts a competition's applications in status
func (r *ApplicationRepository) CountByStatus(ctx context.Context, competitionID string, status model.ApplicationStatus) (int, error) {
	var n int
	err := qGet(ctx, r.s.db, &n, psql.Select("COUNT(*)").
		From("applications").
		Where(sq.Eq{"competition_id": competitionID, "status": string(status)}))
	if err != nil {
		return 0, err
	}
	return n, nil
}

// UpdateStatus moves an application from one status to another. Zero
// matching rows is database.ErrConflict when the row exists with another
// status, and reactivating into an occupied slot is database.ErrDuplicate.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, from, to model.ApplicationStatus) (*model.Application, error) {
	var row applicationRow
	err := qGet(ctx, r.s.db, &row, psql.Update("applications").
		Set("status", string(to)).
		Set("updated_on", r.s.now()).
		Where(sq.Eq{"id": id, "status": string(from)}).
		Suffix("RETURNING "+strings.Join(applicationColumns, ", ")))
	if errors.Is(err, database.ErrNotFound) {
		return nil, r.missOrConflict(ctx, r.s.db, id)
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

// Approve moves an application from from to approved inside one transaction.
// The competition row is locked first, which serializes approvals of the same
// competition, then the approved count is compared with its capacity. A full
// competition fails with database.ErrLimitReached.
func (r *ApplicationRepository) Approve(ctx context.Context, id string, from model.ApplicationStatus) (*model.Application, error) {
	var app *model.Application
	err := r.s.withTx(ctx, func(tx *sqlx.Tx) error {
		var target struct {
			CompetitionID string        `db:"competition_id"`
			Capacity      sql.NullInt64 `db:"max_participants_or_teams"`
		}
		err := qGet(ctx, tx, &target, psql.Select("a.competition_id", "c.max_participants_or_teams").
			From("applications a").
			Join("competitions c ON c.id = a.competition_id").
			Where(sq.Eq{"a.id": id}).
			Suffix("FOR NO KEY UPDATE OF c"))
		if err != nil {
			return err
		}

		if target.Capacity.Valid {
			var approved int64
			err := qGet(ctx, tx, &approved, psql.Select("COUNT(*)").
				From("applications").
				Where(sq.Eq{"competition_id": target.CompetitionID, "status": string(model.ApplicationStatusApproved)}))
			if err != nil {
				return err
			}
			if approved >= target.Capacity.Int64 {
				return database.ErrLimitReached
			}
		}

		var row applicationRow
		err = qGet(ctx, tx, &row, psql.Update("applications").
			Set("status", string(model.ApplicationStatusApproved)).
			Set("updated_on", r.s.now()).
			Where(sq.Eq{"id": id, "status": string(from)}).
			Suffix("RETURNING "+strings.Join(applicationColumns, ", ")))
		if errors.Is(err, database.ErrNotFound) {
			return r.missOrConflict(ctx, tx, id)
		}
		if err != nil {
			return err
		}
		app, err = row.toModel()
		return err
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// UpdateRecruiting replaces the recruiting info of a forming application
func (r *ApplicationRepository) UpdateRecruiting(ctx context.Context, id string, info *model.RecruitingInfo) (*model.Application, error) {
	recruiting, err := encodeRecruiting(info)
	if err != nil {
		return nil, err
	}

	var row applicationRow
	err = qGet(ctx, r.s.db, &row, psql.Update("applications").
		Set("recruiting", recruiting).
		Set("updated_on", r.s.now()).
		Where(sq.Eq{"id": id, "status": string(model.ApplicationStatusForming)}).
		Suffix("RETURNING "+strings.Join(applicationColumns, ", ")))
	if errors.Is(err, database.ErrNotFound) {
		return nil, r.missOrConflict(ctx, r.s.db, id)
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

// requireNoApplications fails with database.ErrInUse when any application
// matching where is left
func requireNoApplications(ctx context.Context, tx *sqlx.Tx, where sq.Eq) error {
	var left int64
	if err := qGet(ctx, tx, &left, psql.Select("COUNT(*)").From("applications").Where(where)); err != nil {
		return err
	}
	if left > 0 {
		return database.ErrInUse
	}
	return nil
}

// missOrConflict tells apart a vanished row from one whose status moved on
func (r *ApplicationRepository) missOrConflict(ctx context.Context, q sqlx.QueryerContext, id string) error {
	var status string
	found, err := getOptional(ctx, q, &status, psql.Select("status").From("applications").Where(sq.Eq{"id": id}))
	if err != nil {
		return err
	}
	if !found {
		return database.ErrNotFound
	}
	return database.ErrConflict
}

func (r *ApplicationRepository) list(ctx context.Context, b sq.SelectBuilder) ([]*model.Application, error) {
	var rows []applicationRow
	if err := qSelect(ctx, r.s.db, &rows, b); err != nil {
		return nil, err
	}

	out := make([]*model.Application, 0, len(rows))
	for _, row := range rows {
		app, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, nil
}
