package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

var competitionColumns = []string{
	"id", "name", "description", "discipline_id", "region_id", "type",
	"max_participants_or_teams", "registration_start", "registration_end",
	"start_at", "end_at", "status", "organizer_user_id", "created_on", "updated_on",
}

type competitionRow struct {
	ID                string         `db:"id"`
	Name              string         `db:"name"`
	Description       sql.NullString `db:"description"`
	DisciplineID      string         `db:"discipline_id"`
	RegionID          sql.NullString `db:"region_id"`
	Type              string         `db:"type"`
	MaxParticipants   sql.NullInt64  `db:"max_participants_or_teams"`
	RegistrationStart time.Time      `db:"registration_start"`
	RegistrationEnd   time.Time      `db:"registration_end"`
	StartAt           time.Time      `db:"start_at"`
	EndAt             time.Time      `db:"end_at"`
	Status            string         `db:"status"`
	OrganizerUserID   string         `db:"organizer_user_id"`
	CreatedOn         time.Time      `db:"created_on"`
	UpdatedOn         time.Time      `db:"updated_on"`
}

func (r competitionRow) toModel() *model.Competition {
	return &model.Competition{
		ID:                     r.ID,
		Name:                   r.Name,
		Description:            stringPtr(r.Description),
		DisciplineID:           r.DisciplineID,
		RegionID:               stringPtr(r.RegionID),
		Type:                   model.CompetitionType(r.Type),
		MaxParticipantsOrTeams: intPtr(r.MaxParticipants),
		RegistrationStart:      r.RegistrationStart.UTC(),
		RegistrationEnd:        r.RegistrationEnd.UTC(),
		Start:                  r.StartAt.UTC(),
		End:                    r.EndAt.UTC(),
		Status:                 model.CompetitionStatus(r.Status),
		OrganizerUserID:        r.OrganizerUserID,
		CreatedOn:              r.CreatedOn.UTC(),
		UpdatedOn:              r.UpdatedOn.UTC(),
	}
}

// CompetitionRepository stores competitions
type CompetitionRepository struct {
	s *store
}

// Create inserts a competition and assigns its ID
func (r *CompetitionRepository) Create(ctx context.Context, c *model.Competition) error {
	id := newID()
	now := r.s.now()

	_, err := qExec(ctx, r.s.db, psql.Insert("competitions").
		Columns(competitionColumns...).
		Values(id, c.Name, nullString(c.Description), c.DisciplineID, nullString(c.RegionID), string(c.Type),
			nullInt(c.MaxParticipantsOrTeams), c.RegistrationStart, c.RegistrationEnd,
			c.Start, c.End, string(c.Status), c.OrganizerUserID, now, now))
	if err != nil {
		return err
	}

	c.ID = id
	c.CreatedOn = now
	c.UpdatedOn = now
	return nil
}

// GetByID retrieves a competition by ID
func (r *CompetitionRepository) GetByID(ctx context.Context, id string) (*model.Competition, error) {
	var row competitionRow
	found, err := getOptional(ctx, r.s.db, &row, psql.Select(competitionColumns...).From("competitions").Where(sq.Eq{"id": id}))
	if err != nil || !found {
		return nil, err
	}
	return row.toModel(), nil
}

// UpdateStatus overwrites a competition's status
func (r *CompetitionRepository) UpdateStatus(ctx context.Context, id string, status model.CompetitionStatus) error {
	n, err := qExec(ctx, r.s.db, psql.Update("competitions").
		Set("status", string(status)).
		Set("updated_on", r.s.now()).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}

// Delete removes a competition with its join requests and terminal
// applications. Locking the competition row blocks new applications and
// approvals until the transaction ends; any active application left fails the
// delete with database.ErrInUse.
func (r *CompetitionRepository) Delete(ctx context.Context, id string) error {
	return r.s.withTx(ctx, func(tx *sqlx.Tx) error {
		var locked string
		if err := qGet(ctx, tx, &locked, psql.Select("id").From("competitions").Where(sq.Eq{"id": id}).Suffix("FOR UPDATE")); err != nil {
			return err
		}

		if _, err := qExec(ctx, tx, psql.Delete("applications").
			Where(sq.Eq{"competition_id": id}).
			Where(sq.NotEq{"status": activeStatusValues()})); err != nil {
			return fmt.Errorf("failed to delete applications: %w", err)
		}
		if err := requireNoApplications(ctx, tx, sq.Eq{"competition_id": id}); err != nil {
			return err
		}

		if _, err := qExec(ctx, tx, psql.Delete("join_requests").Where(sq.Eq{"competition_id": id})); err != nil {
			return fmt.Errorf("failed to delete join requests: %w", err)
		}
		_, err := qExec(ctx, tx, psql.Delete("competitions").Where(sq.Eq{"id": id}))
		return err
	})
}

// ListForStatusSync returns competitions whose status is still derived from time
func (r *CompetitionRepository) ListForStatusSync(ctx context.Context) ([]*model.Competition, error) {
	var rows []competitionRow
	err := qSelect(ctx, r.s.db, &rows, psql.Select(competitionColumns...).
		From("competitions").
		Where(sq.NotEq{"status": []string{string(model.CompetitionStatusDraft), string(model.CompetitionStatusFinished)}}).
		OrderBy("registration_start"))
	if err != nil {
		return nil, err
	}

	out := make([]*model.Competition, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}
