package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

type teamRow struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	CaptainUserID string    `db:"captain_user_id"`
	CreatedOn     time.Time `db:"created_on"`
}

func (r teamRow) toModel() *model.Team {
	return &model.Team{ID: r.ID, Name: r.Name, CaptainUserID: r.CaptainUserID, CreatedOn: r.CreatedOn.UTC()}
}

type memberRow struct {
	ID       string    `db:"id"`
	TeamID   string    `db:"team_id"`
	UserID   string    `db:"user_id"`
	JoinedOn time.Time `db:"joined_on"`
}

func (r memberRow) toModel() *model.TeamMember {
	return &model.TeamMember{ID: r.ID, TeamID: r.TeamID, UserID: r.UserID, JoinedOn: r.JoinedOn.UTC()}
}

// TeamRepository stores teams and their member rows
type TeamRepository struct {
	s *store
}

// Create inserts a team and assigns its ID
func (r *TeamRepository) Create(ctx context.Context, team *model.Team) error {
	id := newID()
	now := r.s.now()
	_, err := qExec(ctx, r.s.db, psql.Insert("teams").
		Columns("id", "name", "captain_user_id", "created_on").
		Values(id, team.Name, team.CaptainUserID, now))
	if err != nil {
		return err
	}
	team.ID = id
	team.CreatedOn = now
	return nil
}

// GetByID retrieves a team by ID
func (r *TeamRepository) GetByID(ctx context.Context, id string) (*model.Team, error) {
	var row teamRow
	found, err := getOptional(ctx, r.s.db, &row, psql.
		Select("id", "name", "captain_user_id", "created_on").
		From("teams").
		Where(sq.Eq{"id": id}))
	if err != nil || !found {
		return nil, err
	}
	return row.toModel(), nil
}

// Rename changes a team's name
func (r *TeamRepository) Rename(ctx context.Context, id, name string) (*model.Team, error) {
	var row teamRow
	err := qGet(ctx, r.s.db, &row, psql.Update("teams").
		Set("name", name).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, name, captain_user_id, created_on"))
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// Delete removes a team with its join requests, member rows and terminal
// applications. The team row is locked first so no application can be filed
// for it until the transaction ends; any pending, approved or forming
// application left fails the delete with database.ErrInUse.
func (r *TeamRepository) Delete(ctx context.Context, id string) error {
	return r.s.withTx(ctx, func(tx *sqlx.Tx) error {
		var locked string
		if err := qGet(ctx, tx, &locked, psql.Select("id").From("teams").Where(sq.Eq{"id": id}).Suffix("FOR UPDATE")); err != nil {
			return err
		}

		if _, err := qExec(ctx, tx, psql.Delete("applications").
			Where(sq.Eq{"applicant_team_id": id}).
			Where(sq.NotEq{"status": activeStatusValues()})); err != nil {
			return fmt.Errorf("failed to delete applications: %w", err)
		}
		if err := requireNoApplications(ctx, tx, sq.Eq{"applicant_team_id": id}); err != nil {
			return err
		}

		if _, err := qExec(ctx, tx, psql.Delete("join_requests").Where(sq.Eq{"team_id": id})); err != nil {
			return fmt.Errorf("failed to delete join requests: %w", err)
		}
		if _, err := qExec(ctx, tx, psql.Delete("team_members").Where(sq.Eq{"team_id": id})); err != nil {
			return fmt.Errorf("failed to delete members: %w", err)
		}
		_, err := qExec(ctx, tx, psql.Delete("teams").Where(sq.Eq{"id": id}))
		return err
	})
}

// ListByCaptain lists teams the user captains, newest first
func (r *TeamRepository) ListByCaptain(ctx context.Context, userID string) ([]*model.Team, error) {
	return r.listTeams(ctx, psql.Select("id", "name", "captain_user_id", "created_on").
		From("teams").
		Where(sq.Eq{"captain_user_id": userID}).
		OrderBy("created_on DESC"))
}

// ListByMember lists teams the user belongs to through a member row
func (r *TeamRepository) ListByMember(ctx context.Context, userID string) ([]*model.Team, error) {
	return r.listTeams(ctx, psql.Select("t.id", "t.name", "t.captain_user_id", "t.created_on").
		From("teams t").
		Join("team_members m ON m.team_id = t.id").
		Where(sq.Eq{"m.user_id": userID}).
		OrderBy("t.created_on DESC"))
}

// ListMembers lists a team's member rows, oldest first
func (r *TeamRepository) ListMembers(ctx context.Context, teamID string) ([]*model.TeamMember, error) {
	var rows []memberRow
	err := qSelect(ctx, r.s.db, &rows, psql.Select("id", "team_id", "user_id", "joined_on").
		From("team_members").
		Where(sq.Eq{"team_id": teamID}).
		OrderBy("joined_on"))
	if err != nil {
		return nil, err
	}

	out := make([]*model.TeamMember, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

// GetMember retrieves a member row by ID
func (r *TeamRepository) GetMember(ctx context.Context, memberID string) (*model.TeamMember, error) {
	var row memberRow
	found, err := getOptional(ctx, r.s.db, &row, psql.Select("id", "team_id", "user_id", "joined_on").
		From("team_members").
		Where(sq.Eq{"id": memberID}))
	if err != nil || !found {
		return nil, err
	}
	return row.toModel(), nil
}

// AddMember inserts a member row. team_members_team_user_key rejects a
// second row for the same user with database.ErrDuplicate.
func (r *TeamRepository) AddMember(ctx context.Context, member *model.TeamMember) error {
	id := newID()
	now := r.s.now()
	_, err := qExec(ctx, r.s.db, psql.Insert("team_members").
		Columns("id", "team_id", "user_id", "joined_on").
		Values(id, member.TeamID, member.UserID, now))
	if err != nil {
		return err
	}
	member.ID = id
	member.JoinedOn = now
	return nil
}

// RemoveMember deletes a member row
func (r *TeamRepository) RemoveMember(ctx context.Context, memberID string) error {
	n, err := qExec(ctx, r.s.db, psql.Delete("team_members").Where(sq.Eq{"id": memberID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (r *TeamRepository) listTeams(ctx context.Context, b sq.SelectBuilder) ([]*model.Team, error) {
	var rows []teamRow
	if err := qSelect(ctx, r.s.db, &rows, b); err != nil {
		return nil, err
	}

	out := make([]*model.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}
