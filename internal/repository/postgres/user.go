package postgres

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/sportfed/arena/internal/model"
)

type userRow struct {
	ID        string         `db:"id"`
	FullName  string         `db:"full_name"`
	Email     string         `db:"email"`
	RegionID  sql.NullString `db:"region_id"`
	Role      string         `db:"role"`
	CreatedOn time.Time      `db:"created_on"`
}

// UserRepository reads the federation's user records
type UserRepository struct {
	s *store
}

// Create inserts a user, assigning an ID when none is set
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = newID()
	}
	if u.Role == "" {
		u.Role = model.UserRoleParticipant
	}
	u.CreatedOn = r.s.now()

	_, err := qExec(ctx, r.s.db, psql.Insert("users").
		Columns("id", "full_name", "email", "region_id", "role", "created_on").
		Values(u.ID, u.FullName, u.Email, nullString(u.RegionID), string(u.Role), u.CreatedOn))
	return err
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var row userRow
	found, err := getOptional(ctx, r.s.db, &row, psql.
		Select("id", "full_name", "email", "region_id", "role", "created_on").
		From("users").
		Where(sq.Eq{"id": id}))
	if err != nil || !found {
		return nil, err
	}
	return &model.User{
		ID:        row.ID,
		FullName:  row.FullName,
		Email:     row.Email,
		RegionID:  stringPtr(row.RegionID),
		Role:      model.UserRole(row.Role),
		CreatedOn: row.CreatedOn.UTC(),
	}, nil
}
