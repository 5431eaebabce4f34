package repository

import (
	"context"
	"fmt"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

// UserRepository reads the federation's user records
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user. Accounts belong to the identity provider; this is
// used to mirror them and to seed fixtures.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	role := user.Role
	if role == "" {
		role = model.UserRoleParticipant
	}

	query := `
		CREATE user CONTENT {
			full_name: $full_name,
			email: $email,
			region_id: IF $region_id IS NOT NULL THEN $region_id ELSE NONE END,
			role: $role,
			created_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"full_name": user.FullName,
		"email":     user.Email,
		"region_id": nilIfNilString(user.RegionID),
		"role":      string(role),
	}

	records, err := queryRecords(ctx, r.db, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: create returned no record", database.ErrQuery)
	}

	created := parseUser(records[0])
	user.ID = created.ID
	user.Role = role
	user.CreatedOn = created.CreatedOn
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	record, err := queryOneRecord(ctx, r.db, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil || record == nil {
		return nil, err
	}
	return parseUser(record), nil
}

func parseUser(data map[string]interface{}) *model.User {
	return &model.User{
		ID:        convertID(data["id"]),
		FullName:  getString(data, "full_name"),
		Email:     getString(data, "email"),
		RegionID:  getStringPtr(data, "region_id"),
		Role:      model.UserRole(getString(data, "role")),
		CreatedOn: getTimeValue(data, "created_on"),
	}
}
