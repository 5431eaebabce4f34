package repository

import (
	"context"
	"fmt"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

// TeamRepository handles team and roster data access. The unique
// team_member_unique index rejects a second row for the same (team, user).
type TeamRepository struct {
	db database.Database
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db database.Database) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create creates a new team
func (r *TeamRepository) Create(ctx context.Context, team *model.Team) error {
	query := `
		CREATE team CONTENT {
			name: $name,
			captain_user_id: $captain_user_id,
			created_on: time::now()
		}
	`
	records, err := queryRecords(ctx, r.db, query, map[string]interface{}{
		"name":            team.Name,
		"captain_user_id": team.CaptainUserID,
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: create returned no record", database.ErrQuery)
	}

	created := parseTeam(records[0])
	team.ID = created.ID
	team.CreatedOn = created.CreatedOn
	return nil
}

// GetByID retrieves a team by ID
func (r *TeamRepository) GetByID(ctx context.Context, id string) (*model.Team, error) {
	record, err := queryOneRecord(ctx, r.db, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil || record == nil {
		return nil, err
	}
	return parseTeam(record), nil
}

// Rename sets a team's name
func (r *TeamRepository) Rename(ctx context.Context, id, name string) (*model.Team, error) {
	query := `UPDATE type::record($id) SET name = $name RETURN AFTER`
	records, err := queryRecords(ctx, r.db, query, map[string]interface{}{"id": id, "name": name})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, database.ErrNotFound
	}
	return parseTeam(records[0]), nil
}

// Delete removes the team with its join requests, member rows, applications
// and locks. While the team holds an application lock, that is while any of its
// applications is pending, approved or forming, the batch throws and the delete
// fails with database.ErrInUse.
func (r *TeamRepository) Delete(ctx context.Context, id string) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return database.ErrNotFound
	}

	vars := map[string]interface{}{"id": id}
	return database.NewAtomicBatch().
		Add(inUseGuard(`applicant_id = $id`), vars).
		Add(`DELETE join_request_lock WHERE team_id = $id`, vars).
		Add(`DELETE join_request WHERE team_id = $id`, vars).
		Add(`DELETE team_member WHERE team_id = $id`, vars).
		Add(`DELETE application_lock WHERE applicant_id = $id`, vars).
		Add(`DELETE application WHERE applicant_team_id = $id`, vars).
		Add(`DELETE type::record($id)`, vars).
		Execute(ctx, r.db)
}

// ListByCaptain lists the teams a user captains
func (r *TeamRepository) ListByCaptain(ctx context.Context, userID string) ([]*model.Team, error) {
	query := `SELECT * FROM team WHERE captain_user_id = $user_id ORDER BY created_on`
	return r.listTeams(ctx, query, map[string]interface{}{"user_id": userID})
}

// ListByMember lists the teams a user belongs to without captaining them
func (r *TeamRepository) ListByMember(ctx context.Context, userID string) ([]*model.Team, error) {
	query := `
		SELECT * FROM team
		WHERE id IN (SELECT VALUE type::record(team_id) FROM team_member WHERE user_id = $user_id)
		ORDER BY created_on
	`
	return r.listTeams(ctx, query, map[string]interface{}{"user_id": userID})
}

// ListMembers lists a team's member rows in join order
func (r *TeamRepository) ListMembers(ctx context.Context, teamID string) ([]*model.TeamMember, error) {
	query := `SELECT * FROM team_member WHERE team_id = $team_id ORDER BY joined_on`
	records, err := queryRecords(ctx, r.db, query, map[string]interface{}{"team_id": teamID})
	if err != nil {
		return nil, err
	}
	members := make([]*model.TeamMember, 0, len(records))
	for _, record := range records {
		members = append(members, parseTeamMember(record))
	}
	return members, nil
}

// GetMember retrieves a member row by ID
func (r *TeamRepository) GetMember(ctx context.Context, memberID string) (*model.TeamMember, error) {
	record, err := queryOneRecord(ctx, r.db, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": memberID})
	if err != nil || record == nil {
		return nil, err
	}
	return parseTeamMember(record), nil
}

// AddMember inserts a member row. An existing (team, user) pair fails with
// database.ErrDuplicate.
func (r *TeamRepository) AddMember(ctx context.Context, member *model.TeamMember) error {
	query := `
		CREATE team_member CONTENT {
			team_id: $team_id,
			user_id: $user_id,
			joined_on: time::now()
		}
	`
	records, err := queryRecords(ctx, r.db, query, map[string]interface{}{
		"team_id": member.TeamID,
		"user_id": member.UserID,
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: create returned no record", database.ErrQuery)
	}

	created := parseTeamMember(records[0])
	member.ID = created.ID
	member.JoinedOn = created.JoinedOn
	return nil
}

// RemoveMember deletes a member row
func (r *TeamRepository) RemoveMember(ctx context.Context, memberID string) error {
	records, err := queryRecords(ctx, r.db, `DELETE type::record($id) RETURN BEFORE`, map[string]interface{}{"id": memberID})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (r *TeamRepository) listTeams(ctx context.Context, query string, vars map[string]interface{}) ([]*model.Team, error) {
	records, err := queryRecords(ctx, r.db, query, vars)
	if err != nil {
		return nil, err
	}
	teams := make([]*model.Team, 0, len(records))
	for _, record := range records {
		teams = append(teams, parseTeam(record))
	}
	return teams, nil
}

func parseTeam(data map[string]interface{}) *model.Team {
	return &model.Team{
		ID:            convertID(data["id"]),
		Name:          getString(data, "name"),
		CaptainUserID: getString(data, "captain_user_id"),
		CreatedOn:     getTimeValue(data, "created_on"),
	}
}

func parseTeamMember(data map[string]interface{}) *model.TeamMember {
	return &model.TeamMember{
		ID:       convertID(data["id"]),
		TeamID:   getString(data, "team_id"),
		UserID:   getString(data, "user_id"),
		JoinedOn: getTimeValue(data, "joined_on"),
	}
}
