package repository

import (
	"context"
	"fmt"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

// CompetitionRepository handles competition data access
type CompetitionRepository struct {
	db database.Database
}

// NewCompetitionRepository creates a new competition repository
func NewCompetitionRepository(db database.Database) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

// Create creates a new competition
func (r *CompetitionRepository) Create(ctx context.Context, c *model.Competition) error {
	query := `
		CREATE competition CONTENT {
			name: $name,
			description: IF $description IS NOT NULL THEN $description ELSE NONE END,
			discipline_id: $discipline_id,
			region_id: IF $region_id IS NOT NULL THEN $region_id ELSE NONE END,
			type: $type,
			max_participants_or_teams: IF $max IS NOT NULL THEN $max ELSE NONE END,
			registration_start: <datetime> $registration_start,
			registration_end: <datetime> $registration_end,
			start: <datetime> $start,
			end: <datetime> $end,
			status: $status,
			organizer_user_id: $organizer_user_id,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"name":               c.Name,
		"description":        nilIfNilString(c.Description),
		"discipline_id":      c.DisciplineID,
		"region_id":          nilIfNilString(c.RegionID),
		"type":               string(c.Type),
		"max":                nilIfNilInt(c.MaxParticipantsOrTeams),
		"registration_start": c.RegistrationStart.UTC(),
		"registration_end":   c.RegistrationEnd.UTC(),
		"start":              c.Start.UTC(),
		"end":                c.End.UTC(),
		"status":             string(c.Status),
		"organizer_user_id":  c.OrganizerUserID,
	}

	records, err := queryRecords(ctx, r.db, query, vars)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: create returned no record", database.ErrQuery)
	}

	created := parseCompetition(records[0])
	c.ID = created.ID
	c.CreatedOn = created.CreatedOn
	c.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a competition by ID
func (r *CompetitionRepository) GetByID(ctx context.Context, id string) (*model.Competition, error) {
	record, err := queryOneRecord(ctx, r.db, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil || record == nil {
		return nil, err
	}
	return parseCompetition(record), nil
}

// UpdateStatus overwrites a competition's status
func (r *CompetitionRepository) UpdateStatus(ctx context.Context, id string, status model.CompetitionStatus) error {
	query := `UPDATE type::record($id) SET status = $status, updated_on = time::now() RETURN AFTER`
	records, err := queryRecords(ctx, r.db, query, map[string]interface{}{
		"id":     id,
		"status": string(status),
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return database.ErrNotFound
	}
	return nil
}

// Delete removes a competition with its applications, join requests and locks.
// The batch throws while any application lock of the competition is held, and
// the delete then fails with database.ErrInUse.
func (r *CompetitionRepository) Delete(ctx context.Context, id string) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return database.ErrNotFound
	}

	vars := map[string]interface{}{"id": id}
	return database.NewAtomicBatch().
		Add(inUseGuard(`competition_id = $id`), vars).
		Add(`DELETE application_lock WHERE competition_id = $id`, vars).
		Add(`DELETE type::thing('approval_guard', $id)`, vars).
		Add(`DELETE join_request_lock WHERE competition_id = $id`, vars).
		Add(`DELETE application WHERE competition_id = $id`, vars).
		Add(`DELETE join_request WHERE competition_id = $id`, vars).
		Add(`DELETE type::record($id)`, vars).
		Execute(ctx, r.db)
}

// ListForStatusSync returns competitions whose status is still derived from time
func (r *CompetitionRepository) ListForStatusSync(ctx context.Context) ([]*model.Competition, error) {
	query := `SELECT * FROM competition WHERE status NOT IN $skip`
	records, err := queryRecords(ctx, r.db, query, map[string]interface{}{
		"skip": []string{string(model.CompetitionStatusDraft), string(model.CompetitionStatusFinished)},
	})
	if err != nil {
		return nil, err
	}

	out := make([]*model.Competition, 0, len(records))
	for _, record := range records {
		out = append(out, parseCompetition(record))
	}
	return out, nil
}

func parseCompetition(data map[string]interface{}) *model.Competition {
	return &model.Competition{
		ID:                     convertID(data["id"]),
		Name:                   getString(data, "name"),
		Description:            getStringPtr(data, "description"),
		DisciplineID:           getString(data, "discipline_id"),
		RegionID:               getStringPtr(data, "region_id"),
		Type:                   model.CompetitionType(getString(data, "type")),
		MaxParticipantsOrTeams: getIntPtr(data, "max_participants_or_teams"),
		RegistrationStart:      getTimeValue(data, "registration_start"),
		RegistrationEnd:        getTimeValue(data, "registration_end"),
		Start:                  getTimeValue(data, "start"),
		End:                    getTimeValue(data, "end"),
		Status:                 model.CompetitionStatus(getString(data, "status")),
		OrganizerUserID:        getString(data, "organizer_user_id"),
		CreatedOn:              getTimeValue(data, "created_on"),
		UpdatedOn:              getTimeValue(data, "updated_on"),
	}
}
