package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/model"
)

// ApplicationRepository handles application data access.
//
// An application_lock record keyed by [competition_id, applicant_id] exists
// exactly while that applicant holds a pending, approved or forming
// application. Creating a second lock fails inside the same transaction as the
// write, which keeps concurrent submissions from both succeeding.
type ApplicationRepository struct {
	db database.Database
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db database.Database) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const createApplicationLock = `
	CREATE type::thing('application_lock', [$competition_id, $applicant_id]) CONTENT {
		competition_id: $competition_id,
		applicant_id: $applicant_id,
		created_on: time::now()
	}
`

const deleteApplicationLock = `DELETE type::thing('application_lock', [$competition_id, $applicant_id])`

// Create inserts an application. A second active application for the same
// competition and applicant fails with database.ErrDuplicate.
func (r *ApplicationRepository) Create(ctx context.Context, app *model.Application) error {
	lockVars := map[string]interface{}{
		"competition_id": app.CompetitionID,
		"applicant_id":   app.ApplicantID(),
	}

	tb := database.NewTxBuilder()
	if !app.Status.IsTerminal() {
		tb.Add(createApplicationLock, lockVars)
	}
	tb.Add(`
		CREATE application CONTENT {
			competition_id: $competition_id,
			type: $type,
			applicant_user_id: IF $applicant_user_id IS NOT NULL THEN $applicant_user_id ELSE NONE END,
			applicant_team_id: IF $applicant_team_id IS NOT NULL THEN $applicant_team_id ELSE NONE END,
			status: $status,
			recruiting: IF $recruiting IS NOT NULL THEN $recruiting ELSE NONE END,
			submitted_on: time::now(),
			updated_on: time::now()
		}
	`, map[string]interface{}{
		"competition_id":    app.CompetitionID,
		"type":              string(app.Type),
		"applicant_user_id": nilIfNilString(app.ApplicantUserID),
		"applicant_team_id": nilIfNilString(app.ApplicantTeamID),
		"status":            string(app.Status),
		"recruiting":        recruitingContent(app.Recruiting),
	})

	results, err := database.ExecuteTransaction(ctx, r.db, tb)
	if err != nil {
		return err
	}
	records := lastRecords(results)
	if len(records) == 0 {
		return fmt.Errorf("%w: create returned no record", database.ErrQuery)
	}

	created := parseApplication(records[0])
	app.ID = created.ID
	app.SubmittedOn = created.SubmittedOn
	app.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves an application by ID
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*model.Application, error) {
	record, err := queryOneRecord(ctx, r.db, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil || record == nil {
		return nil, err
	}
	return parseApplication(record), nil
}

// ListByCompetition lists a competition's applications, newest first
func (r *ApplicationRepository) ListByCompetition(ctx context.Context, competitionID string, filter model.ApplicationFilter) ([]*model.Application, error) {
	conditions := []string{"competition_id = $competition_id"}
	vars := map[string]interface{}{"competition_id": competitionID}
	if filter.Status != nil {
		conditions = append(conditions, "status = $status")
		vars["status"] = string(*filter.Status)
	}
	if filter.Type != nil {
		conditions = append(conditions, "type = $type")
		vars["type"] = string(*filter.Type)
	}

	query := fmt.Sprintf(`SELECT * FROM application WHERE %s ORDER BY submitted_on DESC`, strings.Join(conditions, " AND "))
	return r.list(ctx, query, vars)
}

// ListByTeam lists every application a team has submitted, newest first
func (r *ApplicationRepository) ListByTeam(ctx context.Context, teamID string) ([]*model.Application, error) {
	query := `SELECT * FROM application WHERE applicant_team_id = $team_id ORDER BY submitted_on DESC`
	return r.list(ctx, query, map[string]interface{}{"team_id": teamID})
}

// FindActive returns the non-terminal application for (competition, applicant), if any
func (r *ApplicationRepository) FindActive(ctx context.Context, competitionID, applicantID string) (*model.Application, error) {
	query := `
		SELECT * FROM application
		WHERE competition_id = $competition_id
			AND (applicant_user_id = $applicant_id OR applicant_team_id = $applicant_id)
			AND status IN $active
		LIMIT 1
	`
	apps, err := r.list(ctx, query, map[string]interface{}{
		"competition_id": competitionID,
		"applicant_id":   applicantID,
		"active":         activeStatuses(),
	})
	if err != nil || len(apps) == 0 {
		return nil, err
	}
	return apps[0], nil
}

// CountByStatus counts a competition's applications in one status
func (r *ApplicationRepository) CountByStatus(ctx context.Context, competitionID string, status model.ApplicationStatus) (int, error) {
	query := `SELECT count() FROM application WHERE competition_id = $competition_id AND status = $status GROUP ALL`
	records, err := queryRecords(ctx, r.db, query, map[string]interface{}{
		"competition_id": competitionID,
		"status":         string(status),
	})
	if err != nil {
		return 0, err
	}
	return extractCount(records), nil
}

// UpdateStatus moves an application from one status to another in a single
// transaction. The write only applies while the stored status is still from;
// otherwise it fails with database.ErrConflict. Leaving the active set
// releases the applicant's lock and re-entering it takes the lock again,
// failing with database.ErrDuplicate when another application holds it.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, from, to model.ApplicationStatus) (*model.Application, error) {
	return r.move(ctx, id, from, to, nil)
}

// Approve moves an application from from to approved. The transaction first
// touches the competition's approval_guard record, so concurrent approvals of
// one competition conflict with each other, then throws database.LimitMarker
// when the competition already holds as many approved applications as it
// admits. That surfaces as database.ErrLimitReached.
func (r *ApplicationRepository) Approve(ctx context.Context, id string, from model.ApplicationStatus) (*model.Application, error) {
	return r.move(ctx, id, from, model.ApplicationStatusApproved, func(tb *database.TxBuilder, current *model.Application) {
		vars := map[string]interface{}{
			"competition_id": current.CompetitionID,
			"approved":       string(model.ApplicationStatusApproved),
		}
		tb.Add(`UPSERT type::thing('approval_guard', $competition_id) SET touched_on = time::now()`, vars)
		tb.Add(`LET $capacity = (SELECT VALUE max_participants_or_teams FROM type::record($competition_id))[0]`, vars)
		tb.Add(`IF $capacity != NONE AND $capacity != NULL
			AND array::len((SELECT VALUE id FROM application WHERE competition_id = $competition_id AND status = $approved)) >= $capacity
			{ THROW "`+database.LimitMarker+`" }`, vars)
	})
}

func (r *ApplicationRepository) move(ctx context.Context, id string, from, to model.ApplicationStatus, guard func(tb *database.TxBuilder, current *model.Application)) (*model.Application, error) {
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

	idVars := map[string]interface{}{"id": id}
	lockVars := map[string]interface{}{
		"competition_id": current.CompetitionID,
		"applicant_id":   current.ApplicantID(),
	}

	tb := database.NewTxBuilder()
	if guard != nil {
		guard(tb, current)
	}
	tb.Add(`LET $updated = UPDATE type::record($id) SET status = $to, updated_on = time::now() WHERE status = $from RETURN AFTER`,
		map[string]interface{}{"id": id, "from": string(from), "to": string(to)})
	tb.Add(conflictGuard, nil)
	switch {
	case !from.IsTerminal() && to.IsTerminal():
		tb.Add(deleteApplicationLock, lockVars)
	case from.IsTerminal() && !to.IsTerminal():
		tb.Add(createApplicationLock, lockVars)
	}
	tb.Add(`SELECT * FROM type::record($id)`, idVars)

	results, err := database.ExecuteTransaction(ctx, r.db, tb)
	if err != nil {
		return nil, err
	}
	records := lastRecords(results)
	if len(records) == 0 {
		return nil, database.ErrNotFound
	}
	return parseApplication(records[0]), nil
}

// UpdateRecruiting replaces the recruiting advertisement of a forming
// application. It fails with database.ErrConflict once the application has
// left forming.
func (r *ApplicationRepository) UpdateRecruiting(ctx context.Context, id string, info *model.RecruitingInfo) (*model.Application, error) {
	query := `
		UPDATE type::record($id) SET
			recruiting = $recruiting,
			updated_on = time::now()
		WHERE status = $forming
		RETURN AFTER
	`
	records, err := queryRecords(ctx, r.db, query, map[string]interface{}{
		"id":         id,
		"recruiting": recruitingContent(info),
		"forming":    string(model.ApplicationStatusForming),
	})
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		return parseApplication(records[0]), nil
	}

	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, database.ErrNotFound
	}
	return nil, database.ErrConflict
}

func (r *ApplicationRepository) list(ctx context.Context, query string, vars map[string]interface{}) ([]*model.Application, error) {
	records, err := queryRecords(ctx, r.db, query, vars)
	if err != nil {
		return nil, err
	}
	apps := make([]*model.Application, 0, len(records))
	for _, record := range records {
		apps = append(apps, parseApplication(record))
	}
	return apps, nil
}

func activeStatuses() []string {
	out := make([]string, 0, len(model.ActiveApplicationStatuses))
	for _, s := range model.ActiveApplicationStatuses {
		out = append(out, string(s))
	}
	return out
}

func recruitingContent(info *model.RecruitingInfo) interface{} {
	if info == nil {
		return nil
	}
	roles := info.RolesNeeded
	if roles == nil {
		roles = []string{}
	}
	return map[string]interface{}{
		"required_members": nilIfNilInt(info.RequiredMembers),
		"roles_needed":     roles,
	}
}

func parseApplication(data map[string]interface{}) *model.Application {
	app := &model.Application{
		ID:              convertID(data["id"]),
		CompetitionID:   getString(data, "competition_id"),
		Type:            model.ApplicationType(getString(data, "type")),
		ApplicantUserID: getStringPtr(data, "applicant_user_id"),
		ApplicantTeamID: getStringPtr(data, "applicant_team_id"),
		Status:          model.ApplicationStatus(getString(data, "status")),
		SubmittedOn:     getTimeValue(data, "submitted_on"),
		UpdatedOn:       getTimeValue(data, "updated_on"),
	}
	if rec := getMap(data, "recruiting"); rec != nil {
		app.Recruiting = &model.RecruitingInfo{
			RequiredMembers: getIntPtr(rec, "required_members"),
			RolesNeeded:     getStringSlice(rec, "roles_needed"),
		}
	}
	return app
}
