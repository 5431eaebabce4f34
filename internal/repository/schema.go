package repository

import (
	"context"
	"fmt"

	"github.com/sportfed/arena/internal/database"
)

// schemaStatements define the tables and indexes the SurrealDB store relies on.
// Lock tables carry the uniqueness rules that depend on a row's status: a lock
// record exists exactly while the guarded row is active.
var schemaStatements = []string{
	`DEFINE TABLE IF NOT EXISTS user SCHEMALESS`,
	`DEFINE TABLE IF NOT EXISTS competition SCHEMALESS`,
	`DEFINE INDEX IF NOT EXISTS competition_status ON competition FIELDS status`,
	`DEFINE TABLE IF NOT EXISTS team SCHEMALESS`,
	`DEFINE INDEX IF NOT EXISTS team_captain ON team FIELDS captain_user_id`,
	`DEFINE TABLE IF NOT EXISTS team_member SCHEMALESS`,
	`DEFINE INDEX IF NOT EXISTS team_member_unique ON team_member FIELDS team_id, user_id UNIQUE`,
	`DEFINE INDEX IF NOT EXISTS team_member_user ON team_member FIELDS user_id`,
	`DEFINE TABLE IF NOT EXISTS application SCHEMALESS`,
	`DEFINE INDEX IF NOT EXISTS application_competition ON application FIELDS competition_id, status`,
	`DEFINE INDEX IF NOT EXISTS application_team ON application FIELDS applicant_team_id`,
	`DEFINE TABLE IF NOT EXISTS application_lock SCHEMALESS`,
	`DEFINE TABLE IF NOT EXISTS approval_guard SCHEMALESS`,
	`DEFINE TABLE IF NOT EXISTS join_request SCHEMALESS`,
	`DEFINE INDEX IF NOT EXISTS join_request_team ON join_request FIELDS team_id, status`,
	`DEFINE TABLE IF NOT EXISTS join_request_lock SCHEMALESS`,
}

// DefineSchema creates the SurrealDB tables and indexes. It is idempotent.
func DefineSchema(ctx context.Context, db database.Database) error {
	for _, stmt := range schemaStatements {
		if err := db.Execute(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to apply %q: %w", stmt, err)
		}
	}
	return nil
}
