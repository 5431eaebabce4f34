package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is applied in order by Apply. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		full_name  TEXT NOT NULL,
		email      TEXT NOT NULL DEFAULT '',
		region_id  TEXT,
		role       TEXT NOT NULL DEFAULT 'participant',
		created_on TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS competitions (
		id                        TEXT PRIMARY KEY,
		name                      TEXT NOT NULL,
		description               TEXT,
		discipline_id             TEXT NOT NULL,
		region_id                 TEXT,
		type                      TEXT NOT NULL CHECK (type IN ('open', 'regional', 'federal')),
		max_participants_or_teams INTEGER CHECK (max_participants_or_teams >= 1),
		registration_start        TIMESTAMPTZ NOT NULL,
		registration_end          TIMESTAMPTZ NOT NULL,
		start_at                  TIMESTAMPTZ NOT NULL,
		end_at                    TIMESTAMPTZ NOT NULL,
		status                    TEXT NOT NULL,
		organizer_user_id         TEXT NOT NULL,
		created_on                TIMESTAMPTZ NOT NULL,
		updated_on                TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS competitions_status_idx ON competitions (status)`,
	`CREATE TABLE IF NOT EXISTS teams (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		captain_user_id TEXT NOT NULL,
		created_on      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS teams_captain_idx ON teams (captain_user_id)`,
	`CREATE TABLE IF NOT EXISTS team_members (
		id        TEXT PRIMARY KEY,
		team_id   TEXT NOT NULL REFERENCES teams (id),
		user_id   TEXT NOT NULL,
		joined_on TIMESTAMPTZ NOT NULL,
		CONSTRAINT team_members_team_user_key UNIQUE (team_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS team_members_user_idx ON team_members (user_id)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id                TEXT PRIMARY KEY,
		competition_id    TEXT NOT NULL REFERENCES competitions (id),
		type              TEXT NOT NULL CHECK (type IN ('individual', 'team')),
		applicant_user_id TEXT,
		applicant_team_id TEXT REFERENCES teams (id),
		status            TEXT NOT NULL,
		recruiting        JSONB,
		submitted_on      TIMESTAMPTZ NOT NULL,
		updated_on        TIMESTAMPTZ NOT NULL,
		CHECK ((applicant_user_id IS NULL) <> (applicant_team_id IS NULL))
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS applications_active_key
		ON applications (competition_id, COALESCE(applicant_user_id, applicant_team_id))
		WHERE status IN ('pending', 'approved', 'forming')`,
	`CREATE INDEX IF NOT EXISTS applications_team_idx ON applications (applicant_team_id)`,
	`CREATE TABLE IF NOT EXISTS join_requests (
		id             TEXT PRIMARY KEY,
		team_id        TEXT NOT NULL REFERENCES teams (id),
		user_id        TEXT NOT NULL,
		competition_id TEXT NOT NULL REFERENCES competitions (id),
		status         TEXT NOT NULL,
		created_on     TIMESTAMPTZ NOT NULL,
		decided_on     TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS join_requests_pending_key
		ON join_requests (team_id, user_id, competition_id)
		WHERE status = 'pending'`,
}

// Apply creates the tables and indexes the store relies on. db may be a
// *sql.DB, a *sqlx.DB or a transaction.
func Apply(ctx context.Context, db sqlx.ExecerContext) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, mapError(err))
		}
	}
	return nil
}
