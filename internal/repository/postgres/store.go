// Package postgres implements the entity store on PostgreSQL.
//
// Queries are built with squirrel using $n placeholders and executed through
// sqlx. Status-dependent uniqueness rules are partial unique indexes (see
// schema.go); a violation comes back from pgx as SQLSTATE 23505 and is
// reported as database.ErrDuplicate.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/sportfed/arena/internal/database"
)

const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repositories bundles one repository per entity over a shared handle
type Repositories struct {
	Users        *UserRepository
	Competitions *CompetitionRepository
	Teams        *TeamRepository
	Applications *ApplicationRepository
	JoinRequests *JoinRequestRepository
}

// Option customises the repositories built by NewRepositories
type Option func(*store)

// WithClock overrides the timestamp source for created/updated columns
func WithClock(now func() time.Time) Option {
	return func(s *store) { s.now = now }
}

// NewRepositories wires every repository to db
func NewRepositories(db *sqlx.DB, opts ...Option) *Repositories {
	s := &store{db: db, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(s)
	}
	return &Repositories{
		Users:        &UserRepository{s: s},
		Competitions: &CompetitionRepository{s: s},
		Teams:        &TeamRepository{s: s},
		Applications: &ApplicationRepository{s: s},
		JoinRequests: &JoinRequestRepository{s: s},
	}
}

type store struct {
	db  *sqlx.DB
	now func() time.Time
}

func newID() string {
	return uuid.NewString()
}

/* ===================== SQUIRREL HELPERS ===================== */

func qGet(ctx context.Context, q sqlx.QueryerContext, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	return mapError(sqlx.GetContext(ctx, q, dest, query, args...))
}

func qSelect(ctx context.Context, q sqlx.QueryerContext, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	return mapError(sqlx.SelectContext(ctx, q, dest, query, args...))
}

func qExec(ctx context.Context, e sqlx.ExecerContext, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

// withTx runs fn in a transaction, committing on success
func (s *store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapError(err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return mapError(tx.Commit())
}

// getOptional runs a single-row query; a missing row is reported as found=false
func getOptional(ctx context.Context, q sqlx.QueryerContext, dest interface{}, b sq.Sqlizer) (bool, error) {
	err := qGet(ctx, q, dest, b)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// mapError translates driver errors onto the database sentinels
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return database.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", database.ErrDuplicate, pgErr.ConstraintName)
		}
		return fmt.Errorf("%w: %s", database.ErrQuery, pgErr.Message)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", database.ErrConnection, err)
	}
	return fmt.Errorf("%w: %v", database.ErrQuery, err)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}
