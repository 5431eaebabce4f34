package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// SurrealDB implements the Database interface for SurrealDB
type SurrealDB struct {
	db     *surrealdb.DB
	config Config
}

// NewSurrealDB creates a new SurrealDB instance
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{
		config: cfg,
	}
}

// Connect establishes a connection to SurrealDB
func (s *SurrealDB) Connect(ctx context.Context) error {
	endpoint := fmt.Sprintf("ws://%s:%s", s.config.Host, s.config.Port)

	db, err := surrealdb.FromEndpointURLString(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	_, err = db.SignIn(ctx, &surrealdb.Auth{
		Username: s.config.User,
		Password: s.config.Password,
	})
	if err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: signin failed: %v", ErrConnection, err)
	}

	if err := db.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: use failed: %v", ErrConnection, err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SurrealDB) Close() error {
	if s.db != nil {
		return s.db.Close(context.Background())
	}
	return nil
}

// Ping checks the database connection
func (s *SurrealDB) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrConnection
	}
	if _, err := s.db.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Query executes a query and returns one {status, result} map per statement
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	if s.db == nil {
		return nil, ErrConnection
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	results, err := surrealdb.Query[interface{}](ctx, s.db, query, vars)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnection, ctxErr)
		}
		return nil, classifyQueryError(err.Error())
	}

	if results == nil {
		return nil, nil
	}

	// A failed statement inside a transaction block makes every statement
	// report an error; scan all of them so a constraint violation or a
	// thrown conflict wins over the generic "not executed" message.
	var firstErr error
	output := make([]interface{}, 0, len(*results))
	for _, r := range *results {
		if r.Status != "OK" {
			msg := ""
			if r.Error != nil {
				msg = r.Error.Message
			}
			qerr := classifyQueryError(msg)
			if errors.Is(qerr, ErrDuplicate) || errors.Is(qerr, ErrConflict) {
				return nil, qerr
			}
			if firstErr == nil {
				firstErr = qerr
			}
			continue
		}
		output = append(output, map[string]interface{}{
			"status": r.Status,
			"result": r.Result,
		})
	}
	if firstErr != nil {
		return nil, firstErr
	}

	return output, nil
}

// QueryOne executes a query and returns a single result
func (s *SurrealDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := s.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, ErrNotFound
	}

	// Unwrap the response wrapper {status: "OK", result: [...]}
	first := results[len(results)-1]
	if resp, ok := first.(map[string]interface{}); ok {
		if resultData, ok := resp["result"].([]interface{}); ok {
			if len(resultData) == 0 {
				return nil, ErrNotFound
			}
			return resultData[0], nil
		}
		if resp["result"] == nil {
			return nil, ErrNotFound
		}
		return resp["result"], nil
	}

	return first, nil
}

// Execute runs a query without returning results
func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := s.Query(ctx, query, vars)
	return err
}

// BeginTx starts a new batch transaction
func (s *SurrealDB) BeginTx(ctx context.Context) (Transaction, error) {
	if s.db == nil {
		return nil, ErrConnection
	}
	return &SurrealTransaction{
		db:      s,
		ctx:     ctx,
		builder: NewTxBuilder(),
	}, nil
}

// SurrealTransaction accumulates statements and runs them in one
// BEGIN/COMMIT block on Commit
type SurrealTransaction struct {
	db        Database
	ctx       context.Context
	builder   *TxBuilder
	committed bool
}

func (t *SurrealTransaction) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	t.builder.Add(query, vars)
	return nil
}

func (t *SurrealTransaction) Commit() error {
	if t.committed {
		return nil
	}
	if _, err := ExecuteTransaction(t.ctx, t.db, t.builder); err != nil {
		return err
	}
	t.committed = true
	return nil
}

func (t *SurrealTransaction) Rollback() error {
	t.builder = NewTxBuilder()
	return nil
}

// ConflictMarker is the message SurrealQL THROW statements use to signal a
// lost conditional write
const ConflictMarker = "conditional write conflict"

// InUseMarker is the message SurrealQL THROW statements use to refuse a
// delete while active rows reference the record
const InUseMarker = "record in use"

// LimitMarker is the message SurrealQL THROW statements use to refuse a write
// that would exceed a counted limit
const LimitMarker = "limit reached"

// classifyQueryError maps a SurrealDB error message onto the package sentinels
func classifyQueryError(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, ConflictMarker):
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	case strings.Contains(lower, InUseMarker):
		return fmt.Errorf("%w: %s", ErrInUse, msg)
	case strings.Contains(lower, LimitMarker):
		return fmt.Errorf("%w: %s", ErrLimitReached, msg)
	case strings.Contains(lower, "already exists"),
		strings.Contains(lower, "already contains"),
		strings.Contains(lower, "unique"),
		strings.Contains(lower, "duplicate"):
		return fmt.Errorf("%w: %s", ErrDuplicate, msg)
	case strings.Contains(lower, "connection"),
		strings.Contains(lower, "timeout"),
		strings.Contains(lower, "timed out"):
		return fmt.Errorf("%w: %s", ErrConnection, msg)
	case msg == "":
		return ErrQuery
	}
	return fmt.Errorf("%w: %s", ErrQuery, msg)
}
