package testdb

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/repository"
	"github.com/sportfed/arena/internal/testing/fixtures"
)

// tables cleared by Reset, children first
var tables = []string{"join_request", "application_lock", "application", "team_member", "team", "competition", "user"}

// TestDB provides an isolated database environment for testing.
// Each TestDB instance gets a unique namespace to ensure test isolation.
type TestDB struct {
	DB        *database.SurrealDB
	Namespace string
	Database  string
	t         *testing.T
}

var (
	// counterMu protects the namespace counter
	counterMu sync.Mutex
	counter   int64
)

// getTestConfig returns database config from environment or defaults.
// ok is false when TEST_DB_HOST is unset.
func getTestConfig() (cfg database.Config, ok bool) {
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		return cfg, false
	}

	port := os.Getenv("TEST_DB_PORT")
	if port == "" {
		port = "8000"
	}

	user := os.Getenv("TEST_DB_USER")
	if user == "" {
		user = "root"
	}

	password := os.Getenv("TEST_DB_PASSWORD")
	if password == "" {
		password = "root"
	}

	return database.Config{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		Timeout:  10 * time.Second,
	}, true
}

// uniqueNamespace generates a unique namespace for test isolation
func uniqueNamespace() string {
	counterMu.Lock()
	defer counterMu.Unlock()
	counter++
	return fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), counter)
}

// New creates an isolated SurrealDB test database with the schema applied.
// The test is skipped when TEST_DB_HOST is not set. The namespace is removed
// when the test finishes.
func New(t *testing.T) *TestDB {
	t.Helper()

	cfg, ok := getTestConfig()
	if !ok {
		t.Skip("testdb: TEST_DB_HOST not set, skipping SurrealDB test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	namespace := uniqueNamespace()
	dbName := "test"
	cfg.Namespace = namespace
	cfg.Database = dbName

	db := database.NewSurrealDB(cfg)
	if err := db.Connect(ctx); err != nil {
		t.Fatalf("testdb: failed to connect: %v", err)
	}

	tdb := &TestDB{
		DB:        db,
		Namespace: namespace,
		Database:  dbName,
		t:         t,
	}
	t.Cleanup(tdb.Close)

	if err := repository.DefineSchema(ctx, db); err != nil {
		t.Fatalf("testdb: failed to define schema: %v", err)
	}

	return tdb
}

// Close cleans up the test database by removing the namespace.
func (tdb *TestDB) Close() {
	if tdb.DB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := fmt.Sprintf("REMOVE NAMESPACE %s", tdb.Namespace)
	_ = tdb.DB.Execute(ctx, query, nil) // Ignore errors on cleanup

	_ = tdb.DB.Close()
	tdb.DB = nil
}

// Reset clears all data from tables while preserving schema.
func (tdb *TestDB) Reset(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, table := range tables {
		if err := tdb.DB.Execute(ctx, "DELETE FROM "+table, nil); err != nil {
			t.Fatalf("testdb: failed to clear table %s: %v", table, err)
		}
	}
}

// Repositories returns SurrealDB repositories bound to this database
func (tdb *TestDB) Repositories() *Repositories {
	return &Repositories{
		Users:        repository.NewUserRepository(tdb.DB),
		Competitions: repository.NewCompetitionRepository(tdb.DB),
		Teams:        repository.NewTeamRepository(tdb.DB),
		Applications: repository.NewApplicationRepository(tdb.DB),
		JoinRequests: repository.NewJoinRequestRepository(tdb.DB),
	}
}

// Repositories bundles the SurrealDB repositories of a TestDB
type Repositories struct {
	Users        *repository.UserRepository
	Competitions *repository.CompetitionRepository
	Teams        *repository.TeamRepository
	Applications *repository.ApplicationRepository
	JoinRequests *repository.JoinRequestRepository
}

// Fixtures returns a fixture factory writing through r
func (r *Repositories) Fixtures(now func() time.Time) *fixtures.Factory {
	return fixtures.New(fixtures.Repos{
		Users:        r.Users,
		Competitions: r.Competitions,
		Teams:        r.Teams,
		Applications: r.Applications,
	}, now)
}

// MustExec executes a query and fails the test on error.
func (tdb *TestDB) MustExec(query string, vars map[string]interface{}) {
	tdb.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := tdb.DB.Execute(ctx, query, vars); err != nil {
		tdb.t.Fatalf("testdb: exec failed: %v\nQuery: %s", err, query)
	}
}

// MustQuery executes a query and returns results, failing the test on error.
func (tdb *TestDB) MustQuery(query string, vars map[string]interface{}) []interface{} {
	tdb.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	results, err := tdb.DB.Query(ctx, query, vars)
	if err != nil {
		tdb.t.Fatalf("testdb: query failed: %v\nQuery: %s", err, query)
	}
	return results
}
