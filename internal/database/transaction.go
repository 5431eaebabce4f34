package database

// Transaction Utilities
//
// # AtomicBatch
//
// Fluent API for a handful of SurrealDB statements that must succeed together:
//
//	batch := NewAtomicBatch()
//	batch.Add(query1, vars1)
//	batch.Add(query2, vars2)
//	batch.Execute(ctx, db)  // All or nothing
//
// # TxBuilder
//
// Combines statements whose variable names may collide. Variables are
// namespaced ($team_id -> $v1_team_id):
//
//	tb := NewTxBuilder()
//	tb.Add("DELETE team_member WHERE team_id = $team_id", vars1)
//	tb.Add("DELETE type::record($team_id)", vars2)
//	ExecuteTransaction(ctx, db, tb)
//
// # MultiStepOperation
//
// Store-agnostic sequence of writes where each completed step can be
// compensated if a later step fails:
//
//	op := NewMultiStepOperation()
//	op.AddStep("step1", executeFunc, rollbackFunc)
//	op.AddStep("step2", executeFunc, nil)
//	op.Execute(ctx)  // Rollbacks run in reverse order on failure

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// TxBuilder builds atomic transaction queries with automatic variable namespacing.
type TxBuilder struct {
	statements []string
	vars       map[string]interface{}
	varCounter uint64
}

// NewTxBuilder creates a new transaction builder
func NewTxBuilder() *TxBuilder {
	return &TxBuilder{
		statements: make([]string, 0),
		vars:       make(map[string]interface{}),
	}
}

// Add adds a statement to the transaction, namespacing variables to avoid collisions.
// Returns the mapping from original to namespaced variable names.
func (tb *TxBuilder) Add(query string, vars map[string]interface{}) map[string]string {
	varMapping := make(map[string]string, len(vars))

	// Longest names first so $team is not substituted inside $team_id
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	tb.varCounter++
	newQuery := query
	for _, name := range names {
		newName := fmt.Sprintf("v%d_%s", tb.varCounter, name)
		newQuery = strings.ReplaceAll(newQuery, "$"+name, "$"+newName)
		tb.vars[newName] = vars[name]
		varMapping[name] = newName
	}

	tb.statements = append(tb.statements, newQuery)
	return varMapping
}

// Len returns the number of statements added so far
func (tb *TxBuilder) Len() int {
	return len(tb.statements)
}

// Build returns the complete transaction query and merged variables
func (tb *TxBuilder) Build() (string, map[string]interface{}) {
	if len(tb.statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range tb.statements {
		sb.WriteString(stmt)
		if !strings.HasSuffix(strings.TrimSpace(stmt), ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	return sb.String(), tb.vars
}

// ExecuteTransaction executes a transaction built with TxBuilder
func ExecuteTransaction(ctx context.Context, db Database, tb *TxBuilder) ([]interface{}, error) {
	query, vars := tb.Build()
	if query == "" {
		return nil, nil
	}
	return db.Query(ctx, query, vars)
}

// AtomicBatch provides a simpler API for batch operations that should be atomic
type AtomicBatch struct {
	builder *TxBuilder
}

// NewAtomicBatch creates a new atomic batch
func NewAtomicBatch() *AtomicBatch {
	return &AtomicBatch{builder: NewTxBuilder()}
}

// Add adds a query to the batch
func (ab *AtomicBatch) Add(query string, vars map[string]interface{}) *AtomicBatch {
	ab.builder.Add(query, vars)
	return ab
}

// Execute runs all queries as a single transaction
func (ab *AtomicBatch) Execute(ctx context.Context, db Database) error {
	_, err := ExecuteTransaction(ctx, db, ab.builder)
	return err
}

// Len returns the number of queries in the batch
func (ab *AtomicBatch) Len() int {
	return ab.builder.Len()
}

// StepFunc is one unit of work in a MultiStepOperation
type StepFunc func(ctx context.Context) error

// MultiStepOperation executes a series of writes with compensating rollback on failure
type MultiStepOperation struct {
	steps           []multiStep
	keepOn          []error
	onRollbackError func(step string, err error)
}

type multiStep struct {
	name     string
	execute  StepFunc
	rollback StepFunc
}

// NewMultiStepOperation creates a new multi-step operation
func NewMultiStepOperation() *MultiStepOperation {
	return &MultiStepOperation{
		steps: make([]multiStep, 0),
	}
}

// AddStep adds a step with optional rollback
func (mso *MultiStepOperation) AddStep(name string, execute, rollback StepFunc) *MultiStepOperation {
	mso.steps = append(mso.steps, multiStep{
		name:     name,
		execute:  execute,
		rollback: rollback,
	})
	return mso
}

// KeepCompletedOn lists errors after which completed steps are left in place.
// A failing step whose error matches one of them returns without rollback.
func (mso *MultiStepOperation) KeepCompletedOn(errs ...error) *MultiStepOperation {
	mso.keepOn = append(mso.keepOn, errs...)
	return mso
}

// OnRollbackError registers a callback for compensation failures
func (mso *MultiStepOperation) OnRollbackError(fn func(step string, err error)) *MultiStepOperation {
	mso.onRollbackError = fn
	return mso
}

// Execute runs all steps, rolling back completed ones in reverse order on failure
func (mso *MultiStepOperation) Execute(ctx context.Context) error {
	completed := make([]int, 0, len(mso.steps))

	for i, step := range mso.steps {
		err := step.execute(ctx)
		if err == nil {
			completed = append(completed, i)
			continue
		}

		if !mso.keeps(err) {
			// Compensation must run even when the caller's context is done
			rbCtx := context.WithoutCancel(ctx)
			for j := len(completed) - 1; j >= 0; j-- {
				done := mso.steps[completed[j]]
				if done.rollback == nil {
					continue
				}
				if rbErr := done.rollback(rbCtx); rbErr != nil && mso.onRollbackError != nil {
					mso.onRollbackError(done.name, rbErr)
				}
			}
		}
		return fmt.Errorf("step %s failed: %w", step.name, err)
	}

	return nil
}

func (mso *MultiStepOperation) keeps(err error) bool {
	for _, target := range mso.keepOn {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
