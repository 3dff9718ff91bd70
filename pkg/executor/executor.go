// Package executor defines the contract that all query-engine executors
// implement, plus a named factory registry for constructing them.
//
// Concrete implementations live in pkg/executors/ subdirectories. The
// engine and quality-test runner depend only on this interface, so an
// engine-specific executor (BigQuery, Trino, ...) plugs in without
// touching the pipeline.
package executor

import "context"

// QueryResult is the outcome of one execute call.
type QueryResult struct {
	// Success reports whether the engine accepted the statement.
	Success bool
	// RowCount is rows returned (SELECT) or affected (DML).
	RowCount int64
	// Columns are result column names, empty for DML.
	Columns []string
	// Rows holds returned row data, empty for DML.
	Rows [][]any
	// Error is the engine-reported failure message.
	Error string
	// ElapsedMS is the engine-side duration.
	ElapsedMS int64
}

// DryRunResult is the outcome of a dry-run request.
type DryRunResult struct {
	Valid bool
	// Plan is the engine's plan text when valid.
	Plan string
	// Error is the rejection reason when invalid.
	Error string
}

// ColumnSchema describes one column of a table.
type ColumnSchema struct {
	Name string
	Type string
}

// Config holds connection settings for constructing an executor.
type Config struct {
	Type     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
}

// QueryExecutor is the boundary to a concrete query engine. Calls are
// synchronous and blocking; the implementation enforces the timeout.
type QueryExecutor interface {
	// Execute runs a statement, blocking until completion or timeout.
	Execute(ctx context.Context, sql string, timeoutSeconds int) QueryResult

	// DryRun validates a statement against the engine without running it.
	DryRun(ctx context.Context, sql string) DryRunResult

	// TestConnection reports whether the engine is reachable.
	TestConnection(ctx context.Context) bool

	// GetTableSchema returns the columns of a qualified table.
	GetTableSchema(ctx context.Context, table string) ([]ColumnSchema, error)

	// Close releases the underlying connection.
	Close() error
}
