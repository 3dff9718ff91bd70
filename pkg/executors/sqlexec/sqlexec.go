// Package sqlexec provides the shared database/sql implementation of
// the QueryExecutor contract. Concrete executor packages wrap it with a
// driver, a DSN builder, and engine-specific schema/dry-run queries.
package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/1ambda/dataops-platform-sub001/pkg/executor"
)

// rowReturningKeywords are the leading keywords routed through Query
// instead of Exec.
var rowReturningKeywords = map[string]struct{}{
	"select": {}, "with": {}, "show": {}, "describe": {},
	"explain": {}, "values": {}, "pragma": {},
}

// Executor runs statements on a database/sql connection.
type Executor struct {
	DB     *sql.DB
	Logger *slog.Logger

	// ExplainPrefix is prepended for DryRun (e.g. "EXPLAIN ").
	ExplainPrefix string
}

// New wraps an open connection. A nil logger is replaced with discard.
func New(db *sql.DB, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{DB: db, Logger: logger, ExplainPrefix: "EXPLAIN "}
}

// ReturnsRows reports whether the statement's leading keyword produces
// a result set.
func ReturnsRows(sqlText string) bool {
	fields := strings.Fields(sqlText)
	if len(fields) == 0 {
		return false
	}
	_, ok := rowReturningKeywords[strings.ToLower(fields[0])]
	return ok
}

// Execute implements executor.QueryExecutor.
func (e *Executor) Execute(ctx context.Context, sqlText string, timeoutSeconds int) executor.QueryResult {
	if timeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
		defer cancel()
	}

	started := time.Now()
	var result executor.QueryResult
	if ReturnsRows(sqlText) {
		result = e.query(ctx, sqlText)
	} else {
		result = e.exec(ctx, sqlText)
	}
	result.ElapsedMS = time.Since(started).Milliseconds()

	if !result.Success {
		e.Logger.Debug("statement failed", "error", result.Error)
	}
	return result
}

func (e *Executor) query(ctx context.Context, sqlText string) executor.QueryResult {
	rows, err := e.DB.QueryContext(ctx, sqlText)
	if err != nil {
		return executor.QueryResult{Error: err.Error()}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return executor.QueryResult{Error: err.Error()}
	}

	var data [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return executor.QueryResult{Error: err.Error()}
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return executor.QueryResult{Error: err.Error()}
	}

	return executor.QueryResult{
		Success:  true,
		RowCount: int64(len(data)),
		Columns:  columns,
		Rows:     data,
	}
}

func (e *Executor) exec(ctx context.Context, sqlText string) executor.QueryResult {
	res, err := e.DB.ExecContext(ctx, sqlText)
	if err != nil {
		return executor.QueryResult{Error: err.Error()}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		// Some engines cannot report affected rows; the statement
		// still succeeded.
		affected = 0
	}
	return executor.QueryResult{Success: true, RowCount: affected}
}

// DryRun implements executor.QueryExecutor via EXPLAIN.
func (e *Executor) DryRun(ctx context.Context, sqlText string) executor.DryRunResult {
	rows, err := e.DB.QueryContext(ctx, e.ExplainPrefix+sqlText)
	if err != nil {
		return executor.DryRunResult{Error: err.Error()}
	}
	defer rows.Close()

	var plan strings.Builder
	cols, err := rows.Columns()
	if err != nil {
		return executor.DryRunResult{Error: err.Error()}
	}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return executor.DryRunResult{Error: err.Error()}
		}
		for i, v := range values {
			if i > 0 {
				plan.WriteByte('\t')
			}
			fmt.Fprintf(&plan, "%v", v)
		}
		plan.WriteByte('\n')
	}
	if err := rows.Err(); err != nil {
		return executor.DryRunResult{Error: err.Error()}
	}
	return executor.DryRunResult{Valid: true, Plan: plan.String()}
}

// TestConnection implements executor.QueryExecutor.
func (e *Executor) TestConnection(ctx context.Context) bool {
	return e.DB.PingContext(ctx) == nil
}

// Close implements executor.QueryExecutor.
func (e *Executor) Close() error {
	return e.DB.Close()
}

// SplitQualified splits catalog.schema.object into (schema, object),
// using defaultSchema when unqualified.
func SplitQualified(table, defaultSchema string) (string, string) {
	parts := strings.Split(table, ".")
	switch len(parts) {
	case 2:
		return parts[0], parts[1]
	case 3:
		return parts[1], parts[2]
	default:
		return defaultSchema, table
	}
}
