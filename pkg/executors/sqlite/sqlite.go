// Package sqlite implements the QueryExecutor contract on a local
// SQLite database. Registered under the name "sqlite".
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/1ambda/dataops-platform-sub001/pkg/executor"
	"github.com/1ambda/dataops-platform-sub001/pkg/executors/sqlexec"
)

func init() {
	executor.Register("sqlite", func(cfg executor.Config, logger *slog.Logger) (executor.QueryExecutor, error) {
		return New(cfg, logger)
	})
}

// SQLiteExecutor runs statements against a SQLite file or an in-memory
// database (Database ":memory:").
type SQLiteExecutor struct {
	*sqlexec.Executor
}

// New opens the configured database. An empty Database means ":memory:".
func New(cfg executor.Config, logger *slog.Logger) (*SQLiteExecutor, error) {
	dsn := cfg.Database
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	// The driver serializes writers; more connections just contend.
	db.SetMaxOpenConns(1)

	base := sqlexec.New(db, logger)
	base.ExplainPrefix = "EXPLAIN QUERY PLAN "
	return &SQLiteExecutor{Executor: base}, nil
}

// GetTableSchema implements executor.QueryExecutor via pragma_table_info.
func (e *SQLiteExecutor) GetTableSchema(ctx context.Context, table string) ([]executor.ColumnSchema, error) {
	rows, err := e.DB.QueryContext(ctx,
		"SELECT name, type FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, fmt.Errorf("read schema of %s: %w", table, err)
	}
	defer rows.Close()

	var out []executor.ColumnSchema
	for rows.Next() {
		var col executor.ColumnSchema
		if err := rows.Scan(&col.Name, &col.Type); err != nil {
			return nil, fmt.Errorf("scan schema of %s: %w", table, err)
		}
		out = append(out, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return out, nil
}
