// Package postgres implements the QueryExecutor contract on PostgreSQL
// via the pgx stdlib driver. Registered under the name "postgres".
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/1ambda/dataops-platform-sub001/pkg/executor"
	"github.com/1ambda/dataops-platform-sub001/pkg/executors/sqlexec"
)

func init() {
	executor.Register("postgres", func(cfg executor.Config, logger *slog.Logger) (executor.QueryExecutor, error) {
		return New(cfg, logger)
	})
}

// PostgresExecutor runs statements against a PostgreSQL database.
type PostgresExecutor struct {
	*sqlexec.Executor
	defaultSchema string
}

// New opens a connection using the config's host, port, database, and
// credentials. Options map onto DSN query parameters (e.g. sslmode).
func New(cfg executor.Config, logger *slog.Logger) (*PostgresExecutor, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("postgres executor requires a host")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("postgres executor requires a database")
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	dsn := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, port),
		Path:   "/" + cfg.Database,
	}
	if cfg.Username != "" {
		if cfg.Password != "" {
			dsn.User = url.UserPassword(cfg.Username, cfg.Password)
		} else {
			dsn.User = url.User(cfg.Username)
		}
	}
	query := url.Values{}
	for k, v := range cfg.Options {
		query.Set(k, v)
	}
	dsn.RawQuery = query.Encode()

	db, err := sql.Open("pgx", dsn.String())
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	schema := cfg.Schema
	if schema == "" {
		schema = "public"
	}
	return &PostgresExecutor{Executor: sqlexec.New(db, logger), defaultSchema: schema}, nil
}

// GetTableSchema implements executor.QueryExecutor via
// information_schema.columns.
func (e *PostgresExecutor) GetTableSchema(ctx context.Context, table string) ([]executor.ColumnSchema, error) {
	schema, name := sqlexec.SplitQualified(table, e.defaultSchema)

	rows, err := e.DB.QueryContext(ctx, `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, schema, name)
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
