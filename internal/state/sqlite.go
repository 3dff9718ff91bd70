package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/1ambda/dataops-platform-sub001/pkg/core"
)

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs pending
// migrations. Use ":memory:" for an in-memory store.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping state database: %w", err)
	}
	// modernc's driver deadlocks itself beyond one writer connection.
	db.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordPipeline persists one pipeline run and its statement results.
func (s *SQLiteStore) RecordPipeline(ctx context.Context, result *core.PipelineResult) (string, error) {
	id := uuid.New().String()
	statements := len(result.PreResults) + len(result.PostResults)
	if result.MainResult != nil {
		statements++
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pipeline_runs (id, spec_name, success, dry_run, statements, total_elapsed_ms, error, message, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, result.SpecName, result.Success, result.DryRun, statements,
		result.TotalElapsedMS, result.Error, result.Message, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert pipeline run: %w", err)
	}

	insert := func(r core.ExecutionResult) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO statement_results (run_id, phase, statement_name, success, row_count, elapsed_ms, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, string(r.Phase), r.StatementName, r.Success, r.RowCount, r.ElapsedMS, r.Error,
		)
		return err
	}
	for _, r := range result.PreResults {
		if err := insert(r); err != nil {
			return "", fmt.Errorf("insert statement result: %w", err)
		}
	}
	if result.MainResult != nil {
		if err := insert(*result.MainResult); err != nil {
			return "", fmt.Errorf("insert statement result: %w", err)
		}
	}
	for _, r := range result.PostResults {
		if err := insert(r); err != nil {
			return "", fmt.Errorf("insert statement result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// RecordQuality persists one quality-suite run and its test results.
func (s *SQLiteStore) RecordQuality(ctx context.Context, report *core.QualityReport) (string, error) {
	id := uuid.New().String()

	var elapsed int64
	for _, r := range report.Results {
		elapsed += r.ElapsedMS
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO quality_runs (id, target, status, total, passed, failed, elapsed_ms, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, report.Resource, string(report.Status), len(report.Results),
		report.PassedCount(), report.FailedCount(), elapsed, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert quality run: %w", err)
	}

	for _, r := range report.Results {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO test_results (run_id, test_name, resource, status, failed_rows, elapsed_ms, executed_at, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, r.TestName, r.Resource, string(r.Status), r.FailedRows,
			r.ElapsedMS, string(r.ExecutedAt), r.Error,
		)
		if err != nil {
			return "", fmt.Errorf("insert test result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// ListRuns returns the newest pipeline runs, up to limit (50 if <= 0).
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, spec_name, success, dry_run, statements, total_elapsed_ms, error, started_at
		 FROM pipeline_runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pipeline runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.SpecName, &r.Success, &r.DryRun,
			&r.Statements, &r.TotalElapsedMS, &r.Error, &r.StartedAt); err != nil {
			return nil, fmt.Errorf("scan pipeline run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListQualityRuns returns the newest quality runs, up to limit (50 if <= 0).
func (s *SQLiteStore) ListQualityRuns(ctx context.Context, limit int) ([]QualityRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, target, status, total, passed, failed, elapsed_ms, started_at
		 FROM quality_runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list quality runs: %w", err)
	}
	defer rows.Close()

	var out []QualityRecord
	for rows.Next() {
		var r QualityRecord
		var status string
		if err := rows.Scan(&r.ID, &r.Target, &status, &r.Total,
			&r.Passed, &r.Failed, &r.ElapsedMS, &r.StartedAt); err != nil {
			return nil, fmt.Errorf("scan quality run: %w", err)
		}
		r.Status = core.TestStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}
