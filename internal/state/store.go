// Package state persists run history: pipeline runs and quality-test
// reports land in a local SQLite database so past executions can be
// listed and inspected.
package state

import (
	"context"
	"time"

	"github.com/1ambda/dataops-platform-sub001/pkg/core"
)

// RunRecord is one persisted pipeline run.
type RunRecord struct {
	ID             string
	SpecName       string
	Success        bool
	DryRun         bool
	Statements     int
	TotalElapsedMS int64
	Error          string
	StartedAt      time.Time
}

// QualityRecord is one persisted quality-suite run.
type QualityRecord struct {
	ID        string
	Target    string
	Status    core.TestStatus
	Total     int
	Passed    int
	Failed    int
	ElapsedMS int64
	StartedAt time.Time
}

// Store records run history. Implementations must be safe for use from
// a single process; cross-process locking is the database's problem.
type Store interface {
	// RecordPipeline persists a finished pipeline run and returns its id.
	RecordPipeline(ctx context.Context, result *core.PipelineResult) (string, error)

	// RecordQuality persists a finished quality report and returns its id.
	RecordQuality(ctx context.Context, report *core.QualityReport) (string, error)

	// ListRuns returns the most recent pipeline runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)

	// ListQualityRuns returns the most recent quality runs, newest first.
	ListQualityRuns(ctx context.Context, limit int) ([]QualityRecord, error)

	// Close releases the underlying database.
	Close() error
}
