package quality

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/1ambda/dataops-platform-sub001/pkg/core"
	"github.com/1ambda/dataops-platform-sub001/pkg/executor"
)

// DefaultSampleLimit caps the failing-row sample kept per test.
const DefaultSampleLimit = 10

// DefaultTestTimeoutSeconds bounds one assertion query.
const DefaultTestTimeoutSeconds = 120

// RunnerConfig holds runner construction settings.
type RunnerConfig struct {
	// Executor runs assertion SQL for local runs (required for local runs).
	Executor executor.QueryExecutor
	// Remote delegates runs to a quality service (required for server runs).
	Remote RemoteClient
	// SampleLimit caps failing-row samples; DefaultSampleLimit if <= 0.
	SampleLimit int
	// TimeoutSeconds bounds one assertion query; default if <= 0.
	TimeoutSeconds int
	// Logger is optional, discard if nil.
	Logger *slog.Logger
}

// RunOptions controls one batch run.
type RunOptions struct {
	// OnServer delegates the batch to the remote service.
	OnServer bool
	// FailFast skips the rest of the batch after the first fail.
	FailFast bool
}

// Runner executes quality tests and aggregates reports.
type Runner struct {
	executor    executor.QueryExecutor
	remote      RemoteClient
	sampleLimit int
	timeout     int
	logger      *slog.Logger
}

// NewRunner creates a runner.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sample := cfg.SampleLimit
	if sample <= 0 {
		sample = DefaultSampleLimit
	}
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = DefaultTestTimeoutSeconds
	}
	return &Runner{
		executor:    cfg.Executor,
		remote:      cfg.Remote,
		sampleLimit: sample,
		timeout:     timeout,
		logger:      logger,
	}
}

// RunAll executes every test of a quality spec in declared order and
// aggregates a report. With FailFast, the first fail marks every
// remaining test skipped and stops the batch.
func (r *Runner) RunAll(ctx context.Context, spec *core.QualitySpec, opts RunOptions) *core.QualityReport {
	if opts.OnServer {
		return r.runRemote(ctx, spec, opts)
	}

	report := &core.QualityReport{
		Resource:   spec.Target.Name,
		ExecutedAt: core.ExecutedLocally,
	}
	baseDir := filepath.Dir(spec.FilePath)

	stopped := false
	for _, def := range spec.Tests {
		if stopped {
			report.Results = append(report.Results, core.TestResult{
				TestName:   def.Name,
				Resource:   spec.Target.Name,
				Status:     core.StatusSkipped,
				ExecutedAt: core.ExecutedLocally,
				Error:      "skipped: earlier test failed with fail_fast enabled",
			})
			continue
		}

		result := r.runOne(ctx, def, spec.Target.Name, baseDir)
		report.Results = append(report.Results, result)

		if opts.FailFast && result.Status == core.StatusFail {
			r.logger.Warn("fail_fast triggered", "test", def.Name, "resource", spec.Target.Name)
			stopped = true
		}
	}

	report.Finalize()
	return report
}

// runOne executes one test locally and classifies the outcome.
func (r *Runner) runOne(ctx context.Context, def core.TestDefinition, resource, baseDir string) core.TestResult {
	result := core.TestResult{
		TestName:   def.Name,
		Resource:   resource,
		ExecutedAt: core.ExecutedLocally,
	}

	if !def.Enabled {
		result.Status = core.StatusSkipped
		result.Error = "test is disabled"
		return result
	}

	sql, err := GenerateSQL(def, baseDir)
	if err != nil {
		result.Status = core.StatusError
		result.Error = err.Error()
		return result
	}
	result.SQL = sql

	if r.executor == nil {
		result.Status = core.StatusError
		result.Error = "no query executor configured"
		return result
	}

	started := time.Now()
	qr := r.executor.Execute(ctx, sql, r.timeout)
	result.ElapsedMS = time.Since(started).Milliseconds()

	if !qr.Success {
		result.Status = core.StatusError
		result.Error = qr.Error
		return result
	}

	result.FailedRows = qr.RowCount
	if qr.RowCount == 0 {
		result.Status = core.StatusPass
		return result
	}

	sample := qr.Rows
	if len(sample) > r.sampleLimit {
		sample = sample[:r.sampleLimit]
	}
	result.SampleRows = sample

	if def.Severity == core.SeverityWarn {
		result.Status = core.StatusWarn
	} else {
		result.Status = core.StatusFail
	}
	return result
}
