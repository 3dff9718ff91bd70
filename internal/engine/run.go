package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/1ambda/dataops-platform-sub001/internal/validate"
	"github.com/1ambda/dataops-platform-sub001/pkg/core"
	"github.com/1ambda/dataops-platform-sub001/pkg/executor"
)

// renderedStatement is one statement after source resolution and
// template expansion, ready for validation and execution.
type renderedStatement struct {
	phase           core.Phase
	name            string
	sql             string
	continueOnError bool
}

// Execute runs one spec's Pre, Main, and Post phases in order.
// Recoverable failures come back inside the PipelineResult, never as a
// Go error; the error return is reserved for unknown spec names.
func (e *Engine) Execute(ctx context.Context, name string, opts RunOptions) (*core.PipelineResult, error) {
	spec := e.registry.Get(name)
	if spec == nil {
		return nil, &core.ConfigurationError{Message: fmt.Sprintf("spec %q not found", name)}
	}

	result := &core.PipelineResult{SpecName: name, DryRun: opts.DryRun}
	logger := e.logger.With("spec", name)

	params, err := e.renderer.CoerceParams(spec, opts.Params)
	if err != nil {
		result.Error = err.Error()
		return e.record(ctx, result), nil
	}

	statements, err := e.renderAll(spec, params, opts)
	if err != nil {
		result.Error = err.Error()
		return e.record(ctx, result), nil
	}

	// All statements validate before anything executes. One invalid
	// statement aborts the whole run.
	validator := validate.New(e.checker, spec.Execution.Dialect, e.strict)
	for _, stmt := range statements {
		vr := validator.Validate(stmt.sql, stmt.phase, stmt.name)
		if !vr.Valid {
			result.Error = (&core.ValidationError{
				Statement: stmt.name,
				Message:   vr.Error,
			}).Error()
			return e.record(ctx, result), nil
		}
		for _, w := range vr.Warnings {
			logger.Warn("validation warning",
				"phase", stmt.phase, "statement", stmt.name, "code", w.Code, "message", w.Message)
		}
	}

	if opts.DryRun {
		result.Success = true
		result.Message = fmt.Sprintf("dry run: %d statement(s) rendered and validated, nothing executed", len(statements))
		logger.Info("dry run complete", "statements", len(statements))
		return e.record(ctx, result), nil
	}

	if e.executor == nil {
		result.Error = noExecutorMessage
		return e.record(ctx, result), nil
	}

	e.runPhases(ctx, spec, statements, result, logger)
	return e.record(ctx, result), nil
}

// renderAll resolves and renders every statement of every phase.
// SkipPre and SkipPost drop those phases before rendering.
func (e *Engine) renderAll(spec *core.Spec, params map[string]any, opts RunOptions) ([]renderedStatement, error) {
	baseDir := filepath.Dir(spec.FilePath)

	var out []renderedStatement
	render := func(phase core.Phase, stmt core.Statement) error {
		raw, err := stmt.Source.Resolve(baseDir)
		if err != nil {
			return err
		}
		sql, err := e.renderer.Render(raw, spec, params)
		if err != nil {
			return err
		}
		out = append(out, renderedStatement{
			phase:           phase,
			name:            stmt.Name,
			sql:             sql,
			continueOnError: stmt.ContinueOnError,
		})
		return nil
	}

	if !opts.SkipPre {
		for _, stmt := range spec.Pre {
			if err := render(core.PhasePre, stmt); err != nil {
				return nil, err
			}
		}
	}
	if err := render(core.PhaseMain, spec.Main); err != nil {
		return nil, err
	}
	if !opts.SkipPost {
		for _, stmt := range spec.Post {
			if err := render(core.PhasePost, stmt); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// runPhases executes the rendered statements in phase order and fills
// in the result. A failed pre statement without continue_on_error stops
// before Main; a failed Main always skips Post.
func (e *Engine) runPhases(ctx context.Context, spec *core.Spec, statements []renderedStatement, result *core.PipelineResult, logger *slog.Logger) {
	byPhase := func(phase core.Phase) []renderedStatement {
		var out []renderedStatement
		for _, s := range statements {
			if s.phase == phase {
				out = append(out, s)
			}
		}
		return out
	}

	for _, stmt := range byPhase(core.PhasePre) {
		er := e.runStatement(ctx, spec, stmt, logger)
		result.PreResults = append(result.PreResults, er)
		result.TotalElapsedMS += er.ElapsedMS
		if !er.Success && !stmt.continueOnError {
			result.Error = (&core.ExecutionError{Statement: stmt.name, Message: er.Error}).Error()
			return
		}
	}

	mainStmts := byPhase(core.PhaseMain)
	main := e.runStatement(ctx, spec, mainStmts[0], logger)
	result.MainResult = &main
	result.TotalElapsedMS += main.ElapsedMS
	if !main.Success {
		result.Error = (&core.ExecutionError{Statement: spec.Name, Message: main.Error}).Error()
		return
	}

	for _, stmt := range byPhase(core.PhasePost) {
		er := e.runStatement(ctx, spec, stmt, logger)
		result.PostResults = append(result.PostResults, er)
		result.TotalElapsedMS += er.ElapsedMS
		if !er.Success && !stmt.continueOnError {
			// Main already committed its work; the run fails but the
			// main result stands as-is.
			result.Error = (&core.ExecutionError{Statement: stmt.name, Message: er.Error}).Error()
			return
		}
	}

	result.Success = true
}

// runStatement executes one statement with the spec's retry policy.
// Retries re-run the identical SQL after the configured delay.
func (e *Engine) runStatement(ctx context.Context, spec *core.Spec, stmt renderedStatement, logger *slog.Logger) core.ExecutionResult {
	timeout := spec.Execution.TimeoutSeconds
	if timeout <= 0 {
		timeout = core.DefaultTimeoutSeconds
	}

	attempts := spec.Execution.RetryCount + 1
	delay := time.Duration(spec.Execution.RetryDelaySeconds) * time.Second

	var qr executor.QueryResult
	started := time.Now()
	for attempt := 1; attempt <= attempts; attempt++ {
		qr = e.executor.Execute(ctx, stmt.sql, timeout)
		if qr.Success {
			break
		}
		logger.Warn("statement failed",
			"phase", stmt.phase, "statement", stmt.name,
			"attempt", attempt, "attempts", attempts, "error", qr.Error)
		if attempt == attempts {
			break
		}
		if !sleepCtx(ctx, delay) {
			qr.Error = ctx.Err().Error()
			break
		}
	}

	return core.ExecutionResult{
		Phase:         stmt.phase,
		StatementName: stmt.name,
		Success:       qr.Success,
		RowCount:      qr.RowCount,
		Columns:       qr.Columns,
		Rows:          qr.Rows,
		SQL:           stmt.sql,
		ElapsedMS:     time.Since(started).Milliseconds(),
		Error:         qr.Error,
		Timestamp:     time.Now().UTC(),
	}
}

// record persists the finished result when a store is configured.
// Persistence failures are logged, never surfaced to the caller.
func (e *Engine) record(ctx context.Context, result *core.PipelineResult) *core.PipelineResult {
	if e.store == nil {
		return result
	}
	if _, err := e.store.RecordPipeline(ctx, result); err != nil {
		e.logger.Error("failed to record run", "spec", result.SpecName, "error", err)
	}
	return result
}

// sleepCtx pauses for d, returning false if ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
