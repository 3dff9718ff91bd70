package core

import "time"

// Phase identifies one of the three ordered pipeline stages.
type Phase string

const (
	PhasePre  Phase = "pre"
	PhaseMain Phase = "main"
	PhasePost Phase = "post"
)

// ExecutionResult records one statement execution.
// Created once per statement; never mutated afterwards.
type ExecutionResult struct {
	// Phase is the pipeline stage the statement ran in.
	Phase Phase
	// StatementName is the statement's declared name (empty for main).
	StatementName string
	// Success reports whether the engine accepted the statement.
	Success bool
	// RowCount is the number of rows returned or affected.
	RowCount int64
	// Columns are the result column names, for row-returning statements.
	Columns []string
	// Rows holds the returned row data.
	Rows [][]any
	// SQL is the rendered SQL that was executed.
	SQL string
	// ElapsedMS is the statement's wall-clock duration.
	ElapsedMS int64
	// Error is the engine-reported failure message, if any.
	Error string
	// Timestamp marks when the statement finished.
	Timestamp time.Time
}

// PipelineResult is the outcome of a full phased run, composed by the
// execution engine once the pipeline stops.
type PipelineResult struct {
	// SpecName is the spec that ran.
	SpecName string
	// Success is true only when every non-continuable statement succeeded.
	Success bool
	// PreResults are the pre-phase results in execution order.
	PreResults []ExecutionResult
	// MainResult is the main statement's result, nil if never attempted.
	MainResult *ExecutionResult
	// PostResults are the post-phase results in execution order.
	PostResults []ExecutionResult
	// TotalElapsedMS sums elapsed time across executed statements.
	TotalElapsedMS int64
	// Error describes how the run failed, empty on success.
	Error string
	// Message carries informational notes (e.g. the dry-run notice).
	Message string
	// DryRun marks a run that rendered and validated but executed nothing.
	DryRun bool
}

// ValidationWarning is a non-fatal static-check finding.
type ValidationWarning struct {
	// Code identifies the check (e.g. "select_star", "no_limit").
	Code string
	// Message is the human-readable description.
	Message string
}

// ValidationResult is the outcome of validating one rendered statement.
type ValidationResult struct {
	// Phase is the pipeline stage the statement belongs to.
	Phase Phase
	// StatementName is the statement's declared name (empty for main).
	StatementName string
	// Valid is false when the syntax check rejected the SQL, or when
	// strict mode escalated a warning.
	Valid bool
	// Error is the syntax or escalation failure message.
	Error string
	// Warnings are the non-fatal findings. Empty in strict mode.
	Warnings []ValidationWarning
}
