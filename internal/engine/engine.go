// Package engine executes dataset and metric specs as a phased
// pipeline: render everything, validate everything, then run
// Pre → Main → Post against the injected query executor.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/1ambda/dataops-platform-sub001/internal/registry"
	"github.com/1ambda/dataops-platform-sub001/internal/render"
	"github.com/1ambda/dataops-platform-sub001/internal/state"
	"github.com/1ambda/dataops-platform-sub001/internal/validate"
	"github.com/1ambda/dataops-platform-sub001/pkg/core"
	"github.com/1ambda/dataops-platform-sub001/pkg/executor"
)

// Engine orchestrates spec execution. One Engine may serve many runs;
// each run is strictly sequential internally.
type Engine struct {
	registry *registry.SpecRegistry
	executor executor.QueryExecutor
	renderer *render.Renderer
	checker  validate.SyntaxChecker
	strict   bool
	store    state.Store
	logger   *slog.Logger
}

// Config holds engine construction settings.
type Config struct {
	// Registry is the spec catalog (required).
	Registry *registry.SpecRegistry
	// Executor runs statements. May be nil: rendering, validation, and
	// dry runs still work, and execution fails with a fixed message.
	Executor executor.QueryExecutor
	// Checker overrides the default syntax checker (optional).
	Checker validate.SyntaxChecker
	// StrictValidation escalates warnings to validation errors.
	StrictValidation bool
	// Store records run history when set (optional).
	Store state.Store
	// Logger is the structured logger (optional, discard if nil).
	Logger *slog.Logger
}

// RunOptions controls one pipeline run.
type RunOptions struct {
	// Params are the caller-supplied raw parameter values.
	Params map[string]any
	// SkipPre treats the pre phase as an empty list.
	SkipPre bool
	// SkipPost treats the post phase as an empty list.
	SkipPost bool
	// DryRun renders and validates, then returns without executing.
	DryRun bool
}

// noExecutorMessage is the fixed, non-retryable failure for a run
// attempted without a configured executor.
const noExecutorMessage = "no query executor configured"

// New creates an engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		registry: cfg.Registry,
		executor: cfg.Executor,
		renderer: render.New(),
		checker:  cfg.Checker,
		strict:   cfg.StrictValidation,
		store:    cfg.Store,
		logger:   logger,
	}
}

// GetSpec returns the named spec, or nil if absent.
func (e *Engine) GetSpec(name string) *core.Spec {
	return e.registry.Get(name)
}

// ListSpecs returns specs matching the filters, sorted by name.
func (e *Engine) ListSpecs(f registry.Filters) []*core.Spec {
	return e.registry.Search(f)
}

// RenderedSQL holds every rendered statement of a spec, in pipeline order.
type RenderedSQL struct {
	Pre  []RenderedStatement
	Main RenderedStatement
	Post []RenderedStatement
}

// RenderedStatement pairs a statement name with its rendered SQL.
type RenderedStatement struct {
	Name string
	SQL  string
}

// RenderSQL coerces params and renders every statement of the named
// spec without executing or persisting anything.
func (e *Engine) RenderSQL(name string, raw map[string]any) (*RenderedSQL, error) {
	spec := e.registry.Get(name)
	if spec == nil {
		return nil, &core.ConfigurationError{Message: fmt.Sprintf("spec %q not found", name)}
	}
	params, err := e.renderer.CoerceParams(spec, raw)
	if err != nil {
		return nil, err
	}
	statements, err := e.renderAll(spec, params, RunOptions{})
	if err != nil {
		return nil, err
	}

	out := &RenderedSQL{}
	for _, s := range statements {
		rs := RenderedStatement{Name: s.name, SQL: s.sql}
		switch s.phase {
		case core.PhasePre:
			out.Pre = append(out.Pre, rs)
		case core.PhaseMain:
			out.Main = rs
		case core.PhasePost:
			out.Post = append(out.Post, rs)
		}
	}
	return out, nil
}

// ValidateSpec renders the named spec and validates every statement,
// returning one result per statement in pipeline order.
func (e *Engine) ValidateSpec(name string, raw map[string]any) ([]core.ValidationResult, error) {
	spec := e.registry.Get(name)
	if spec == nil {
		return nil, &core.ConfigurationError{Message: fmt.Sprintf("spec %q not found", name)}
	}
	params, err := e.renderer.CoerceParams(spec, raw)
	if err != nil {
		return nil, err
	}
	statements, err := e.renderAll(spec, params, RunOptions{})
	if err != nil {
		return nil, err
	}

	validator := validate.New(e.checker, spec.Execution.Dialect, e.strict)
	results := make([]core.ValidationResult, 0, len(statements))
	for _, s := range statements {
		results = append(results, validator.Validate(s.sql, s.phase, s.name))
	}
	return results, nil
}
