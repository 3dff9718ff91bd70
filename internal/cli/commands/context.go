package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/1ambda/dataops-platform-sub001/internal/config"
	"github.com/1ambda/dataops-platform-sub001/internal/engine"
	"github.com/1ambda/dataops-platform-sub001/internal/registry"
	"github.com/1ambda/dataops-platform-sub001/internal/state"
	"github.com/1ambda/dataops-platform-sub001/pkg/executor"
)

type configKey struct{}
type loggerKey struct{}

// WithConfig stores the loaded config in the context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithLogger stores the CLI logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// ConfigFrom returns the config placed in the context by the root command.
func ConfigFrom(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(configKey{}).(*config.Config)
	return cfg
}

// LoggerFrom returns the logger placed in the context by the root command.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.New(slog.DiscardHandler)
}

// CommandContext bundles the wired components a command works with.
type CommandContext struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *registry.SpecRegistry
	Engine   *engine.Engine
	Executor executor.QueryExecutor
	Store    state.Store
}

// ContextOptions selects which optional components to wire.
type ContextOptions struct {
	// NeedExecutor fails when no target is configured.
	NeedExecutor bool
	// NoStore skips opening the run-history database.
	NoStore bool
}

// NewCommandContext wires the registry, executor, state store, and
// engine from the loaded config. The returned cleanup must be called
// when the command finishes.
func NewCommandContext(cmd *cobra.Command, opts ContextOptions) (*CommandContext, func(), error) {
	cfg := ConfigFrom(cmd.Context())
	if cfg == nil {
		return nil, nil, fmt.Errorf("configuration not loaded")
	}
	logger := LoggerFrom(cmd.Context())

	reg, err := registry.New(cfg.SpecDirs, logger)
	if err != nil {
		return nil, nil, err
	}

	cc := &CommandContext{Config: cfg, Logger: logger, Registry: reg}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.Target != nil && cfg.Target.Type != "" {
		exec, err := executor.New(executorConfig(cfg.Target), logger)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cc.Executor = exec
		cleanups = append(cleanups, func() { _ = exec.Close() })
	} else if opts.NeedExecutor {
		return nil, nil, fmt.Errorf("no target configured: set target.type in %s", config.ConfigFileName)
	}

	if !opts.NoStore && cfg.StatePath != "" {
		if cfg.StatePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.StatePath), 0o755); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("create state directory: %w", err)
			}
		}
		store, err := state.Open(cfg.StatePath)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cc.Store = store
		cleanups = append(cleanups, func() { _ = store.Close() })
	}

	cc.Engine = engine.New(engine.Config{
		Registry:         reg,
		Executor:         cc.Executor,
		StrictValidation: cfg.Strict,
		Store:            cc.Store,
		Logger:           logger,
	})

	return cc, cleanup, nil
}

func executorConfig(t *config.TargetConfig) executor.Config {
	return executor.Config{
		Type:     t.Type,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
	}
}

// parseParams parses repeated --param key=value flags.
func parseParams(raw []string) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(raw))
	for _, kv := range raw {
		key, value, found := strings.Cut(kv, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", kv)
		}
		params[key] = value
	}
	return params, nil
}
