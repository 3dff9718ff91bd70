package executor

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(Config, *slog.Logger) (QueryExecutor, error))
)

// Register adds an executor factory to the registry.
// Called by executor implementations in their init() functions.
func Register(name string, factory func(Config, *slog.Logger) (QueryExecutor, error)) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New constructs an executor for the config's type.
// The logger may be nil; implementations substitute a discard logger.
func New(cfg Config, logger *slog.Logger) (QueryExecutor, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("executor type not specified")
	}

	registryMu.RLock()
	factory, ok := registry[cfg.Type]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownExecutorError{Type: cfg.Type, Available: List()}
	}
	return factory(cfg, logger)
}

// List returns all registered executor names, sorted.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if an executor type is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownExecutorError is returned when an unknown executor type is requested.
type UnknownExecutorError struct {
	Type      string
	Available []string
}

func (e *UnknownExecutorError) Error() string {
	return fmt.Sprintf("unknown executor type %q (available: %v)", e.Type, e.Available)
}
