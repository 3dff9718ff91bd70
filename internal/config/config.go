// Package config loads tool configuration from dataops.yaml, the
// DATAOPS_ environment, and CLI flags, in ascending precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// ConfigFileName is the primary config file name.
	ConfigFileName = "dataops.yaml"
	// ConfigFileNameAlt is the alternate config file name.
	ConfigFileNameAlt = "dataops.yml"

	// EnvPrefix namespaces environment overrides (DATAOPS_SPEC_DIRS, ...).
	EnvPrefix = "DATAOPS_"

	// maxUpwardSearchLevels bounds the upward config file search.
	maxUpwardSearchLevels = 10
)

// Default values applied below every other layer.
const (
	DefaultSpecDir   = "specs"
	DefaultStatePath = ".dataops/history.db"
	DefaultOutput    = "table"
)

// TargetConfig holds the query-engine connection settings.
type TargetConfig struct {
	Type     string            `koanf:"type"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	Database string            `koanf:"database"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Schema   string            `koanf:"schema"`
	Options  map[string]string `koanf:"options"`
}

// QualityConfig holds quality-test runner settings.
type QualityConfig struct {
	SampleLimit int    `koanf:"sample_limit"`
	FailFast    bool   `koanf:"fail_fast"`
	ServerURL   string `koanf:"server_url"`
}

// Config is the fully layered tool configuration.
type Config struct {
	SpecDirs  []string      `koanf:"spec_dirs"`
	StatePath string        `koanf:"state_path"`
	Strict    bool          `koanf:"strict"`
	Verbose   bool          `koanf:"verbose"`
	Output    string        `koanf:"output"`
	Target    *TargetConfig `koanf:"target"`
	Quality   QualityConfig `koanf:"quality"`

	// FileUsed is the config file that was loaded, empty when none.
	FileUsed string `koanf:"-"`
	// ProjectRoot anchors relative spec and state paths.
	ProjectRoot string `koanf:"-"`
}

// ApplyTargetDefaults fills type-specific connection defaults.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	if t.Type == "postgres" && t.Port == 0 {
		t.Port = 5432
	}
}

// Load layers configuration: defaults, then the config file, then
// DATAOPS_ environment variables, then explicitly set flags. Each Load
// call builds a fresh koanf instance; there is no package-level state.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	projectRoot := resolveProjectRoot(cfgFile)

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"spec_dirs":            []string{DefaultSpecDir},
		"state_path":           DefaultStatePath,
		"output":               DefaultOutput,
		"quality.sample_limit": 10,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	fileUsed := cfgFile
	if fileUsed == "" {
		fileUsed = findConfigFile(projectRoot)
	}
	if fileUsed != "" {
		if err := k.Load(file.Provider(fileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", fileUsed, err)
		}
	}

	// DATAOPS_STATE_PATH -> state_path, DATAOPS_TARGET__HOST -> target.host
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.FileUsed = fileUsed
	cfg.ProjectRoot = projectRoot
	ApplyTargetDefaults(cfg.Target)

	for i, dir := range cfg.SpecDirs {
		cfg.SpecDirs[i] = resolveRelativeTo(dir, projectRoot)
	}
	cfg.StatePath = resolveRelativeTo(cfg.StatePath, projectRoot)

	return &cfg, nil
}

// resolveProjectRoot picks the directory that anchors relative paths:
// the explicit config file's directory, else the nearest ancestor with
// a dataops.yaml, else the working directory.
func resolveProjectRoot(cfgFile string) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
	}
	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return "."
	}
	if root := findRootUpward(cwd); root != "" {
		return root
	}
	return cwd
}

func findConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func findRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if findConfigFile(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func resolveRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
