package loader

import (
	"fmt"

	"github.com/1ambda/dataops-platform-sub001/pkg/core"
)

// specFile is the on-disk YAML shape of a dataset/metric spec.
// Unknown fields are rejected at decode time.
type specFile struct {
	Name       string          `yaml:"name"`
	Owner      string          `yaml:"owner"`
	Team       string          `yaml:"team"`
	Domains    []string        `yaml:"domains"`
	Tags       []string        `yaml:"tags"`
	Parameters []parameterFile `yaml:"parameters"`
	Main       *statementFile  `yaml:"main"`
	Pre        []statementFile `yaml:"pre"`
	Post       []statementFile `yaml:"post"`
	Execution  *executionFile  `yaml:"execution"`
	DependsOn  []string        `yaml:"depends_on"`
}

type parameterFile struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Required    bool   `yaml:"required"`
	Default     any    `yaml:"default"`
	Description string `yaml:"description"`
}

type statementFile struct {
	Name            string `yaml:"name"`
	SQL             string `yaml:"sql"`
	SQLFile         string `yaml:"sql_file"`
	ContinueOnError bool   `yaml:"continue_on_error"`
}

type executionFile struct {
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	RetryCount        int    `yaml:"retry_count"`
	RetryDelaySeconds int    `yaml:"retry_delay_seconds"`
	Dialect           string `yaml:"dialect"`
}

// qualityFile is the on-disk YAML shape of a quality spec.
type qualityFile struct {
	Target       targetFile    `yaml:"target"`
	Metadata     metadataFile  `yaml:"metadata"`
	Schedule     *scheduleFile `yaml:"schedule"`
	Notification *notifyFile   `yaml:"notification"`
	Tests        []testFile    `yaml:"tests"`
}

type targetFile struct {
	Type string `yaml:"type"` // dataset or metric
	Name string `yaml:"name"`
}

type metadataFile struct {
	Owner       string   `yaml:"owner"`
	Team        string   `yaml:"team"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
}

type scheduleFile struct {
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
}

type notifyFile struct {
	Channel string `yaml:"channel"`
	OnFail  bool   `yaml:"on_fail"`
}

type testFile struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Severity string   `yaml:"severity"`
	Table    string   `yaml:"table"`
	Columns  []string `yaml:"columns"`
	Values   []string `yaml:"values"`
	ToTable  string   `yaml:"to_table"`
	ToColumn string   `yaml:"to_column"`
	Min      *float64 `yaml:"min"`
	Max      *float64 `yaml:"max"`
	SQL      string   `yaml:"sql"`
	SQLFile  string   `yaml:"sql_file"`
	Enabled  *bool    `yaml:"enabled"`
}

// toSpec converts the file shape into a validated core.Spec.
func (f *specFile) toSpec(kind core.SpecKind, path string) (*core.Spec, error) {
	fqn, err := core.ParseFQN(f.Name)
	if err != nil {
		return nil, err
	}

	if f.Main == nil {
		return nil, &core.ConfigurationError{
			Message: fmt.Sprintf("spec %q has no main statement", f.Name),
		}
	}
	main, err := f.Main.toStatement("main")
	if err != nil {
		return nil, err
	}

	params := make([]core.ParameterDefinition, 0, len(f.Parameters))
	for _, p := range f.Parameters {
		if p.Name == "" {
			return nil, &core.ConfigurationError{
				Message: fmt.Sprintf("spec %q declares a parameter without a name", f.Name),
			}
		}
		typ, ok := core.ParseParamType(p.Type)
		if !ok {
			return nil, &core.ConfigurationError{
				Message: fmt.Sprintf("spec %q parameter %q has unknown type %q", f.Name, p.Name, p.Type),
			}
		}
		params = append(params, core.ParameterDefinition{
			Name:        p.Name,
			Type:        typ,
			Required:    p.Required,
			Default:     p.Default,
			Description: p.Description,
		})
	}

	pre, err := toStatements(f.Pre, "pre")
	if err != nil {
		return nil, err
	}
	post, err := toStatements(f.Post, "post")
	if err != nil {
		return nil, err
	}

	exec := core.ExecutionConfig{TimeoutSeconds: core.DefaultTimeoutSeconds}
	if f.Execution != nil {
		exec = core.ExecutionConfig{
			TimeoutSeconds:    f.Execution.TimeoutSeconds,
			RetryCount:        f.Execution.RetryCount,
			RetryDelaySeconds: f.Execution.RetryDelaySeconds,
			Dialect:           f.Execution.Dialect,
		}
		if exec.TimeoutSeconds <= 0 {
			exec.TimeoutSeconds = core.DefaultTimeoutSeconds
		}
	}

	return &core.Spec{
		Name:       f.Name,
		FQN:        fqn,
		Kind:       kind,
		QueryKind:  core.QueryKindFor(kind),
		Owner:      f.Owner,
		Team:       f.Team,
		Domains:    f.Domains,
		Tags:       f.Tags,
		Parameters: params,
		Main:       main,
		Pre:        pre,
		Post:       post,
		Execution:  exec,
		DependsOn:  f.DependsOn,
		FilePath:   path,
	}, nil
}

func (s *statementFile) toStatement(fallbackName string) (core.Statement, error) {
	name := s.Name
	if name == "" {
		name = fallbackName
	}
	src, err := toSource(s.SQL, s.SQLFile, name)
	if err != nil {
		return core.Statement{}, err
	}
	return core.Statement{
		Name:            name,
		Source:          src,
		ContinueOnError: s.ContinueOnError,
	}, nil
}

func toStatements(files []statementFile, phase string) ([]core.Statement, error) {
	out := make([]core.Statement, 0, len(files))
	for i, f := range files {
		st, err := f.toStatement(fmt.Sprintf("%s_%d", phase, i))
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// toSource enforces the inline-XOR-file invariant.
func toSource(inline, file, name string) (core.SQLSource, error) {
	switch {
	case inline != "" && file != "":
		return core.SQLSource{}, &core.ConfigurationError{
			Message: fmt.Sprintf("statement %q sets both sql and sql_file", name),
		}
	case inline != "":
		return core.InlineSQL(inline), nil
	case file != "":
		return core.SQLFile(file), nil
	default:
		return core.SQLSource{}, &core.ConfigurationError{
			Message: fmt.Sprintf("statement %q sets neither sql nor sql_file", name),
		}
	}
}

// toQualitySpec converts the quality file shape into a validated
// core.QualitySpec.
func (f *qualityFile) toQualitySpec(path string) (*core.QualitySpec, error) {
	if f.Target.Name == "" {
		return nil, &core.ConfigurationError{
			Message: fmt.Sprintf("quality spec %s has no target name", path),
		}
	}
	var kind core.SpecKind
	switch f.Target.Type {
	case "dataset":
		kind = core.SpecKindDataset
	case "metric":
		kind = core.SpecKindMetric
	default:
		return nil, &core.ConfigurationError{
			Message: fmt.Sprintf("quality spec %s has unknown target type %q", path, f.Target.Type),
		}
	}

	tests := make([]core.TestDefinition, 0, len(f.Tests))
	for i, tf := range f.Tests {
		typ, ok := core.ParseTestType(tf.Type)
		if !ok {
			return nil, &core.ConfigurationError{
				Message: fmt.Sprintf("quality spec %s test %d has unknown type %q", path, i, tf.Type),
			}
		}

		severity := core.SeverityError
		if tf.Severity != "" {
			switch core.TestSeverity(tf.Severity) {
			case core.SeverityError, core.SeverityWarn:
				severity = core.TestSeverity(tf.Severity)
			default:
				return nil, &core.ConfigurationError{
					Message: fmt.Sprintf("quality spec %s test %q has unknown severity %q", path, tf.Name, tf.Severity),
				}
			}
		}

		enabled := true
		if tf.Enabled != nil {
			enabled = *tf.Enabled
		}

		var sql core.SQLSource
		if typ == core.TestSingular {
			var err error
			sql, err = toSource(tf.SQL, tf.SQLFile, tf.Name)
			if err != nil {
				return nil, err
			}
		}

		table := tf.Table
		if table == "" {
			table = f.Target.Name
		}

		def := core.TestDefinition{
			Name:     tf.Name,
			Type:     typ,
			Severity: severity,
			Table:    table,
			Columns:  tf.Columns,
			Values:   tf.Values,
			ToTable:  tf.ToTable,
			ToColumn: tf.ToColumn,
			Min:      tf.Min,
			Max:      tf.Max,
			SQL:      sql,
			Enabled:  enabled,
		}

		// Surface missing mandatory fields at load time, not first use.
		if _, err := def.Assertion(); err != nil {
			return nil, &core.ConfigurationError{
				Message: fmt.Sprintf("quality spec %s: invalid test %q", path, tf.Name),
				Cause:   err,
			}
		}
		tests = append(tests, def)
	}

	qs := &core.QualitySpec{
		Target:      core.QualityTarget{Kind: kind, Name: f.Target.Name},
		Owner:       f.Metadata.Owner,
		Team:        f.Metadata.Team,
		Description: f.Metadata.Description,
		Tags:        f.Metadata.Tags,
		Tests:       tests,
		FilePath:    path,
	}
	if f.Schedule != nil {
		qs.Schedule = &core.QualitySchedule{Cron: f.Schedule.Cron, Timezone: f.Schedule.Timezone}
	}
	if f.Notification != nil {
		qs.Notification = &core.QualityNotification{Channel: f.Notification.Channel, OnFail: f.Notification.OnFail}
	}
	return qs, nil
}
