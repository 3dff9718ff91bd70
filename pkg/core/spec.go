package core

import (
	"fmt"
	"strings"
)

// SpecKind distinguishes the two spec flavors sharing one shape.
type SpecKind string

const (
	// SpecKindDataset is a DML-producing spec (writes tables).
	SpecKindDataset SpecKind = "dataset"
	// SpecKindMetric is a SELECT-producing spec (returns rows).
	SpecKindMetric SpecKind = "metric"
)

// QueryKind describes the statement class a spec's main SQL belongs to.
type QueryKind string

const (
	QueryKindSelect QueryKind = "SELECT"
	QueryKindDML    QueryKind = "DML"
)

// QueryKindFor returns the query kind implied by a spec kind.
func QueryKindFor(kind SpecKind) QueryKind {
	if kind == SpecKindMetric {
		return QueryKindSelect
	}
	return QueryKindDML
}

// FQN is a dot-separated catalog.schema.object identifier.
// Catalog and Schema may be empty when the name has fewer than
// three segments.
type FQN struct {
	Catalog string
	Schema  string
	Object  string
}

// ParseFQN splits a spec name into its catalog/schema/object parts.
// One segment fills Object, two fill Schema.Object, three fill all.
// Empty names and names with more than three segments are rejected.
func ParseFQN(name string) (FQN, error) {
	if strings.TrimSpace(name) == "" {
		return FQN{}, &ConfigurationError{Message: "spec name is empty"}
	}
	parts := strings.Split(name, ".")
	for _, p := range parts {
		if p == "" {
			return FQN{}, &ConfigurationError{
				Message: fmt.Sprintf("spec name %q has an empty segment", name),
			}
		}
	}
	switch len(parts) {
	case 1:
		return FQN{Object: parts[0]}, nil
	case 2:
		return FQN{Schema: parts[0], Object: parts[1]}, nil
	case 3:
		return FQN{Catalog: parts[0], Schema: parts[1], Object: parts[2]}, nil
	default:
		return FQN{}, &ConfigurationError{
			Message: fmt.Sprintf("spec name %q has %d segments, want 1-3", name, len(parts)),
		}
	}
}

// String reassembles the dotted form, omitting empty leading segments.
func (f FQN) String() string {
	parts := make([]string, 0, 3)
	if f.Catalog != "" {
		parts = append(parts, f.Catalog)
	}
	if f.Schema != "" {
		parts = append(parts, f.Schema)
	}
	parts = append(parts, f.Object)
	return strings.Join(parts, ".")
}

// ExecutionConfig holds per-spec execution settings.
type ExecutionConfig struct {
	// TimeoutSeconds is the per-statement timeout passed to the executor.
	TimeoutSeconds int
	// RetryCount is the number of additional attempts after a failed statement.
	RetryCount int
	// RetryDelaySeconds is the pause between retry attempts.
	RetryDelaySeconds int
	// Dialect selects the SQL grammar variant for validation.
	Dialect string
}

// DefaultTimeoutSeconds applies when a spec file omits the timeout.
const DefaultTimeoutSeconds = 300

// Spec is a parsed Dataset or Metric specification.
// Specs are immutable once loaded; the registry replaces them wholesale
// on reload rather than mutating in place.
type Spec struct {
	// Name is the fully-qualified catalog.schema.object name.
	Name string
	// FQN is the parsed form of Name.
	FQN FQN
	// Kind tags the spec as dataset or metric.
	Kind SpecKind
	// QueryKind is SELECT for metrics, DML for datasets.
	QueryKind QueryKind
	// Owner is the individual responsible for the spec.
	Owner string
	// Team is the owning team.
	Team string
	// Domains are business-domain labels.
	Domains []string
	// Tags are free-form labels for filtering.
	Tags []string
	// Parameters declares the typed parameters the SQL accepts.
	Parameters []ParameterDefinition
	// Main is the single required main statement.
	Main Statement
	// Pre are statements executed before Main, in declared order.
	Pre []Statement
	// Post are statements executed after Main, in declared order.
	Post []Statement
	// Execution holds timeout/retry/dialect settings.
	Execution ExecutionConfig
	// DependsOn lists upstream spec or table names referenced via ref().
	DependsOn []string
	// FilePath is the absolute path of the source file.
	FilePath string
}

// Parameter returns the named parameter definition, if declared.
func (s *Spec) Parameter(name string) (ParameterDefinition, bool) {
	for _, p := range s.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterDefinition{}, false
}

// HasDependency reports whether name appears in DependsOn.
func (s *Spec) HasDependency(name string) bool {
	for _, d := range s.DependsOn {
		if d == name {
			return true
		}
	}
	return false
}
