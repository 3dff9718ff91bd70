// Package registry indexes loaded specs for lookup by name, catalog,
// schema, domain, tag, owner, and team.
//
// The index is built once and treated as an immutable snapshot: reads
// need no locking. Reload replaces the snapshot wholesale; callers that
// reload concurrently must serialize those calls themselves.
package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/1ambda/dataops-platform-sub001/internal/dag"
	"github.com/1ambda/dataops-platform-sub001/internal/loader"
	"github.com/1ambda/dataops-platform-sub001/pkg/core"
)

// Filters are ANDed together by Search. Empty fields match everything.
type Filters struct {
	Tag     string
	Domain  string
	Owner   string
	Catalog string
	Schema  string
	Team    string
}

// index is one immutable snapshot of the spec catalog.
type index struct {
	byName    map[string]*core.Spec
	byCatalog map[string][]string
	bySchema  map[string][]string
	byDomain  map[string][]string
	byTag     map[string][]string
	byOwner   map[string][]string
	byTeam    map[string][]string
	names     []string
	graph     *dag.Graph
}

// SpecRegistry discovers and indexes dataset/metric specs from a set
// of spec directories.
type SpecRegistry struct {
	dirs   []string
	logger *slog.Logger
	idx    *index
}

// New builds a registry by scanning the given directories.
func New(dirs []string, logger *slog.Logger) (*SpecRegistry, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &SpecRegistry{dirs: dirs, logger: logger}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-scans the spec directories and atomically replaces the
// index. Not safe to call concurrently with other Reload calls.
func (r *SpecRegistry) Reload() error {
	specs, err := loader.DiscoverSpecs(r.dirs)
	if err != nil {
		return err
	}

	idx, err := buildIndex(specs)
	if err != nil {
		return err
	}

	r.logger.Debug("registry loaded", "specs", len(specs), "dirs", r.dirs)
	r.idx = idx
	return nil
}

func buildIndex(specs []*core.Spec) (*index, error) {
	idx := &index{
		byName:    make(map[string]*core.Spec, len(specs)),
		byCatalog: make(map[string][]string),
		bySchema:  make(map[string][]string),
		byDomain:  make(map[string][]string),
		byTag:     make(map[string][]string),
		byOwner:   make(map[string][]string),
		byTeam:    make(map[string][]string),
		graph:     dag.NewGraph(),
	}

	for _, spec := range specs {
		if prev, dup := idx.byName[spec.Name]; dup {
			return nil, &core.ConfigurationError{
				Message: fmt.Sprintf("duplicate spec name %q (%s and %s)",
					spec.Name, prev.FilePath, spec.FilePath),
			}
		}
		idx.byName[spec.Name] = spec
		idx.names = append(idx.names, spec.Name)

		if spec.FQN.Catalog != "" {
			idx.byCatalog[spec.FQN.Catalog] = append(idx.byCatalog[spec.FQN.Catalog], spec.Name)
		}
		if spec.FQN.Schema != "" {
			idx.bySchema[spec.FQN.Schema] = append(idx.bySchema[spec.FQN.Schema], spec.Name)
		}
		for _, d := range spec.Domains {
			idx.byDomain[d] = append(idx.byDomain[d], spec.Name)
		}
		for _, tag := range spec.Tags {
			idx.byTag[tag] = append(idx.byTag[tag], spec.Name)
		}
		if spec.Owner != "" {
			idx.byOwner[spec.Owner] = append(idx.byOwner[spec.Owner], spec.Name)
		}
		if spec.Team != "" {
			idx.byTeam[spec.Team] = append(idx.byTeam[spec.Team], spec.Name)
		}
	}
	sort.Strings(idx.names)

	// Build the dependency graph. Names not present in the catalog are
	// external tables; they become nodes so cycles through them are
	// still visible.
	for _, spec := range specs {
		idx.graph.AddNode(spec.Name)
	}
	for _, spec := range specs {
		for _, dep := range spec.DependsOn {
			idx.graph.AddNode(dep)
			if err := idx.graph.AddEdge(dep, spec.Name); err != nil {
				return nil, &core.ConfigurationError{
					Message: fmt.Sprintf("spec %q: invalid dependency %q", spec.Name, dep),
					Cause:   err,
				}
			}
		}
	}
	if cyclic, path := idx.graph.HasCycle(); cyclic {
		return nil, &core.ConfigurationError{
			Message: fmt.Sprintf("dependency cycle: %v", path),
		}
	}

	return idx, nil
}

// Get returns the spec with the exact name, or nil if absent.
func (r *SpecRegistry) Get(name string) *core.Spec {
	return r.idx.byName[name]
}

// Names returns every spec name, sorted.
func (r *SpecRegistry) Names() []string {
	out := make([]string, len(r.idx.names))
	copy(out, r.idx.names)
	return out
}

// Count returns the number of indexed specs.
func (r *SpecRegistry) Count() int {
	return len(r.idx.byName)
}

// Search returns specs matching the AND of all non-empty filters,
// sorted by name.
func (r *SpecRegistry) Search(f Filters) []*core.Spec {
	candidates := r.idx.names

	// Narrow through each index; set intersection via sorted lists.
	for _, narrow := range []struct {
		key   string
		index map[string][]string
	}{
		{f.Tag, r.idx.byTag},
		{f.Domain, r.idx.byDomain},
		{f.Owner, r.idx.byOwner},
		{f.Catalog, r.idx.byCatalog},
		{f.Schema, r.idx.bySchema},
		{f.Team, r.idx.byTeam},
	} {
		if narrow.key == "" {
			continue
		}
		candidates = intersect(candidates, narrow.index[narrow.key])
		if len(candidates) == 0 {
			return nil
		}
	}

	out := make([]*core.Spec, 0, len(candidates))
	for _, name := range candidates {
		out = append(out, r.idx.byName[name])
	}
	return out
}

// Dependencies returns the direct upstream names of a spec, sorted.
func (r *SpecRegistry) Dependencies(name string) []string {
	return r.idx.graph.Parents(name)
}

// Dependents returns the direct downstream spec names, sorted.
func (r *SpecRegistry) Dependents(name string) []string {
	return r.idx.graph.Children(name)
}

// TopologicalOrder returns all graph nodes with dependencies first.
func (r *SpecRegistry) TopologicalOrder() ([]string, error) {
	return r.idx.graph.TopologicalSort()
}

func intersect(sorted, other []string) []string {
	member := make(map[string]struct{}, len(other))
	for _, name := range other {
		member[name] = struct{}{}
	}
	var out []string
	for _, name := range sorted {
		if _, ok := member[name]; ok {
			out = append(out, name)
		}
	}
	return out
}
