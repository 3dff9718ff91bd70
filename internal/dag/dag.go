// Package dag provides directed acyclic graph operations for spec
// dependencies. Cycle detection and topological sorting are iterative
// over integer-indexed nodes, so graph depth never grows the call stack.
package dag

import (
	"fmt"
	"sort"
)

// Graph represents a directed dependency graph. Nodes are addressed by
// a dense integer id internally; callers use string names.
type Graph struct {
	ids      map[string]int
	names    []string
	children [][]int // parent -> dependents
	parents  [][]int // child -> dependencies
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{ids: make(map[string]int)}
}

// AddNode adds a node if not already present and returns its id.
func (g *Graph) AddNode(name string) int {
	if id, ok := g.ids[name]; ok {
		return id
	}
	id := len(g.names)
	g.ids[name] = id
	g.names = append(g.names, name)
	g.children = append(g.children, nil)
	g.parents = append(g.parents, nil)
	return id
}

// AddEdge adds a directed edge from parent to child (child depends on
// parent). Both nodes must exist; self-loops are rejected.
func (g *Graph) AddEdge(parent, child string) error {
	pid, ok := g.ids[parent]
	if !ok {
		return fmt.Errorf("parent node %q does not exist", parent)
	}
	cid, ok := g.ids[child]
	if !ok {
		return fmt.Errorf("child node %q does not exist", child)
	}
	if pid == cid {
		return fmt.Errorf("self-loop detected: %s", parent)
	}
	for _, existing := range g.children[pid] {
		if existing == cid {
			return nil
		}
	}
	g.children[pid] = append(g.children[pid], cid)
	g.parents[cid] = append(g.parents[cid], pid)
	return nil
}

// HasNode reports whether a node exists.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.ids[name]
	return ok
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.names) }

// Parents returns the dependency names of a node, sorted.
func (g *Graph) Parents(name string) []string {
	id, ok := g.ids[name]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(g.parents[id]))
	for _, pid := range g.parents[id] {
		out = append(out, g.names[pid])
	}
	sort.Strings(out)
	return out
}

// Children returns the dependent names of a node, sorted.
func (g *Graph) Children(name string) []string {
	id, ok := g.ids[name]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(g.children[id]))
	for _, cid := range g.children[id] {
		out = append(out, g.names[cid])
	}
	sort.Strings(out)
	return out
}

// dfs colors for cycle detection.
const (
	white = 0 // unvisited
	gray  = 1 // on the current path
	black = 2 // fully explored
)

// HasCycle reports whether the graph contains a cycle, along with one
// offending path. The walk is an explicit stack machine, not recursion.
func (g *Graph) HasCycle() (bool, []string) {
	color := make([]int, len(g.names))

	// frame tracks the next child index to visit per node on the stack.
	type frame struct {
		id   int
		next int
	}

	for start := range g.names {
		if color[start] != white {
			continue
		}

		stack := []frame{{id: start}}
		color[start] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]

			if top.next >= len(g.children[top.id]) {
				color[top.id] = black
				stack = stack[:len(stack)-1]
				continue
			}

			child := g.children[top.id][top.next]
			top.next++

			switch color[child] {
			case white:
				color[child] = gray
				stack = append(stack, frame{id: child})
			case gray:
				// Reconstruct the cycle from the stack.
				var path []string
				seen := false
				for _, f := range stack {
					if f.id == child {
						seen = true
					}
					if seen {
						path = append(path, g.names[f.id])
					}
				}
				path = append(path, g.names[child])
				return true, path
			}
		}
	}

	return false, nil
}

// TopologicalSort returns node names with dependencies before
// dependents, using Kahn's algorithm with deterministic tie-breaking.
// Returns an error if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	if cyclic, path := g.HasCycle(); cyclic {
		return nil, fmt.Errorf("cycle detected: %v", path)
	}

	indegree := make([]int, len(g.names))
	for id := range g.names {
		indegree[id] = len(g.parents[id])
	}

	ready := make([]int, 0, len(g.names))
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sortByName(g, ready)

	result := make([]string, 0, len(g.names))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		result = append(result, g.names[id])

		released := make([]int, 0, len(g.children[id]))
		for _, cid := range g.children[id] {
			indegree[cid]--
			if indegree[cid] == 0 {
				released = append(released, cid)
			}
		}
		sortByName(g, released)
		ready = append(ready, released...)
	}

	return result, nil
}

// Downstream returns the given nodes plus every transitive dependent,
// sorted. The walk is iterative.
func (g *Graph) Downstream(names []string) []string {
	seen := make(map[int]struct{})
	var stack []int
	for _, name := range names {
		if id, ok := g.ids[name]; ok {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				stack = append(stack, id)
			}
		}
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, cid := range g.children[id] {
			if _, dup := seen[cid]; !dup {
				seen[cid] = struct{}{}
				stack = append(stack, cid)
			}
		}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, g.names[id])
	}
	sort.Strings(out)
	return out
}

func sortByName(g *Graph, ids []int) {
	sort.Slice(ids, func(i, j int) bool {
		return g.names[ids[i]] < g.names[ids[j]]
	})
}
