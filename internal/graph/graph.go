// Package graph holds the project dependency graph.
//
// A Graph is built once per invocation from the discovered project names and
// the extracted edges, and is read-only afterwards. Every accessor returns
// values in a deterministic order so that derived output (levels, plans, JSON)
// is byte-identical across runs over the same workspace.
package graph

import (
	"sort"
)

// Reason explains why one project depends on another.
type Reason string

const (
	ReasonManifestDependency Reason = "manifest-dependency"
	ReasonWorkspaceAlias     Reason = "workspace-alias"
	ReasonFileLink           Reason = "file-link"
	ReasonBundleDependency   Reason = "bundle-dependency"
	ReasonInferredImport     Reason = "inferred-import"
)

// Edge states that From depends on To.
type Edge struct {
	From   string `json:"from" yaml:"from"`
	To     string `json:"to" yaml:"to"`
	Reason Reason `json:"reason" yaml:"reason"`
}

type pair struct {
	from, to string
}

// Graph is an immutable adjacency view over project names.
type Graph struct {
	names      []string
	known      map[string]struct{}
	deps       map[string][]string
	dependents map[string][]string
	edges      []Edge
	reasons    map[pair][]Reason
}

// Build assembles a graph. Self-edges and edges that reference names not in
// projects are dropped. Every reason is kept, but each (from, to) pair
// contributes a single adjacency entry.
func Build(projects []string, edges []Edge) *Graph {
	g := &Graph{
		known:      make(map[string]struct{}, len(projects)),
		deps:       make(map[string][]string, len(projects)),
		dependents: make(map[string][]string, len(projects)),
		reasons:    make(map[pair][]Reason),
	}

	for _, name := range projects {
		if _, dup := g.known[name]; dup {
			continue
		}
		g.known[name] = struct{}{}
		g.names = append(g.names, name)
	}
	sort.Strings(g.names)

	for _, e := range SortEdges(edges) {
		if e.From == e.To || !g.Has(e.From) || !g.Has(e.To) {
			continue
		}
		g.edges = append(g.edges, e)

		p := pair{e.From, e.To}
		if _, seen := g.reasons[p]; !seen {
			g.deps[e.From] = append(g.deps[e.From], e.To)
			g.dependents[e.To] = append(g.dependents[e.To], e.From)
		}
		g.reasons[p] = append(g.reasons[p], e.Reason)
	}

	for name := range g.dependents {
		sort.Strings(g.dependents[name])
	}
	return g
}

// SortEdges returns a copy of edges ordered by (from, to, reason) with exact
// duplicates removed.
func SortEdges(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	copy(out, edges)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Reason < b.Reason
	})

	deduped := out[:0]
	for i, e := range out {
		if i > 0 && e == out[i-1] {
			continue
		}
		deduped = append(deduped, e)
	}
	return deduped
}

// Len returns the number of projects.
func (g *Graph) Len() int { return len(g.names) }

// Names returns the project names in lexicographic order.
func (g *Graph) Names() []string {
	return append([]string(nil), g.names...)
}

// Has reports whether name is a project of the graph.
func (g *Graph) Has(name string) bool {
	_, ok := g.known[name]
	return ok
}

// Dependencies returns the direct dependencies of name, sorted.
func (g *Graph) Dependencies(name string) []string {
	return append([]string(nil), g.deps[name]...)
}

// Dependents returns the projects that directly depend on name, sorted.
func (g *Graph) Dependents(name string) []string {
	return append([]string(nil), g.dependents[name]...)
}

// Edges returns every retained edge, sorted by (from, to, reason).
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// Reasons returns why from depends on to, or nil when it does not.
func (g *Graph) Reasons(from, to string) []Reason {
	return append([]Reason(nil), g.reasons[pair{from, to}]...)
}
