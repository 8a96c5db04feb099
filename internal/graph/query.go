package graph

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/zeebo/blake3"
)

// Neighborhood lists the direct dependencies and dependents of one project.
type Neighborhood struct {
	Project      string   `json:"project"`
	Dependencies []string `json:"dependencies"`
	Dependents   []string `json:"dependents"`
}

// Subgraph returns the graph induced by names. Unknown names are ignored.
func (g *Graph) Subgraph(names []string) *Graph {
	keep := make(map[string]bool, len(names))
	var projects []string
	for _, name := range names {
		if g.Has(name) && !keep[name] {
			keep[name] = true
			projects = append(projects, name)
		}
	}

	var edges []Edge
	for _, e := range g.edges {
		if keep[e.From] && keep[e.To] {
			edges = append(edges, e)
		}
	}
	return Build(projects, edges)
}

// DependencyClosure returns names together with all of their transitive
// dependencies, sorted. Dependents are never included.
func (g *Graph) DependencyClosure(names []string) []string {
	seen := make(map[string]bool)
	var queue []string
	for _, name := range names {
		if g.Has(name) && !seen[name] {
			seen[name] = true
			queue = append(queue, name)
		}
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, dep := range g.deps[name] {
			if !seen[dep] {
				seen[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Neighborhood returns one entry per known name, sorted by project.
func (g *Graph) Neighborhood(names []string) []Neighborhood {
	seen := make(map[string]bool)
	var out []Neighborhood
	for _, name := range names {
		if !g.Has(name) || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, Neighborhood{
			Project:      name,
			Dependencies: nonNil(g.Dependencies(name)),
			Dependents:   nonNil(g.Dependents(name)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Project < out[j].Project })
	return out
}

// Fingerprint is a blake3 digest of the canonical projects and edges. Two
// graphs share a fingerprint exactly when they have the same structure.
func (g *Graph) Fingerprint() (string, error) {
	canonical, err := json.Marshal(struct {
		Projects []string `json:"projects"`
		Edges    []Edge   `json:"edges"`
	}{
		Projects: nonNil(g.names),
		Edges:    nonNilEdges(g.edges),
	})
	if err != nil {
		return "", fmt.Errorf("canonicalize graph: %w", err)
	}

	hasher := blake3.New()
	if _, err := hasher.Write(canonical); err != nil {
		return "", fmt.Errorf("hash graph: %w", err)
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilEdges(e []Edge) []Edge {
	if e == nil {
		return []Edge{}
	}
	return e
}
