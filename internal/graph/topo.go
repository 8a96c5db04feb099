package graph

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/felixgeelhaar/wiggum/internal/errors"
)

// ErrCycle is matched by every error Sort returns for a cyclic graph.
var ErrCycle = stderrors.New("dependency cycle")

// TopoResult is a deterministic topological order split into levels. Every
// project of a level depends only on projects of strictly earlier levels.
type TopoResult struct {
	Order  []string   `json:"topologicalOrder"`
	Levels [][]string `json:"levels"`

	levelOf map[string]int
}

// LevelOf returns the level index of name.
func (r *TopoResult) LevelOf(name string) (int, bool) {
	level, ok := r.levelOf[name]
	return level, ok
}

// CycleError reports the projects that take part in at least one cycle.
type CycleError struct {
	// Participants is the sorted union of all cycles.
	Participants []string

	// Cycles holds one sorted member list per strongly connected component.
	Cycles [][]string

	coded *errors.RunnerError
}

func newCycleError(cycles [][]string) *CycleError {
	var participants []string
	for _, c := range cycles {
		participants = append(participants, c...)
	}
	sort.Strings(participants)
	return &CycleError{
		Participants: participants,
		Cycles:       cycles,
		coded:        errors.NewCycleError(participants, nil),
	}
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("Circular project dependencies detected: %s", strings.Join(e.Participants, ", "))
}

// Unwrap exposes ErrCycle and the coded error carrying suggestions.
func (e *CycleError) Unwrap() []error {
	return []error{ErrCycle, e.coded}
}

// Sort runs Kahn's algorithm. Each removal round is one level and ties within a
// round are broken by name. When nodes remain, the strongly connected
// components among them are reported as a *CycleError.
func Sort(g *Graph) (*TopoResult, error) {
	pending := make(map[string]int, len(g.names))
	var current []string
	for _, name := range g.names {
		pending[name] = len(g.deps[name])
		if pending[name] == 0 {
			current = append(current, name)
		}
	}

	result := &TopoResult{
		Order:   make([]string, 0, len(g.names)),
		Levels:  [][]string{},
		levelOf: make(map[string]int, len(g.names)),
	}

	for len(current) > 0 {
		level := len(result.Levels)
		var next []string
		for _, name := range current {
			result.levelOf[name] = level
			for _, dependent := range g.dependents[name] {
				pending[dependent]--
				if pending[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		result.Levels = append(result.Levels, current)
		result.Order = append(result.Order, current...)

		sort.Strings(next)
		current = next
	}

	if len(result.Order) == len(g.names) {
		return result, nil
	}

	residual := make(map[string]bool)
	for _, name := range g.names {
		if _, done := result.levelOf[name]; !done {
			residual[name] = true
		}
	}
	return nil, newCycleError(cyclesAmong(g, residual))
}

// cyclesAmong returns the non-trivial strongly connected components of the
// subgraph induced by nodes, using Tarjan's algorithm. Components and their
// members are sorted.
func cyclesAmong(g *Graph, nodes map[string]bool) [][]string {
	t := &tarjan{
		g:       g,
		nodes:   nodes,
		index:   make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
	}
	for _, name := range g.names {
		if !nodes[name] {
			continue
		}
		if _, visited := t.index[name]; !visited {
			t.connect(name)
		}
	}

	sort.Slice(t.components, func(i, j int) bool {
		return t.components[i][0] < t.components[j][0]
	})
	return t.components
}

type tarjan struct {
	g          *Graph
	nodes      map[string]bool
	counter    int
	index      map[string]int
	lowlink    map[string]int
	stack      []string
	onStack    map[string]bool
	components [][]string
}

func (t *tarjan) connect(v string) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.g.deps[v] {
		if !t.nodes[w] {
			continue
		}
		if _, visited := t.index[w]; !visited {
			t.connect(w)
			t.lowlink[v] = min(t.lowlink[v], t.lowlink[w])
		} else if t.onStack[w] {
			t.lowlink[v] = min(t.lowlink[v], t.index[w])
		}
	}

	if t.lowlink[v] != t.index[v] {
		return
	}

	var component []string
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		component = append(component, w)
		if w == v {
			break
		}
	}
	if len(component) > 1 {
		sort.Strings(component)
		t.components = append(t.components, component)
	}
}
