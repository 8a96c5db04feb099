package plan

import (
	"fmt"

	"github.com/felixgeelhaar/wiggum/internal/graph"
)

// Build creates the plan for running task over the selected projects.
//
// Levels are recomputed over the subgraph induced by selected, so a project
// whose dependencies were filtered out can move to an earlier level. Each
// entry's arguments are the task arguments followed by the project's extra
// arguments from the workspace config.
func Build(g *graph.Graph, selected []string, task Task, extraArgs map[string][]string) (*Plan, error) {
	if task.Command == "" {
		return nil, fmt.Errorf("task command is required")
	}
	if task.Name == "" {
		task.Name = task.Command
	}

	sub := g.Subgraph(selected)
	topo, err := graph.Sort(sub)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		Task:    task,
		Levels:  topo.Levels,
		Entries: make([]Entry, 0, len(topo.Order)),
	}
	for level, names := range topo.Levels {
		for _, name := range names {
			args := make([]string, 0, len(task.Args)+len(extraArgs[name]))
			args = append(args, task.Args...)
			args = append(args, extraArgs[name]...)

			p.Entries = append(p.Entries, Entry{
				Project: name,
				Command: task.Command,
				Args:    args,
				Level:   level,
			})
		}
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	return p, nil
}
