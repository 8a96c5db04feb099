package plan

import (
	"fmt"
	"strings"
)

// Validate checks if the Entry is well formed
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.Project) == "" {
		return fmt.Errorf("project cannot be empty")
	}
	if strings.TrimSpace(e.Command) == "" {
		return fmt.Errorf("command cannot be empty")
	}
	if e.Level < 0 {
		return fmt.Errorf("level must not be negative, got %d", e.Level)
	}
	return nil
}

// Validate checks that the Plan is internally consistent: unique projects,
// entries ordered by level and name, and Levels matching the entries.
func (p *Plan) Validate() error {
	if strings.TrimSpace(p.Task.Command) == "" {
		return fmt.Errorf("task command cannot be empty")
	}

	seen := make(map[string]bool, len(p.Entries))
	for i, e := range p.Entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("entry at index %d (%s) is invalid: %w", i, e.Project, err)
		}
		if seen[e.Project] {
			return fmt.Errorf("duplicate project %q at index %d", e.Project, i)
		}
		seen[e.Project] = true

		if i == 0 {
			continue
		}
		prev := p.Entries[i-1]
		if e.Level < prev.Level {
			return fmt.Errorf("entry %q at level %d follows level %d", e.Project, e.Level, prev.Level)
		}
		if e.Level == prev.Level && e.Project < prev.Project {
			return fmt.Errorf("entry %q is out of order within level %d", e.Project, e.Level)
		}
	}

	count := 0
	for level, names := range p.Levels {
		if len(names) == 0 {
			return fmt.Errorf("level %d is empty", level)
		}
		for _, name := range names {
			e, ok := p.Entry(name)
			if !ok {
				return fmt.Errorf("level %d lists unknown project %q", level, name)
			}
			if e.Level != level {
				return fmt.Errorf("project %q is listed in level %d but planned at level %d", name, level, e.Level)
			}
			count++
		}
	}
	if count != len(p.Entries) {
		return fmt.Errorf("levels list %d projects, plan has %d", count, len(p.Entries))
	}
	return nil
}
