// Package filter resolves --project patterns into the set of projects a
// command operates on.
package filter

import (
	"fmt"
	"path"
	"strings"

	"github.com/felixgeelhaar/wiggum/internal/errors"
	"github.com/felixgeelhaar/wiggum/internal/graph"
	"github.com/felixgeelhaar/wiggum/internal/log"
	"github.com/felixgeelhaar/wiggum/internal/workspace"
)

// Filter holds include and exclude patterns. Exclude patterns are stored
// without their leading "!".
type Filter struct {
	Include []string
	Exclude []string
}

// Parse splits repeated and comma-separated values into a Filter.
func Parse(values []string) Filter {
	var f Filter
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" || part == "!" {
				continue
			}
			if strings.HasPrefix(part, "!") {
				f.Exclude = append(f.Exclude, strings.TrimSpace(part[1:]))
				continue
			}
			f.Include = append(f.Include, part)
		}
	}
	return f
}

// IsEmpty reports whether no pattern was given.
func (f Filter) IsEmpty() bool {
	return len(f.Include) == 0 && len(f.Exclude) == 0
}

// Patterns renders the filter back into its command-line form.
func (f Filter) Patterns() []string {
	out := append([]string(nil), f.Include...)
	for _, p := range f.Exclude {
		out = append(out, "!"+p)
	}
	return out
}

// Validate rejects malformed wildcard patterns.
func (f Filter) Validate() error {
	for _, p := range f.Patterns() {
		raw := strings.TrimPrefix(p, "!")
		if _, err := path.Match(raw, ""); err != nil {
			return errors.Wrap(errors.ErrCodeFilterPattern, fmt.Sprintf("invalid project pattern %q", p), err).
				WithSuggestion("Use * and ? wildcards, e.g. @scope/* or !@scope/legacy")
		}
	}
	return nil
}

// Match reports whether name matches pattern exactly or as a wildcard.
// A "*" never crosses a "/".
func Match(pattern, name string) bool {
	if pattern == name {
		return true
	}
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if Match(p, name) {
			return true
		}
	}
	return false
}

// Options tune Apply.
type Options struct {
	// ExpandDependencies adds the transitive dependencies of the explicit
	// selection.
	ExpandDependencies bool

	Logger *log.Logger
}

// Selection is the result of applying a Filter.
type Selection struct {
	// Explicit lists the projects matched by the patterns, in discovery order.
	Explicit []string

	// Pulled lists dependencies added by expansion, in discovery order.
	Pulled []string
}

// Names returns Explicit followed by Pulled.
func (s *Selection) Names() []string {
	out := make([]string, 0, len(s.Explicit)+len(s.Pulled))
	out = append(out, s.Explicit...)
	return append(out, s.Pulled...)
}

// Len returns the number of selected projects.
func (s *Selection) Len() int {
	return len(s.Explicit) + len(s.Pulled)
}

// Apply selects projects from reg. Without include patterns every project is
// included. Exclusions only narrow the explicit set: a dependency pulled in by
// expansion is kept even when an exclude pattern names it.
func Apply(reg *workspace.Registry, g *graph.Graph, f Filter, opts Options) (*Selection, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.DefaultLogger()
	}

	names := reg.Names()
	sel := &Selection{}

	for _, p := range f.Include {
		if !anyMatch(p, names) {
			logger.Warn("project pattern matched nothing", "pattern", p)
		}
	}

	explicit := make(map[string]bool)
	for _, name := range names {
		if len(f.Include) > 0 && !matchAny(f.Include, name) {
			continue
		}
		if matchAny(f.Exclude, name) {
			continue
		}
		explicit[name] = true
		sel.Explicit = append(sel.Explicit, name)
	}

	if opts.ExpandDependencies && len(sel.Explicit) > 0 {
		closure := make(map[string]bool)
		for _, name := range g.DependencyClosure(sel.Explicit) {
			closure[name] = true
		}
		for _, name := range names {
			if closure[name] && !explicit[name] {
				sel.Pulled = append(sel.Pulled, name)
			}
		}
	}

	if sel.Len() == 0 && !f.IsEmpty() {
		return nil, errors.NewEmptySelectionError(f.Patterns())
	}
	logger.Debug("selected projects", "explicit", len(sel.Explicit), "pulled", len(sel.Pulled))
	return sel, nil
}

func anyMatch(pattern string, names []string) bool {
	for _, name := range names {
		if Match(pattern, name) {
			return true
		}
	}
	return false
}
