package ux

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/wiggum/internal/filter"
	"github.com/felixgeelhaar/wiggum/internal/graph"
	"github.com/felixgeelhaar/wiggum/internal/plan"
	"github.com/felixgeelhaar/wiggum/internal/workspace"
)

// ProjectView is the output shape of one project.
type ProjectView struct {
	Name     string   `json:"name" yaml:"name"`
	Root     string   `json:"root" yaml:"root"`
	Path     string   `json:"path" yaml:"path"`
	Version  string   `json:"version,omitempty" yaml:"version,omitempty"`
	Args     []string `json:"args,omitempty" yaml:"args,omitempty"`
	PulledIn bool     `json:"pulledIn,omitempty" yaml:"pulledIn,omitempty"`
}

// GraphView is the output shape of a dependency graph.
type GraphView struct {
	TopologicalOrder []string     `json:"topologicalOrder" yaml:"topologicalOrder"`
	Levels           [][]string   `json:"levels" yaml:"levels"`
	Edges            []graph.Edge `json:"edges" yaml:"edges"`
	Fingerprint      string       `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
}

// ProjectList is the document printed by "wiggum projects".
type ProjectList struct {
	Projects []ProjectView `json:"projects" yaml:"projects"`
}

// GraphReport is the document printed by "wiggum graph".
type GraphReport struct {
	Projects []ProjectView `json:"projects" yaml:"projects"`
	Graph    GraphView     `json:"graph" yaml:"graph"`
}

// DryRun is the document printed by "wiggum run --dry-run".
type DryRun struct {
	Task     plan.Task     `json:"-" yaml:"-"`
	Projects []ProjectView `json:"projects" yaml:"projects"`
	Graph    GraphView     `json:"graph" yaml:"graph"`
	Plan     []plan.Entry  `json:"plan" yaml:"plan"`

	levels [][]string
}

// NewProjectViews describes the selected projects in selection order:
// explicit matches first, then pulled-in dependencies.
func NewProjectViews(reg *workspace.Registry, sel *filter.Selection) []ProjectView {
	out := make([]ProjectView, 0, sel.Len())
	add := func(name string, pulled bool) {
		p, ok := reg.Get(name)
		if !ok {
			return
		}
		v := ProjectView{
			Name:     p.Name,
			Root:     p.Root,
			Path:     reg.RelPath(p.Root),
			Args:     p.ExtraArgs,
			PulledIn: pulled,
		}
		if v.Path == "." {
			v.Path = ""
		}
		if p.Manifest != nil {
			v.Version = p.Manifest.Version
		}
		out = append(out, v)
	}
	for _, name := range sel.Explicit {
		add(name, false)
	}
	for _, name := range sel.Pulled {
		add(name, true)
	}
	return out
}

// NewGraphView describes g with its topological order. The fingerprint is
// left empty when it cannot be computed.
func NewGraphView(g *graph.Graph, topo *graph.TopoResult) GraphView {
	fp, _ := g.Fingerprint()
	return GraphView{
		TopologicalOrder: nonNil(topo.Order),
		Levels:           topo.Levels,
		Edges:            g.Edges(),
		Fingerprint:      fp,
	}
}

// NewDryRun builds the dry-run document for p. The graph section covers
// only the planned projects.
func NewDryRun(reg *workspace.Registry, sel *filter.Selection, g *graph.Graph, p *plan.Plan) DryRun {
	sub := g.Subgraph(p.Projects())
	order := p.Projects()
	return DryRun{
		Task:     p.Task,
		Projects: NewProjectViews(reg, sel),
		Graph: GraphView{
			TopologicalOrder: nonNil(order),
			Levels:           p.Levels,
			Edges:            sub.Edges(),
		},
		Plan:   p.Entries,
		levels: p.Levels,
	}
}

// RenderText prints one project per line.
func (l ProjectList) RenderText(w io.Writer, s *Styles) error {
	width := 0
	for _, p := range l.Projects {
		width = max(width, len(p.Name))
	}
	for _, p := range l.Projects {
		line := s.Name.Render(pad(p.Name, width))
		if p.Path != "" {
			line += "  " + s.Muted.Render(p.Path)
		}
		if p.PulledIn {
			line += "  " + s.Skipped.Render("(dependency)")
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// RenderText prints the projects, the levels and the edges grouped by pair.
func (r GraphReport) RenderText(w io.Writer, s *Styles) error {
	var b strings.Builder

	b.WriteString(s.Title.Render(fmt.Sprintf("Projects (%d)", len(r.Projects))) + "\n")
	var list strings.Builder
	if err := (ProjectList{Projects: r.Projects}).RenderText(&list, s); err != nil {
		return err
	}
	b.WriteString(indent(list.String()))

	b.WriteString(s.Header.Render("Levels") + "\n")
	for i, level := range r.Graph.Levels {
		fmt.Fprintf(&b, "  %s  %s\n", s.Muted.Render(strconv.Itoa(i)), strings.Join(level, ", "))
	}

	b.WriteString(s.Header.Render("Edges") + "\n")
	if len(r.Graph.Edges) == 0 {
		b.WriteString("  " + s.Muted.Render("none") + "\n")
	}
	for _, e := range groupEdges(r.Graph.Edges) {
		fmt.Fprintf(&b, "  %s -> %s  %s\n", e.from, e.to, s.Muted.Render(strings.Join(e.reasons, ", ")))
	}

	if r.Graph.Fingerprint != "" {
		fmt.Fprintf(&b, "%s %s\n", s.Muted.Render("fingerprint"), r.Graph.Fingerprint)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderText prints the plan level by level.
func (d DryRun) RenderText(w io.Writer, s *Styles) error {
	var b strings.Builder

	title := fmt.Sprintf("Plan: %s (%d projects, %d levels)",
		CommandLine(d.Task.Command, d.Task.Args), len(d.Plan), len(d.levels))
	b.WriteString(s.Title.Render(title) + "\n")

	width := 0
	for _, e := range d.Plan {
		width = max(width, len(e.Project))
	}

	level := -1
	for _, e := range d.Plan {
		if e.Level != level {
			level = e.Level
			b.WriteString(s.Header.Render(fmt.Sprintf("Level %d", level)) + "\n")
		}
		fmt.Fprintf(&b, "  %s  %s\n", s.Name.Render(pad(e.Project, width)), s.Command.Render(CommandLine(e.Command, e.Args)))
	}
	if len(d.Plan) == 0 {
		b.WriteString("  " + s.Muted.Render("nothing to run") + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// CommandLine joins a command and its arguments for display, quoting
// arguments that would not survive a shell round trip.
func CommandLine(command string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, command)
	for _, a := range args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\n\"'\\$`|&;<>()*?[]{}!#~") {
		return strconv.Quote(s)
	}
	return s
}

type edgeGroup struct {
	from, to string
	reasons  []string
}

// groupEdges folds the per-reason edges, which arrive sorted by (from, to),
// into one line per pair.
func groupEdges(edges []graph.Edge) []edgeGroup {
	var out []edgeGroup
	for _, e := range edges {
		if n := len(out); n > 0 && out[n-1].from == e.From && out[n-1].to == e.To {
			out[n-1].reasons = append(out[n-1].reasons, string(e.Reason))
			continue
		}
		out = append(out, edgeGroup{from: e.From, to: e.To, reasons: []string{string(e.Reason)}})
	}
	return out
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func indent(s string) string {
	if s == "" {
		return ""
	}
	lines := strings.SplitAfter(s, "\n")
	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		b.WriteString("  " + line)
	}
	return b.String()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
