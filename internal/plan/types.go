package plan

// Task is the command requested on the command line, e.g. "wiggum run jest --ci".
type Task struct {
	Name    string   `json:"name"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// Entry is one project's invocation within a Plan
type Entry struct {
	Project string   `json:"project" yaml:"project"`
	Command string   `json:"command" yaml:"command"`
	Args    []string `json:"args" yaml:"args"`
	Level   int      `json:"-" yaml:"-"` // Rebuilt from Plan.Levels when loading
}

// Plan is the ordered, leveled list of invocations for a task. Entries are
// sorted by level, then by project name.
type Plan struct {
	Task    Task       `json:"task"`
	Levels  [][]string `json:"levels"`
	Entries []Entry    `json:"plan"`
}

// Projects returns the project names in plan order
func (p *Plan) Projects() []string {
	out := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		out[i] = e.Project
	}
	return out
}

// Entry looks up the entry of a project
func (p *Plan) Entry(project string) (Entry, bool) {
	for _, e := range p.Entries {
		if e.Project == project {
			return e, true
		}
	}
	return Entry{}, false
}

// ByLevel groups entries by level
func (p *Plan) ByLevel() [][]Entry {
	out := make([][]Entry, len(p.Levels))
	for _, e := range p.Entries {
		if e.Level < len(out) {
			out[e.Level] = append(out[e.Level], e)
		}
	}
	return out
}
