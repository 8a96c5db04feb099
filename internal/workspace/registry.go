package workspace

// Project is a discovered local package. It is created once per resolved
// directory and never mutated afterwards.
type Project struct {
	// Name is the unique manifest name.
	Name string `json:"name"`

	// Root is the absolute project directory.
	Root string `json:"root"`

	// ManifestPath is the absolute path of the package.json that was loaded.
	ManifestPath string `json:"-"`

	// Manifest is the parsed descriptor.
	Manifest *Manifest `json:"-"`

	// ExtraArgs come from the object config entry that produced the project
	// and are appended to the project's command line.
	ExtraArgs []string `json:"args,omitempty"`
}

// Registry holds the discovered projects in discovery order.
type Registry struct {
	root     string
	projects []*Project
	byName   map[string]*Project
	byRoot   map[string]*Project
}

func newRegistry(root string) *Registry {
	return &Registry{
		root:   root,
		byName: make(map[string]*Project),
		byRoot: make(map[string]*Project),
	}
}

// NewRegistry builds a registry from already-loaded projects. Later
// duplicates by name or root are ignored.
func NewRegistry(root string, projects ...*Project) *Registry {
	r := newRegistry(root)
	for _, p := range projects {
		if _, dup := r.byName[p.Name]; dup {
			continue
		}
		if _, dup := r.byRoot[p.Root]; dup {
			continue
		}
		r.add(p)
	}
	return r
}

func (r *Registry) add(p *Project) {
	r.projects = append(r.projects, p)
	r.byName[p.Name] = p
	r.byRoot[p.Root] = p
}

// Root returns the absolute workspace root.
func (r *Registry) Root() string { return r.root }

// Len returns the number of projects.
func (r *Registry) Len() int { return len(r.projects) }

// Projects returns the projects in discovery order.
func (r *Registry) Projects() []*Project {
	out := make([]*Project, len(r.projects))
	copy(out, r.projects)
	return out
}

// Names returns the project names in discovery order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.projects))
	for i, p := range r.projects {
		out[i] = p.Name
	}
	return out
}

// Get looks a project up by name.
func (r *Registry) Get(name string) (*Project, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// ByRoot looks a project up by its absolute directory.
func (r *Registry) ByRoot(root string) (*Project, bool) {
	p, ok := r.byRoot[root]
	return p, ok
}

// ExtraArgs returns the per-project extra arguments keyed by name.
func (r *Registry) ExtraArgs() map[string][]string {
	out := make(map[string][]string)
	for _, p := range r.projects {
		if len(p.ExtraArgs) > 0 {
			out[p.Name] = p.ExtraArgs
		}
	}
	return out
}
