// Package edges derives dependency edges between workspace projects, from
// declared manifest fields and from static source imports.
package edges

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/felixgeelhaar/wiggum/internal/graph"
	"github.com/felixgeelhaar/wiggum/internal/workspace"
)

const (
	workspaceProtocol = "workspace:"
	npmProtocol       = "npm:"
	fileProtocol      = "file:"
	linkProtocol      = "link:"
)

// ManifestEdges returns the local edges declared in every project's manifest.
// References to names that are not discovered projects are ignored.
func ManifestEdges(reg *workspace.Registry) []graph.Edge {
	var out []graph.Edge
	for _, p := range reg.Projects() {
		out = append(out, projectManifestEdges(reg, p)...)
	}
	return graph.SortEdges(out)
}

func projectManifestEdges(reg *workspace.Registry, p *workspace.Project) []graph.Edge {
	var out []graph.Edge
	add := func(to string, reason graph.Reason) {
		if to == p.Name {
			return
		}
		if _, ok := reg.Get(to); !ok {
			return
		}
		out = append(out, graph.Edge{From: p.Name, To: to, Reason: reason})
	}

	for _, field := range workspace.DependencyFields {
		deps := p.Manifest.Dependencies(field)
		keys := make([]string, 0, len(deps))
		for k := range deps {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			spec := strings.TrimSpace(deps[key])
			switch {
			case strings.HasPrefix(spec, workspaceProtocol):
				rest := strings.TrimPrefix(spec, workspaceProtocol)
				if alias, ok := aliasTarget(reg, rest); ok {
					add(alias, graph.ReasonWorkspaceAlias)
				} else {
					add(key, graph.ReasonManifestDependency)
				}
			case strings.HasPrefix(spec, npmProtocol):
				if alias, ok := aliasTarget(reg, strings.TrimPrefix(spec, npmProtocol)); ok {
					add(alias, graph.ReasonWorkspaceAlias)
				}
			case strings.HasPrefix(spec, fileProtocol), strings.HasPrefix(spec, linkProtocol):
				if target, ok := linkTarget(reg, p, spec); ok {
					add(target, graph.ReasonFileLink)
				}
			}
		}
	}

	for _, name := range p.Manifest.Bundled {
		add(name, graph.ReasonBundleDependency)
	}
	return out
}

// aliasTarget resolves "<name>@<range>" or a bare "<name>" to a project name.
func aliasTarget(reg *workspace.Registry, ref string) (string, bool) {
	name := ref
	search := ref
	offset := 0
	if strings.HasPrefix(ref, "@") {
		search = ref[1:]
		offset = 1
	}
	if i := strings.Index(search, "@"); i >= 0 {
		name = ref[:i+offset]
	}
	if name == "" {
		return "", false
	}
	if _, ok := reg.Get(name); !ok {
		return "", false
	}
	return name, true
}

// linkTarget resolves a file: or link: reference, relative to the project root,
// to the project living in that directory.
func linkTarget(reg *workspace.Registry, p *workspace.Project, spec string) (string, bool) {
	_, target, _ := strings.Cut(spec, ":")
	target = strings.TrimPrefix(target, "//")
	if target == "" {
		return "", false
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(p.Root, filepath.FromSlash(target))
	}
	target = filepath.Clean(target)
	if filepath.Base(target) == workspace.ManifestFile {
		target = filepath.Dir(target)
	}

	rel, err := filepath.Rel(reg.Root(), target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	project, ok := reg.ByRoot(target)
	if !ok {
		return "", false
	}
	return project.Name, true
}
