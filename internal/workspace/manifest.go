package workspace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ManifestFile is the package descriptor that marks a directory as a project.
const ManifestFile = "package.json"

// DependencyField names the manifest fields that can declare local edges, in
// the order they are inspected.
var DependencyFields = []string{
	"dependencies",
	"devDependencies",
	"optionalDependencies",
	"peerDependencies",
}

// Manifest is the validated subset of package.json the runner relies on.
type Manifest struct {
	Name    string
	Version string

	// Deps maps each field in DependencyFields to its name -> spec entries.
	// Absent fields are absent from the map.
	Deps map[string]map[string]string

	// Bundled is the resolved bundleDependencies list, sorted.
	Bundled []string
}

// Dependencies returns the entries of one dependency field.
func (m *Manifest) Dependencies(field string) map[string]string {
	if m == nil {
		return nil
	}
	return m.Deps[field]
}

// ParseManifest decodes and validates a package.json document. It rejects
// anything that is not an object with a non-empty string "name", and
// dependency fields that are not string-to-string objects.
func ParseManifest(data []byte) (*Manifest, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("manifest is not a JSON object: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("manifest is not a JSON object")
	}

	m := &Manifest{Deps: make(map[string]map[string]string)}

	rawName, ok := fields["name"]
	if !ok {
		return nil, fmt.Errorf("missing required field \"name\"")
	}
	if err := json.Unmarshal(rawName, &m.Name); err != nil {
		return nil, fmt.Errorf("field \"name\" must be a string")
	}
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return nil, fmt.Errorf("field \"name\" must not be empty")
	}

	if rawVersion, ok := fields["version"]; ok && !isNull(rawVersion) {
		if err := json.Unmarshal(rawVersion, &m.Version); err != nil {
			return nil, fmt.Errorf("field \"version\" must be a string")
		}
	}

	for _, field := range DependencyFields {
		raw, ok := fields[field]
		if !ok || isNull(raw) {
			continue
		}
		var deps map[string]string
		if err := json.Unmarshal(raw, &deps); err != nil {
			return nil, fmt.Errorf("field %q must map package names to version strings", field)
		}
		m.Deps[field] = deps
	}

	bundled, err := parseBundled(fields, m.Deps["dependencies"])
	if err != nil {
		return nil, err
	}
	m.Bundled = bundled

	return m, nil
}

// parseBundled accepts both spellings. The value is either a list of names or
// a boolean, where true bundles every entry of "dependencies".
func parseBundled(fields map[string]json.RawMessage, deps map[string]string) ([]string, error) {
	seen := make(map[string]bool)
	for _, field := range []string{"bundleDependencies", "bundledDependencies"} {
		raw, ok := fields[field]
		if !ok || isNull(raw) {
			continue
		}

		var all bool
		if err := json.Unmarshal(raw, &all); err == nil {
			if all {
				for name := range deps {
					seen[name] = true
				}
			}
			continue
		}

		var names []string
		if err := json.Unmarshal(raw, &names); err != nil {
			return nil, fmt.Errorf("field %q must be a list of names or a boolean", field)
		}
		for _, name := range names {
			seen[name] = true
		}
	}

	if len(seen) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
