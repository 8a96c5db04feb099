package plan

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// LoadPlan reads a Plan from a JSON file
func LoadPlan(fs afero.Fs, path string) (*Plan, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}

	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal plan: %w", err)
	}

	// Entry levels are not serialized; recover them from Levels
	levelOf := make(map[string]int)
	for level, names := range p.Levels {
		for _, name := range names {
			levelOf[name] = level
		}
	}
	for i := range p.Entries {
		level, ok := levelOf[p.Entries[i].Project]
		if !ok {
			return nil, fmt.Errorf("validate plan: project %q is missing from levels", p.Entries[i].Project)
		}
		p.Entries[i].Level = level
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validate plan: %w", err)
	}

	return &p, nil
}

// SavePlan writes a Plan to a JSON file
func SavePlan(fs afero.Fs, p *Plan, path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create plan directory: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0600); err != nil {
		return fmt.Errorf("write plan file: %w", err)
	}

	return nil
}
