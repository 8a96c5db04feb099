package ux

import (
	"path/filepath"
)

// StateDirName is the per-workspace directory for files wiggum writes.
const StateDirName = ".wiggum"

// PathDefaults provides default locations inside a workspace
type PathDefaults struct {
	Root string
}

// NewPathDefaults creates the defaults for the workspace at root
func NewPathDefaults(root string) *PathDefaults {
	return &PathDefaults{Root: root}
}

// StateDir returns the workspace state directory
func (pd *PathDefaults) StateDir() string {
	return filepath.Join(pd.Root, StateDirName)
}

// RunsDir returns the default run manifest directory
func (pd *PathDefaults) RunsDir() string {
	return filepath.Join(pd.StateDir(), "runs")
}

// PlanFile returns the default path for a saved plan
func (pd *PathDefaults) PlanFile() string {
	return filepath.Join(pd.StateDir(), "plan.json")
}

// Resolve makes a user-supplied path absolute. Relative paths are taken
// relative to the workspace root; an empty path stays empty.
func (pd *PathDefaults) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(pd.Root, path)
}
