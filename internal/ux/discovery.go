package ux

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/felixgeelhaar/wiggum/internal/config"
)

// FindWorkspaceRoot walks up from start looking for a directory that holds a
// workspace config. It stops at the first directory containing one of
// config.DefaultConfigNames and reports false when the filesystem root is
// reached without a match.
func FindWorkspaceRoot(fs afero.Fs, start string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return start, false
	}

	for {
		for _, name := range config.DefaultConfigNames {
			if ok, _ := afero.Exists(fs, filepath.Join(dir, name)); ok {
				return dir, true
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return start, false
		}
		dir = parent
	}
}
