package exec

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/wiggum/internal/errors"
	"github.com/felixgeelhaar/wiggum/internal/graph"
	"github.com/felixgeelhaar/wiggum/internal/plan"
)

// CreateManifest creates a run manifest for audit purposes
func CreateManifest(runID string, p *plan.Plan, fingerprint string, result *RunResult) *RunManifest {
	m := &RunManifest{
		RunID:       runID,
		Timestamp:   time.Now().UTC(),
		Task:        p.Task.Name,
		Command:     append([]string{p.Task.Command}, p.Task.Args...),
		Fingerprint: fingerprint,
		Duration:    result.Duration.String(),
		InputHashes: make(map[string]string),
		Results:     make([]ManifestResult, 0, len(result.Results)),
	}
	for _, res := range result.Results {
		m.Results = append(m.Results, ManifestResult{
			Project:  res.Project,
			Status:   res.Status,
			ExitCode: res.ExitCode,
			Duration: res.Duration.String(),
		})
	}
	return m
}

// SaveManifest writes a run manifest to dir and returns its path
func SaveManifest(fs afero.Fs, manifest *RunManifest, dir string) (string, error) {
	// Ensure directory exists
	if err := fs.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("create manifest directory: %w", err)
	}

	// Generate filename with timestamp
	filename := fmt.Sprintf("%s_%s.json",
		manifest.Timestamp.Format("20060102_150405"),
		manifest.RunID)
	path := filepath.Join(dir, filename)

	// Marshal to JSON
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}

	// Write to file
	if err := afero.WriteFile(fs, path, data, 0600); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}

	return path, nil
}

// HashFile computes the blake3 hash of a file
func HashFile(fs afero.Fs, path string) (string, error) {
	file, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

// AddInputHash adds an input file hash to the manifest
func (m *RunManifest) AddInputHash(fs afero.Fs, name, path string) error {
	hash, err := HashFile(fs, path)
	if err != nil {
		return err
	}
	m.InputHashes[name] = hash
	return nil
}

// writeManifest records the run, hashing the manifest file of every planned
// project.
func (e *Executor) writeManifest(p *plan.Plan, g *graph.Graph, result *RunResult) (string, error) {
	fs := e.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	fingerprint, err := g.Subgraph(p.Projects()).Fingerprint()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeExecManifest, "fingerprint graph", err)
	}
	m := CreateManifest(result.RunID, p, fingerprint, result)

	if e.Registry != nil {
		names := p.Projects()
		sort.Strings(names)
		for _, name := range names {
			project, ok := e.Registry.Get(name)
			if !ok || project.ManifestPath == "" {
				continue
			}
			if err := m.AddInputHash(fs, name, project.ManifestPath); err != nil {
				return "", errors.Wrap(errors.ErrCodeExecManifest, fmt.Sprintf("hash %s", project.ManifestPath), err)
			}
		}
	}

	path, err := SaveManifest(fs, m, e.ManifestDir)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeExecManifest, "save run manifest", err)
	}
	return path, nil
}
