package exec

import (
	"context"
	"time"
)

// Status is the final state of a planned project
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Command is a single process invocation for one project
type Command struct {
	Project string
	Dir     string   // Working directory, the project root
	Name    string   // Tool to run
	Args    []string // Arguments after the tool name
	Env     []string // Extra KEY=VALUE pairs added to the process environment
	BinDirs []string // Searched for Name before PATH
}

// Runner starts a command and waits for it to finish. A non-zero exit is
// reported through Result.ExitCode; the error is reserved for commands that
// could not be started at all.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Result represents the outcome of one project's command
type Result struct {
	Project    string        `json:"project"`
	Status     Status        `json:"status"`
	ExitCode   int           `json:"exitCode"`
	Stdout     string        `json:"stdout"`
	Stderr     string        `json:"stderr"`
	DurationMs int64         `json:"durationMs"`
	Duration   time.Duration `json:"-"`
	Error      error         `json:"-"`
}

// RunManifest represents the audit log for a run
type RunManifest struct {
	RunID       string            `json:"run_id"`
	Timestamp   time.Time         `json:"timestamp"`
	Task        string            `json:"task"`
	Command     []string          `json:"command"`
	Fingerprint string            `json:"fingerprint"`
	Duration    string            `json:"duration"`
	InputHashes map[string]string `json:"input_hashes"`
	Results     []ManifestResult  `json:"results"`
}

// ManifestResult is the per-project line of a RunManifest
type ManifestResult struct {
	Project  string `json:"project"`
	Status   Status `json:"status"`
	ExitCode int    `json:"exit_code"`
	Duration string `json:"duration"`
}
