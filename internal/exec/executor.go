package exec

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/felixgeelhaar/wiggum/internal/graph"
	"github.com/felixgeelhaar/wiggum/internal/log"
	"github.com/felixgeelhaar/wiggum/internal/plan"
	"github.com/felixgeelhaar/wiggum/internal/workspace"
)

// Executor runs a plan level by level. Within a level at most Parallel
// commands run at once; the next level starts only after every entry of the
// current one has settled.
type Executor struct {
	Runner   Runner
	Registry *workspace.Registry
	Parallel int

	Out io.Writer // Receives the [runner] headers and forwarded stdout
	Err io.Writer // Receives forwarded stderr and failure blocks

	Logger *log.Logger

	// ManifestDir enables run manifests when set
	ManifestDir string
	Fs          afero.Fs
}

// errNoResult is reported when a Runner returns neither a result nor an error
var errNoResult = stderrors.New("runner returned no result")

// RunResult contains results from executing a plan
type RunResult struct {
	RunID    string          `json:"runId"`
	Results  []*Result       `json:"results"`
	Failures []*Result       `json:"failures"`
	Skipped  []string        `json:"skipped"`
	Context  *FailureContext `json:"failureContext,omitempty"`
	Manifest string          `json:"manifest,omitempty"`
	Duration time.Duration   `json:"-"`
}

// Success reports whether every planned project ran and exited 0
func (r *RunResult) Success() bool {
	return len(r.Failures) == 0 && len(r.Skipped) == 0
}

type completion struct {
	entry   plan.Entry
	result  *Result
	err     error
	skipped string // reason, set when the entry never started
}

// Execute runs p. Per-project failures are recorded in the RunResult, not
// returned; the error is non-nil only for unusable input or when ctx was
// cancelled before the run completed.
func (e *Executor) Execute(ctx context.Context, p *plan.Plan, g *graph.Graph) (*RunResult, error) {
	if e.Runner == nil {
		return nil, fmt.Errorf("executor has no runner")
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	out, errOut := e.Out, e.Err
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	logger := e.Logger
	if logger == nil {
		logger = log.DefaultLogger()
	}
	parallel := e.Parallel
	if parallel <= 0 {
		parallel = 1
	}

	start := time.Now()
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	run := &runState{
		task:    p.Task,
		out:     out,
		errOut:  errOut,
		logger:  logger,
		status:  make(map[string]Status, len(p.Entries)),
		results: make(map[string]*Result, len(p.Entries)),
	}

	inPlan := make(map[string]bool, len(p.Entries))
	for _, entry := range p.Entries {
		inPlan[entry.Project] = true
	}

	for level, entries := range p.ByLevel() {
		logger.DebugContext(ctx, "starting level", "level", level, "entries", len(entries))

		// Decided before the aggregator starts writing this level's statuses
		blocked := make(map[string]string)
		for _, entry := range entries {
			if reason := run.blockedBy(entry.Project, g, inPlan); reason != "" {
				blocked[entry.Project] = reason
			}
		}

		completions := make(chan completion)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for c := range completions {
				run.settle(c)
			}
		}()

		sem := semaphore.NewWeighted(int64(parallel))
		var eg errgroup.Group

		for _, entry := range entries {
			if reason := blocked[entry.Project]; reason != "" {
				completions <- completion{entry: entry, skipped: reason}
				continue
			}
			if ctx.Err() != nil {
				completions <- completion{entry: entry, skipped: "run cancelled"}
				continue
			}
			// Acquire in plan order so entries start by name within the level
			if err := sem.Acquire(ctx, 1); err != nil {
				completions <- completion{entry: entry, skipped: "run cancelled"}
				continue
			}

			cmd := e.command(entry)
			eg.Go(func() error {
				defer sem.Release(1)
				res, err := e.Runner.Run(ctx, cmd)
				if err == nil && res == nil {
					err = errNoResult
				}
				completions <- completion{entry: entry, result: res, err: err}
				return nil
			})
		}

		_ = eg.Wait()
		close(completions)
		<-done
	}

	result := &RunResult{RunID: runID, Duration: time.Since(start)}
	for _, entry := range p.Entries {
		res := run.results[entry.Project]
		result.Results = append(result.Results, res)
		switch res.Status {
		case StatusFailed:
			result.Failures = append(result.Failures, res)
		case StatusSkipped:
			result.Skipped = append(result.Skipped, entry.Project)
		}
	}
	if !result.Success() {
		result.Context = BuildFailureContext(result, g)
	}

	if e.ManifestDir != "" {
		path, err := e.writeManifest(p, g, result)
		if err != nil {
			logger.WithError(err).Warn("failed to save run manifest", "dir", e.ManifestDir)
		} else {
			result.Manifest = path
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (e *Executor) command(entry plan.Entry) Command {
	cmd := Command{
		Project: entry.Project,
		Name:    entry.Command,
		Args:    entry.Args,
	}
	if e.Registry == nil {
		return cmd
	}
	if project, ok := e.Registry.Get(entry.Project); ok {
		cmd.Dir = project.Root
		cmd.BinDirs = append(cmd.BinDirs, filepath.Join(project.Root, "node_modules", ".bin"))
	}
	if root := e.Registry.Root(); root != "" && root != cmd.Dir {
		cmd.BinDirs = append(cmd.BinDirs, filepath.Join(root, "node_modules", ".bin"))
	}
	return cmd
}

// runState is owned by the coordinator between levels and by the level's
// aggregator goroutine while the level runs.
type runState struct {
	task    plan.Task
	out     io.Writer
	errOut  io.Writer
	logger  *log.Logger
	status  map[string]Status
	results map[string]*Result
}

// blockedBy returns a reason when a planned dependency of project did not
// succeed. Only earlier levels are consulted, so the answer is final.
func (s *runState) blockedBy(project string, g *graph.Graph, inPlan map[string]bool) string {
	for _, dep := range g.Dependencies(project) {
		if !inPlan[dep] {
			continue
		}
		switch s.status[dep] {
		case StatusFailed:
			return fmt.Sprintf("dependency %s failed", dep)
		case StatusSkipped:
			return fmt.Sprintf("dependency %s was skipped", dep)
		}
	}
	return ""
}

// settle records one completion and writes its output. It is only called from
// the aggregator goroutine.
func (s *runState) settle(c completion) {
	name := c.entry.Project
	logger := s.logger.WithProject(name)

	if c.skipped != "" {
		s.status[name] = StatusSkipped
		s.results[name] = &Result{Project: name, Status: StatusSkipped, ExitCode: -1}
		fmt.Fprintf(s.errOut, "[runner] %s -> %s skipped: %s\n", s.task.Name, name, c.skipped)
		logger.Debug("skipped project", "reason", c.skipped)
		return
	}

	fmt.Fprintf(s.out, "[runner] %s -> %s\n", s.task.Name, name)

	if c.err != nil {
		s.status[name] = StatusFailed
		s.results[name] = &Result{Project: name, Status: StatusFailed, ExitCode: -1, Error: c.err}
		fmt.Fprintf(s.errOut, "%s: Command %q could not be started: %v\n", name, s.task.Command, c.err)
		fmt.Fprintf(s.errOut, "command: %s\n", commandLine(c.entry))
		logger.WithError(c.err).Debug("command failed to start")
		return
	}

	res := c.result
	res.Project = name
	res.DurationMs = res.Duration.Milliseconds()
	writeBlock(s.out, res.Stdout)
	writeBlock(s.errOut, res.Stderr)

	if res.ExitCode != 0 {
		res.Status = StatusFailed
		fmt.Fprintf(s.errOut, "%s: Command %q failed with exit code %d.\n", name, s.task.Command, res.ExitCode)
		fmt.Fprintf(s.errOut, "command: %s\n", commandLine(c.entry))
	} else {
		res.Status = StatusSucceeded
	}
	s.status[name] = res.Status
	s.results[name] = res
	logger.Debug("project finished", "status", res.Status, "exit_code", res.ExitCode, "duration", res.Duration)
}

func writeBlock(w io.Writer, text string) {
	if text == "" {
		return
	}
	io.WriteString(w, text)
	if !strings.HasSuffix(text, "\n") {
		io.WriteString(w, "\n")
	}
}

func commandLine(entry plan.Entry) string {
	return strings.TrimSpace(entry.Command + " " + strings.Join(entry.Args, " "))
}
