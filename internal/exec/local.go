package exec

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/wiggum/internal/errors"
)

// DefaultWaitDelay bounds how long a cancelled command may take to exit after
// it was sent an interrupt.
const DefaultWaitDelay = 10 * time.Second

// LocalRunner runs commands as child processes of the current process
type LocalRunner struct {
	// Env is appended to the inherited environment of every command
	Env []string

	// WaitDelay overrides DefaultWaitDelay
	WaitDelay time.Duration
}

// NewLocalRunner creates a runner that inherits the process environment
func NewLocalRunner() *LocalRunner {
	return &LocalRunner{WaitDelay: DefaultWaitDelay}
}

// Run executes cmd in cmd.Dir and captures its output
func (r *LocalRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	startTime := time.Now()

	path, err := lookTool(cmd.Name, cmd.BinDirs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExecStart, fmt.Sprintf("resolve command %q", cmd.Name), err).
			WithSuggestion("Install the tool in the workspace or make sure it is on PATH")
	}

	c := exec.CommandContext(ctx, path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = buildEnv(os.Environ(), r.Env, cmd)
	c.Cancel = func() error { return c.Process.Signal(os.Interrupt) }
	c.WaitDelay = r.WaitDelay
	if c.WaitDelay == 0 {
		c.WaitDelay = DefaultWaitDelay
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	// Run the command
	err = c.Run()

	// Get exit code
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			// Command failed to start
			return nil, errors.Wrap(errors.ErrCodeExecStart, fmt.Sprintf("start %s", cmd.Name), err)
		}
	}

	return &Result{
		Project:  cmd.Project,
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(startTime),
		Error:    err,
	}, nil
}

// lookTool resolves name against binDirs first and PATH second. Names that
// contain a path separator are used as given.
func lookTool(name string, binDirs []string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty command")
	}
	if strings.ContainsRune(name, os.PathSeparator) || strings.Contains(name, "/") {
		return name, nil
	}
	for _, dir := range binDirs {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return candidate, nil
		}
	}
	return exec.LookPath(name)
}

// buildEnv prepends the bin directories to PATH so nested scripts resolve
// the same tools.
func buildEnv(base, extra []string, cmd Command) []string {
	env := make([]string, 0, len(base)+len(extra)+len(cmd.Env)+1)
	pathValue := ""
	for _, kv := range base {
		if strings.HasPrefix(kv, "PATH=") {
			pathValue = strings.TrimPrefix(kv, "PATH=")
			continue
		}
		if strings.HasPrefix(kv, "PWD=") && cmd.Dir != "" {
			continue
		}
		env = append(env, kv)
	}

	if len(cmd.BinDirs) > 0 {
		dirs := strings.Join(cmd.BinDirs, string(os.PathListSeparator))
		if pathValue == "" {
			pathValue = dirs
		} else {
			pathValue = dirs + string(os.PathListSeparator) + pathValue
		}
	}
	if pathValue != "" {
		env = append(env, "PATH="+pathValue)
	}
	if cmd.Dir != "" {
		env = append(env, "PWD="+cmd.Dir)
	}

	env = append(env, extra...)
	return append(env, cmd.Env...)
}
