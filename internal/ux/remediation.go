package ux

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/felixgeelhaar/wiggum/internal/exec"
	"github.com/felixgeelhaar/wiggum/internal/plan"
)

// Remediation explains a failed run and optionally offers to re-run the
// affected projects.
type Remediation struct {
	Out    io.Writer
	Styles *Styles

	// Interactive enables the re-run prompt
	Interactive bool

	// Confirm defaults to PromptForConfirmation
	Confirm ConfirmFunc
}

// Report prints the failed and skipped projects and the command that re-runs
// them.
func (r *Remediation) Report(task plan.Task, fc *exec.FailureContext) error {
	if fc == nil {
		return nil
	}
	out := r.Out
	if out == nil {
		out = os.Stderr
	}
	s := r.Styles
	if s == nil {
		s = PlainStyles()
	}

	dependents := make(map[string][]string, len(fc.AffectedGraph))
	for _, n := range fc.AffectedGraph {
		dependents[n.Project] = n.Dependents
	}

	var b strings.Builder
	total := len(fc.Failures) + len(fc.Skipped)
	b.WriteString("\n" + s.Title.Render(fmt.Sprintf("%d %s did not complete for %s", total, plural(total, "project", "projects"), task.Name)) + "\n")

	if len(fc.Failures) > 0 {
		b.WriteString(s.Header.Render("Failed") + "\n")
		for _, res := range fc.Failures {
			line := fmt.Sprintf("  %s %s  %s", s.Failure.Render("✗"), res.Project, s.Failure.Render(fmt.Sprintf("exit code %d", res.ExitCode)))
			if deps := dependents[res.Project]; len(deps) > 0 {
				line += "  " + s.Muted.Render("needed by "+strings.Join(deps, ", "))
			}
			b.WriteString(line + "\n")
		}
	}
	if len(fc.Skipped) > 0 {
		b.WriteString(s.Header.Render("Skipped") + "\n")
		for _, name := range fc.Skipped {
			fmt.Fprintf(&b, "  %s %s\n", s.Skipped.Render("-"), name)
		}
	}

	if targets := fc.RetryTargets(); len(targets) > 0 {
		b.WriteString(s.Header.Render("Re-run after fixing") + "\n")
		b.WriteString("  " + s.Command.Render(RetryHint(task, targets)) + "\n")
	}

	_, err := io.WriteString(out, b.String())
	return err
}

// OfferRetry asks whether to re-run targets. It answers false without asking
// when the remediation is not interactive.
func (r *Remediation) OfferRetry(ctx context.Context, targets []string) (bool, error) {
	if !r.Interactive || len(targets) == 0 {
		return false, nil
	}
	confirm := r.Confirm
	if confirm == nil {
		confirm = PromptForConfirmation
	}
	return confirm(ctx,
		fmt.Sprintf("Re-run %d %s now?", len(targets), plural(len(targets), "project", "projects")),
		strings.Join(targets, ", "))
}

// RetryHint returns the command line that runs task again for targets.
func RetryHint(task plan.Task, targets []string) string {
	return fmt.Sprintf("wiggum run -p %s %s",
		shellQuote(strings.Join(targets, ",")), CommandLine(task.Command, task.Args))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
