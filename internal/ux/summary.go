package ux

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/felixgeelhaar/wiggum/internal/exec"
	"github.com/felixgeelhaar/wiggum/internal/plan"
)

// RunSummary is the document printed after a run.
type RunSummary struct {
	RunID          string               `json:"runId" yaml:"runId"`
	Task           string               `json:"task" yaml:"task"`
	Success        bool                 `json:"success" yaml:"success"`
	DurationMs     int64                `json:"durationMs" yaml:"durationMs"`
	Results        []SummaryLine        `json:"results" yaml:"results"`
	FailureContext *exec.FailureContext `json:"failureContext,omitempty" yaml:"failureContext,omitempty"`
	Manifest       string               `json:"manifest,omitempty" yaml:"manifest,omitempty"`
}

// SummaryLine is the outcome of one project in a RunSummary.
type SummaryLine struct {
	Project    string      `json:"project" yaml:"project"`
	Status     exec.Status `json:"status" yaml:"status"`
	ExitCode   int         `json:"exitCode" yaml:"exitCode"`
	DurationMs int64       `json:"durationMs" yaml:"durationMs"`
}

// NewRunSummary condenses a run result. Captured output is left out; it was
// already forwarded while the run progressed.
func NewRunSummary(task plan.Task, res *exec.RunResult) RunSummary {
	s := RunSummary{
		RunID:          res.RunID,
		Task:           task.Name,
		Success:        res.Success(),
		DurationMs:     res.Duration.Milliseconds(),
		Results:        make([]SummaryLine, 0, len(res.Results)),
		FailureContext: res.Context,
		Manifest:       res.Manifest,
	}
	for _, r := range res.Results {
		s.Results = append(s.Results, SummaryLine{
			Project:    r.Project,
			Status:     r.Status,
			ExitCode:   r.ExitCode,
			DurationMs: r.DurationMs,
		})
	}
	return s
}

// RenderText prints a status line per project and a closing tally.
func (s RunSummary) RenderText(w io.Writer, st *Styles) error {
	var b strings.Builder

	width := 0
	for _, r := range s.Results {
		width = max(width, len(r.Project))
	}

	var succeeded, failed, skipped int
	for _, r := range s.Results {
		name := pad(r.Project, width)
		switch r.Status {
		case exec.StatusSucceeded:
			succeeded++
			fmt.Fprintf(&b, "  %s %s  %s\n", st.Success.Render("✓"), name, st.Muted.Render(formatMs(r.DurationMs)))
		case exec.StatusFailed:
			failed++
			fmt.Fprintf(&b, "  %s %s  %s  %s\n", st.Failure.Render("✗"), name,
				st.Failure.Render(fmt.Sprintf("exit code %d", r.ExitCode)), st.Muted.Render(formatMs(r.DurationMs)))
		case exec.StatusSkipped:
			skipped++
			fmt.Fprintf(&b, "  %s %s  %s\n", st.Skipped.Render("-"), name, st.Skipped.Render("skipped"))
		}
	}

	tally := fmt.Sprintf("%d succeeded, %d failed, %d skipped in %s", succeeded, failed, skipped, formatMs(s.DurationMs))
	if s.Success {
		b.WriteString(st.Success.Render(tally) + "\n")
	} else {
		b.WriteString(st.Failure.Render(tally) + "\n")
	}
	if s.Manifest != "" {
		fmt.Fprintf(&b, "%s %s\n", st.Muted.Render("run manifest"), s.Manifest)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func formatMs(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Second {
		return d.String()
	}
	return d.Round(10 * time.Millisecond).String()
}
