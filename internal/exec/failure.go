package exec

import (
	"github.com/felixgeelhaar/wiggum/internal/graph"
)

// FailureContext describes what went wrong in a run: the failed results, the
// direct neighborhood of each failing project, and the projects that were
// skipped because of them.
type FailureContext struct {
	Failures      []*Result            `json:"failures"`
	AffectedGraph []graph.Neighborhood `json:"affectedGraph"`
	Skipped       []string             `json:"skipped"`
}

// BuildFailureContext assembles the FailureContext of a finished run
func BuildFailureContext(r *RunResult, g *graph.Graph) *FailureContext {
	failed := make([]string, 0, len(r.Failures))
	for _, res := range r.Failures {
		failed = append(failed, res.Project)
	}

	affected := g.Neighborhood(failed)
	if affected == nil {
		affected = []graph.Neighborhood{}
	}
	skipped := append([]string{}, r.Skipped...)

	return &FailureContext{
		Failures:      append([]*Result{}, r.Failures...),
		AffectedGraph: affected,
		Skipped:       skipped,
	}
}

// RetryTargets returns the failed projects followed by the skipped ones, the
// set worth re-running after a fix.
func (fc *FailureContext) RetryTargets() []string {
	if fc == nil {
		return nil
	}
	out := make([]string, 0, len(fc.Failures)+len(fc.Skipped))
	for _, res := range fc.Failures {
		out = append(out, res.Project)
	}
	return append(out, fc.Skipped...)
}
