package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of a wiggum invocation
type Metrics struct {
	// Run metrics
	Runs        *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec

	// Plan metrics
	PlanProjects *prometheus.GaugeVec
	PlanLevels   *prometheus.GaugeVec

	// Project metrics
	ProjectRuns     *prometheus.CounterVec
	ProjectDuration *prometheus.HistogramVec
	ProjectExitCode *prometheus.GaugeVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wiggum_runs_total",
				Help: "Total number of task runs",
			},
			[]string{"task", "success"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wiggum_run_duration_seconds",
				Help:    "Wall time of a task run in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"task"},
		),

		PlanProjects: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wiggum_plan_projects",
				Help: "Number of projects in the executed plan",
			},
			[]string{"task"},
		),
		PlanLevels: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wiggum_plan_levels",
				Help: "Number of levels in the executed plan",
			},
			[]string{"task"},
		),

		ProjectRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wiggum_project_runs_total",
				Help: "Total number of project invocations by final status",
			},
			[]string{"task", "status"},
		),
		ProjectDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wiggum_project_duration_seconds",
				Help:    "Duration of one project's command in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"task", "project"},
		),
		ProjectExitCode: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wiggum_project_exit_code",
				Help: "Exit code of the last command run in a project",
			},
			[]string{"task", "project"},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wiggum_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code"},
		),
	}
}

// ObservePlan records the shape of the plan about to run
func (m *Metrics) ObservePlan(task string, projects, levels int) {
	m.PlanProjects.WithLabelValues(task).Set(float64(projects))
	m.PlanLevels.WithLabelValues(task).Set(float64(levels))
}

// ObserveProject records the outcome of one project. Skipped projects never
// ran, so they count toward ProjectRuns only.
func (m *Metrics) ObserveProject(task, project, status string, exitCode int, d time.Duration) {
	m.ProjectRuns.WithLabelValues(task, status).Inc()
	if status == "skipped" {
		return
	}
	m.ProjectDuration.WithLabelValues(task, project).Observe(d.Seconds())
	m.ProjectExitCode.WithLabelValues(task, project).Set(float64(exitCode))
}

// ObserveRun records a finished run
func (m *Metrics) ObserveRun(task string, success bool, d time.Duration) {
	m.Runs.WithLabelValues(task, boolLabel(success)).Inc()
	m.RunDuration.WithLabelValues(task).Observe(d.Seconds())
}

// RecordError counts an error by its structured code
func (m *Metrics) RecordError(code string) {
	if code == "" {
		code = "unknown"
	}
	m.Errors.WithLabelValues(code).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
