package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/wiggum/internal/config"
	"github.com/felixgeelhaar/wiggum/internal/errors"
	"github.com/felixgeelhaar/wiggum/internal/exec"
	"github.com/felixgeelhaar/wiggum/internal/filter"
	"github.com/felixgeelhaar/wiggum/internal/metrics"
	"github.com/felixgeelhaar/wiggum/internal/plan"
	"github.com/felixgeelhaar/wiggum/internal/ux"
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [flags] <tool> [tool args...]",
		Short: "Run a tool in every selected project, dependencies first",
		Long: `Run a tool in every selected project of the workspace.

Selected projects are expanded with their transitive dependencies, ordered
into levels and run level by level. Projects of one level run in parallel up
to --parallel. A project is skipped when one of its dependencies failed or
was skipped.

Flags for wiggum go before the tool name; everything after it is passed to
the tool unchanged:

  wiggum run -p '@scope/*,!@scope/legacy' --parallel 4 jest --ci`,
		Example: `  wiggum run tsc --noEmit
  wiggum run -p @scope/app --dry-run --json jest
  wiggum run --from-plan .wiggum/plan.json`,
		RunE: runRun,
	}

	runCmd.Flags().SetInterspersed(false)
	addSelectionFlags(runCmd)
	runCmd.Flags().Int("parallel", config.DefaultParallel, "maximum concurrent projects per level (env WIGGUM_RUNNER_PARALLEL)")
	runCmd.Flags().Bool("dry-run", false, "print the plan without running anything")
	runCmd.Flags().Bool("json", false, "print JSON (the plan with --dry-run, otherwise the run summary)")
	runCmd.Flags().Bool("non-interactive", false, "never prompt after a failure (env WIGGUM_RUNNER_NON_INTERACTIVE)")
	runCmd.Flags().String("manifest-dir", "", "write a JSON run manifest into this directory")
	runCmd.Flags().Bool("record", false, "write a run manifest into .wiggum/runs")
	runCmd.Flags().String("metrics-file", "", "write run metrics in the Prometheus text format to this file")
	runCmd.Flags().String("plan-out", "", "save the computed plan as JSON")
	runCmd.Flags().String("from-plan", "", "run a plan saved with --plan-out instead of computing one")
	return runCmd
}

type runOptions struct {
	parallel       int
	dryRun         bool
	asJSON         bool
	nonInteractive bool
	inferImports   bool
	manifestDir    string
	metricsFile    string
	planOut        string
	fromPlan       string
}

func parseRunOptions(cmd *cobra.Command, cc *CommandContext) (runOptions, error) {
	flags := cmd.Flags()
	var opts runOptions

	opts.parallel = cc.Settings.Parallel
	if flags.Changed("parallel") {
		n, _ := flags.GetInt("parallel")
		if n <= 0 {
			return opts, errors.New(errors.ErrCodeConfigSetting, fmt.Sprintf("invalid --parallel %d", n)).
				WithSuggestion("Pass a positive integer")
		}
		opts.parallel = n
	}

	opts.dryRun, _ = flags.GetBool("dry-run")
	opts.asJSON, _ = flags.GetBool("json")
	nonInteractive, _ := flags.GetBool("non-interactive")
	opts.nonInteractive = nonInteractive || cc.Settings.NonInteractive
	noInfer, _ := flags.GetBool("no-infer-imports")
	opts.inferImports = !noInfer

	paths := cc.Paths()
	manifestDir, _ := flags.GetString("manifest-dir")
	opts.manifestDir = paths.Resolve(manifestDir)
	if record, _ := flags.GetBool("record"); record && opts.manifestDir == "" {
		opts.manifestDir = paths.RunsDir()
	}
	metricsFile, _ := flags.GetString("metrics-file")
	opts.metricsFile = paths.Resolve(metricsFile)
	planOut, _ := flags.GetString("plan-out")
	opts.planOut = paths.Resolve(planOut)
	fromPlan, _ := flags.GetString("from-plan")
	opts.fromPlan = paths.Resolve(fromPlan)

	return opts, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	opts, err := parseRunOptions(cmd, cc)
	if err != nil {
		return err
	}
	if opts.fromPlan == "" && len(args) == 0 {
		return fmt.Errorf("requires a tool to run, e.g. 'wiggum run jest'")
	}
	if opts.fromPlan != "" && len(args) > 0 {
		return fmt.Errorf("--from-plan runs the saved command; do not pass a tool")
	}
	if opts.fromPlan != "" && cmd.Flags().Changed("project") {
		return fmt.Errorf("--from-plan runs the saved projects; do not pass --project")
	}

	ws, err := loadWorkspace(ctx, cc, opts.inferImports)
	if err != nil {
		return err
	}

	var (
		p   *plan.Plan
		sel *filter.Selection
	)
	if opts.fromPlan != "" {
		if p, err = loadSavedPlan(cc, ws, opts.fromPlan); err != nil {
			return err
		}
		sel = planSelection(ws, p)
	} else {
		if sel, err = selectProjects(cmd, cc, ws, true); err != nil {
			return err
		}
		task := plan.Task{Name: args[0], Command: args[0], Args: args[1:]}
		if p, err = plan.Build(ws.Graph, sel.Names(), task, ws.Registry.ExtraArgs()); err != nil {
			return err
		}
	}

	if opts.planOut != "" {
		if err := plan.SavePlan(cc.Fs, p, opts.planOut); err != nil {
			return err
		}
		cc.Logger.Info("saved plan", "path", opts.planOut)
	}

	if opts.dryRun {
		format := "text"
		if opts.asJSON {
			format = "json"
		}
		formatter, err := cc.Formatter(format)
		if err != nil {
			return err
		}
		return formatter.Format(ux.NewDryRun(ws.Registry, sel, ws.Graph, p))
	}

	executor := &exec.Executor{
		Runner:      exec.NewLocalRunner(),
		Registry:    ws.Registry,
		Parallel:    opts.parallel,
		Out:         cc.Out,
		Err:         cc.Err,
		Logger:      cc.Logger,
		ManifestDir: opts.manifestDir,
		Fs:          cc.Fs,
	}

	res, err := executor.Execute(ctx, p, ws.Graph)
	if err != nil {
		return err
	}
	if err := printSummary(cc, opts, p.Task, res); err != nil {
		return err
	}
	runs := []*exec.RunResult{res}
	if !res.Success() {
		retried, err := remediate(ctx, cc, opts, executor, ws, p, res)
		if err != nil {
			return err
		}
		if retried != nil {
			res = retried
			runs = append(runs, res)
			if err := printSummary(cc, opts, p.Task, res); err != nil {
				return err
			}
		}
	}
	if opts.metricsFile != "" {
		if err := writeMetrics(cc, opts.metricsFile, p, runs); err != nil {
			cc.Logger.WithError(err).Warn("could not write metrics file")
		}
	}
	if !res.Success() {
		return errors.NewRunFailedError(len(res.Failures), len(res.Skipped))
	}
	return nil
}

// remediate reports a failed run and, when the user agrees, runs the failed
// and skipped projects once more. It returns the result of the second run,
// or nil when there was none.
func remediate(ctx context.Context, cc *CommandContext, opts runOptions, executor *exec.Executor,
	ws *loadedWorkspace, p *plan.Plan, res *exec.RunResult) (*exec.RunResult, error) {
	r := &ux.Remediation{
		Out:         cc.Err,
		Styles:      cc.Styles(cc.Err),
		Interactive: !opts.asJSON && ux.ShouldPrompt(opts.nonInteractive, os.Getenv),
	}
	if err := r.Report(p.Task, res.Context); err != nil {
		return nil, err
	}

	targets := res.Context.RetryTargets()
	retry, err := r.OfferRetry(ctx, targets)
	if err != nil {
		cc.Logger.WithError(err).Warn("re-run prompt failed")
		return nil, nil
	}
	if !retry {
		return nil, nil
	}

	retryPlan, err := plan.Build(ws.Graph, targets, p.Task, ws.Registry.ExtraArgs())
	if err != nil {
		return nil, err
	}
	cc.Logger.Info("re-running affected projects", "count", len(targets))
	return executor.Execute(ctx, retryPlan, ws.Graph)
}

// loadSavedPlan reads a plan written by --plan-out and checks it against the
// current workspace: every project must still exist and every planned
// dependency must sit at a lower level than its dependent.
func loadSavedPlan(cc *CommandContext, ws *loadedWorkspace, path string) (*plan.Plan, error) {
	p, err := plan.LoadPlan(cc.Fs, path)
	if err != nil {
		return nil, err
	}
	for _, e := range p.Entries {
		if !ws.Graph.Has(e.Project) {
			return nil, stalePlanError(path, fmt.Sprintf("references unknown project %q", e.Project))
		}
	}
	for _, e := range p.Entries {
		for _, dep := range ws.Graph.Dependencies(e.Project) {
			d, ok := p.Entry(dep)
			if !ok || d.Level < e.Level {
				continue
			}
			return nil, stalePlanError(path,
				fmt.Sprintf("runs %s at level %d but its dependency %s at level %d", e.Project, e.Level, dep, d.Level))
		}
	}
	return p, nil
}

func stalePlanError(path, detail string) error {
	return errors.New(errors.ErrCodePlanInvalid, fmt.Sprintf("saved plan %s %s", path, detail)).
		WithSuggestion("Re-create the plan with 'wiggum run --dry-run --plan-out'")
}

// planSelection lists the projects of a saved plan in discovery order
func planSelection(ws *loadedWorkspace, p *plan.Plan) *filter.Selection {
	sel := &filter.Selection{}
	for _, name := range ws.Registry.Names() {
		if _, ok := p.Entry(name); ok {
			sel.Explicit = append(sel.Explicit, name)
		}
	}
	return sel
}

func printSummary(cc *CommandContext, opts runOptions, task plan.Task, res *exec.RunResult) error {
	summary := ux.NewRunSummary(task, res)
	if opts.asJSON {
		formatter, err := cc.Formatter("json")
		if err != nil {
			return err
		}
		return formatter.Format(summary)
	}
	return summary.RenderText(cc.Err, cc.Styles(cc.Err))
}

// writeMetrics exports the plan and every run made for it, a retry included
func writeMetrics(cc *CommandContext, path string, p *plan.Plan, runs []*exec.RunResult) error {
	reg, m := metrics.NewRegistry()
	task := p.Task.Name
	m.ObservePlan(task, len(p.Entries), len(p.Levels))
	for _, res := range runs {
		for _, r := range res.Results {
			m.ObserveProject(task, r.Project, string(r.Status), r.ExitCode, r.Duration)
		}
		m.ObserveRun(task, res.Success(), res.Duration)
		if !res.Success() {
			m.RecordError(string(errors.ErrCodeExecFailed))
		}
	}
	if err := metrics.WriteTextfile(cc.Fs, reg, path); err != nil {
		return err
	}
	cc.Logger.Debug("wrote metrics", "path", path)
	return nil
}
