package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/wiggum/internal/ux"
)

func newProjectsCmd() *cobra.Command {
	projectsCmd := &cobra.Command{
		Use:   "projects",
		Short: "List the projects a --project selection resolves to",
		Long: `List the workspace projects matched by the --project patterns, in
discovery order. Without patterns every project is listed.

Dependencies are not added unless --with-dependencies is given; they are
then listed after the explicit matches.`,
		Example: `  wiggum projects
  wiggum projects -p '@scope/*,!@scope/legacy'
  wiggum projects -p @scope/app --with-dependencies --json`,
		Args: cobra.NoArgs,
		RunE: runProjects,
	}

	addSelectionFlags(projectsCmd)
	projectsCmd.Flags().Bool("with-dependencies", false, "add the transitive dependencies of the selection")
	projectsCmd.Flags().Bool("json", false, "output as JSON")
	projectsCmd.Flags().String("format", "text", "output format: text, json, yaml")
	return projectsCmd
}

func runProjects(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	withDeps, _ := cmd.Flags().GetBool("with-dependencies")
	noInfer, _ := cmd.Flags().GetBool("no-infer-imports")

	ws, err := loadWorkspace(cmd.Context(), cc, !noInfer)
	if err != nil {
		return err
	}
	sel, err := selectProjects(cmd, cc, ws, withDeps)
	if err != nil {
		return err
	}

	formatter, err := cc.Formatter(format)
	if err != nil {
		return err
	}
	return formatter.Format(ux.ProjectList{Projects: ux.NewProjectViews(ws.Registry, sel)})
}
