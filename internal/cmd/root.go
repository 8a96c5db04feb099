package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the wiggum command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wiggum",
		Short: "Run tools across a JavaScript workspace in dependency order",
		Long: `wiggum discovers the projects of a workspace, derives their dependency
graph from package manifests and source imports, and runs a tool in every
selected project with dependencies first.

Projects that share a level have no dependencies on each other and may run
in parallel. When a project fails, every project that depends on it is
skipped.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("root", "", "workspace root (default: nearest directory with a wiggum config, else the current directory)")
	flags.StringP("config", "c", "", "workspace config file (default: wiggum.config.{json,yaml,yml,toml} in the root)")
	flags.String("log-level", "", "log level: debug, info, warn, error (env WIGGUM_RUNNER_LOG_LEVEL)")
	flags.String("log-format", "", "log format: text or json (env WIGGUM_RUNNER_LOG_FORMAT)")
	flags.Bool("no-color", false, "disable colored output")

	rootCmd.AddCommand(
		newRunCmd(),
		newGraphCmd(),
		newProjectsCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which is cancelled on
// interrupt
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
