package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/wiggum/internal/ux"
	"github.com/felixgeelhaar/wiggum/internal/version"
)

func newVersionCmd() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
		Args: cobra.NoArgs,
		RunE: runVersion,
	}

	versionCmd.Flags().BoolP("verbose", "v", false, "show detailed version information")
	versionCmd.Flags().Bool("json", false, "output version information as JSON")
	return versionCmd
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := version.GetInfo()
	out := cmd.OutOrStdout()

	// JSON output
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		formatter, err := ux.NewFormatter("json", &ux.FormatterOptions{Writer: out})
		if err != nil {
			return err
		}
		return formatter.Format(info)
	}

	// Verbose output
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		_, err := fmt.Fprintln(out, info.String())
		return err
	}

	// Default output (short version only)
	_, err := fmt.Fprintf(out, "wiggum %s\n", info.Short())
	return err
}
