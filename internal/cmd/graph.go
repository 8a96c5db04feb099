package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/wiggum/internal/graph"
	"github.com/felixgeelhaar/wiggum/internal/ux"
)

func newGraphCmd() *cobra.Command {
	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the project dependency graph",
		Long: `Print the discovered projects, their topological order, the concurrency
levels and every dependency edge with the reason it exists.

With --project the graph is limited to the selected projects and their
transitive dependencies. Output is deterministic for an unchanged workspace.`,
		Example: `  wiggum graph
  wiggum graph --json -p @scope/app
  wiggum graph --format yaml --no-infer-imports`,
		Args: cobra.NoArgs,
		RunE: runGraph,
	}

	addSelectionFlags(graphCmd)
	graphCmd.Flags().Bool("json", false, "output as JSON")
	graphCmd.Flags().String("format", "text", "output format: text, json, yaml")
	return graphCmd
}

func runGraph(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	noInfer, _ := cmd.Flags().GetBool("no-infer-imports")

	ws, err := loadWorkspace(cmd.Context(), cc, !noInfer)
	if err != nil {
		return err
	}
	sel, err := selectProjects(cmd, cc, ws, true)
	if err != nil {
		return err
	}

	g, topo := ws.Graph, ws.Topo
	if sel.Len() != ws.Registry.Len() {
		g = ws.Graph.Subgraph(sel.Names())
		if topo, err = graph.Sort(g); err != nil {
			return err
		}
	}

	formatter, err := cc.Formatter(format)
	if err != nil {
		return err
	}
	return formatter.Format(ux.GraphReport{
		Projects: ux.NewProjectViews(ws.Registry, sel),
		Graph:    ux.NewGraphView(g, topo),
	})
}
