package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/wiggum/internal/config"
	"github.com/felixgeelhaar/wiggum/internal/edges"
	"github.com/felixgeelhaar/wiggum/internal/filter"
	"github.com/felixgeelhaar/wiggum/internal/graph"
	"github.com/felixgeelhaar/wiggum/internal/workspace"
)

// loadedWorkspace is the read-only state every command starts from: the
// discovered projects and their acyclic dependency graph.
type loadedWorkspace struct {
	Config   *config.Config
	Registry *workspace.Registry
	Graph    *graph.Graph
	Topo     *graph.TopoResult
}

// loadWorkspace runs config loading, discovery and edge extraction, then
// rejects cyclic graphs before any command can act on them.
func loadWorkspace(ctx context.Context, cc *CommandContext, inferImports bool) (*loadedWorkspace, error) {
	cfg, err := config.NewFileLoader(cc.Fs).Load(cc.Root, cc.ConfigPath)
	if err != nil {
		return nil, err
	}
	cc.Logger.Debug("loaded workspace config", "path", cfg.Source, "entries", len(cfg.Projects))

	reg, err := workspace.Discover(ctx, cc.Fs, cc.Root, cfg, workspace.Options{Logger: cc.Logger})
	if err != nil {
		return nil, err
	}
	cc.Logger.Debug("discovered projects", "count", reg.Len())

	extracted, err := edges.Extract(ctx, cc.Fs, reg, edges.Options{
		InferImports: inferImports,
		MaxFiles:     cc.Settings.InferImportMaxFiles,
		Logger:       cc.Logger,
	})
	if err != nil {
		return nil, err
	}

	g := graph.Build(reg.Names(), extracted)
	topo, err := graph.Sort(g)
	if err != nil {
		return nil, err
	}
	cc.Logger.Debug("built dependency graph", "projects", g.Len(), "edges", len(g.Edges()), "levels", len(topo.Levels))

	return &loadedWorkspace{Config: cfg, Registry: reg, Graph: g, Topo: topo}, nil
}

// selectProjects applies the --project patterns of cmd
func selectProjects(cmd *cobra.Command, cc *CommandContext, ws *loadedWorkspace, expand bool) (*filter.Selection, error) {
	values, err := cmd.Flags().GetStringArray("project")
	if err != nil {
		return nil, err
	}
	f := filter.Parse(values)
	if err := f.Validate(); err != nil {
		return nil, err
	}
	sel, err := filter.Apply(ws.Registry, ws.Graph, f, filter.Options{
		ExpandDependencies: expand,
		Logger:             cc.Logger,
	})
	if err != nil {
		return nil, err
	}
	cc.Logger.Debug("selected projects", "explicit", len(sel.Explicit), "pulled", len(sel.Pulled))
	return sel, nil
}

// addSelectionFlags registers the flags shared by commands that operate on a
// project selection
func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("project", "p", nil, "project name or glob; repeatable or comma-separated, prefix with ! to exclude")
	cmd.Flags().Bool("no-infer-imports", false, "do not derive dependencies from source imports")
}
