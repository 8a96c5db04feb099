package edges

import (
	"context"
	"runtime"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/wiggum/internal/config"
	"github.com/felixgeelhaar/wiggum/internal/graph"
	"github.com/felixgeelhaar/wiggum/internal/log"
	"github.com/felixgeelhaar/wiggum/internal/workspace"
)

// Options configure edge extraction.
type Options struct {
	// InferImports enables source import scanning.
	InferImports bool

	// MaxFiles caps the number of source files scanned per project.
	// Zero means config.DefaultInferImportMaxFiles.
	MaxFiles int

	// Concurrency bounds how many projects are scanned at once.
	// Zero means runtime.NumCPU().
	Concurrency int

	Logger *log.Logger
}

// Extract returns every edge between discovered projects, sorted by
// (from, to, reason) with duplicate triples removed.
func Extract(ctx context.Context, fs afero.Fs, reg *workspace.Registry, opts Options) ([]graph.Edge, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = log.DefaultLogger()
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = config.DefaultInferImportMaxFiles
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}

	out := ManifestEdges(reg)
	if !opts.InferImports {
		return out, nil
	}

	scanner := &importScanner{
		fs:       fs,
		reg:      reg,
		maxFiles: opts.MaxFiles,
		logger:   opts.Logger,
	}

	projects := reg.Projects()
	results := make([][]graph.Edge, len(projects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, p := range projects {
		g.Go(func() error {
			found, err := scanner.scan(gctx, p)
			if err != nil {
				return err
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, found := range results {
		out = append(out, found...)
	}
	return graph.SortEdges(out), nil
}
