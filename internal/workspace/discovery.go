// Package workspace discovers the projects of a workspace from its config
// entries and keeps them in a name-indexed registry.
package workspace

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/felixgeelhaar/wiggum/internal/config"
	"github.com/felixgeelhaar/wiggum/internal/errors"
	"github.com/felixgeelhaar/wiggum/internal/log"
)

// ErrDuplicateProject is wrapped by the error returned when two directories
// declare the same package name.
var ErrDuplicateProject = stderrors.New("duplicate project name")

// Options tune discovery.
type Options struct {
	Logger *log.Logger
}

// Discover expands every config entry into project directories, loads their
// manifests and returns the registry in discovery order.
func Discover(ctx context.Context, fs afero.Fs, root string, cfg *config.Config, opts Options) (*Registry, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.DefaultLogger()
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigMissingRoot, fmt.Sprintf("resolve root %s", root), err)
	}
	if !isDir(fs, absRoot) {
		return nil, errors.NewMissingRootError(absRoot)
	}

	d := &discoverer{fs: fs, logger: logger, registry: newRegistry(absRoot)}

	for _, entry := range cfg.Projects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dirs, args, err := d.expand(absRoot, entry)
		if err != nil {
			return nil, err
		}
		logger.Debug("expanded config entry", "entry", entry.String(), "matches", len(dirs))

		for _, dir := range dirs {
			if err := d.load(dir, entry, args); err != nil {
				return nil, err
			}
		}
	}

	logger.Debug("discovery complete", "projects", d.registry.Len())
	return d.registry, nil
}

type discoverer struct {
	fs       afero.Fs
	logger   *log.Logger
	registry *Registry
}

// expand resolves one entry to candidate directories.
func (d *discoverer) expand(root string, entry config.Entry) ([]string, []string, error) {
	if !entry.IsObject() {
		dirs, err := d.resolve(root, entry.Pattern)
		return dirs, nil, err
	}

	objRoot := resolvePath(root, entry.Root)
	if !isDir(d.fs, objRoot) {
		return nil, nil, errors.NewMissingRootError(objRoot)
	}
	if len(entry.Projects) == 0 {
		return []string{objRoot}, entry.Args, nil
	}

	var dirs []string
	for _, pattern := range entry.Projects {
		matched, err := d.resolve(objRoot, pattern)
		if err != nil {
			return nil, nil, err
		}
		dirs = append(dirs, matched...)
	}
	return dirs, entry.Args, nil
}

// resolve turns a pattern into paths. Glob patterns are matched against the
// filesystem; anything else is taken literally.
func (d *discoverer) resolve(base, pattern string) ([]string, error) {
	p := resolvePath(base, pattern)
	if !hasMeta(pattern) {
		return []string{p}, nil
	}

	matches, err := afero.Glob(d.fs, p)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigEntry, fmt.Sprintf("invalid project pattern %q", pattern), err)
	}
	if len(matches) == 0 {
		d.logger.Debug("project pattern matched nothing", "pattern", pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

// load registers the project in dir, if there is one.
func (d *discoverer) load(dir string, entry config.Entry, args []string) error {
	if !isDir(d.fs, dir) {
		return nil
	}
	manifestPath := filepath.Join(dir, ManifestFile)
	if ok, _ := afero.Exists(d.fs, manifestPath); !ok {
		return nil
	}

	if existing, ok := d.registry.ByRoot(dir); ok {
		d.logger.Warn("directory matched by more than one config entry; keeping first",
			"project", existing.Name, "dir", dir, "entry", entry.String())
		return nil
	}

	data, err := afero.ReadFile(d.fs, manifestPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDiscoveryRead, fmt.Sprintf("read %s", manifestPath), err)
	}
	manifest, err := ParseManifest(data)
	if err != nil {
		return errors.NewInvalidManifestError(manifestPath, err)
	}

	if existing, ok := d.registry.Get(manifest.Name); ok {
		return errors.NewDuplicateProjectError(manifest.Name, existing.Root, dir, ErrDuplicateProject)
	}

	project := &Project{
		Name:         manifest.Name,
		Root:         dir,
		ManifestPath: manifestPath,
		Manifest:     manifest,
	}
	if len(args) > 0 {
		project.ExtraArgs = append([]string(nil), args...)
	}
	d.registry.add(project)
	d.logger.Debug("discovered project", "project", project.Name, "root", dir)
	return nil
}

func resolvePath(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, `*?[`)
}

func isDir(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// RelPath returns path relative to the registry root, using forward slashes.
// Paths outside the root are returned unchanged.
func (r *Registry) RelPath(path string) string {
	rel, err := filepath.Rel(r.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return path
	}
	return filepath.ToSlash(rel)
}
