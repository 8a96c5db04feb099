// Package config loads the workspace configuration and process settings.
//
// The workspace config lists which directories hold projects. It may be
// written as JSON, YAML or TOML; callers only ever see the normalized
// Config value returned by a Loader.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/felixgeelhaar/wiggum/internal/errors"
)

// DefaultConfigNames are searched, in order, in the workspace root when no
// explicit config path is given.
var DefaultConfigNames = []string{
	"wiggum.config.json",
	"wiggum.config.yaml",
	"wiggum.config.yml",
	"wiggum.config.toml",
}

var supportedTypes = map[string]bool{
	"json": true,
	"yaml": true,
	"yml":  true,
	"toml": true,
}

// Entry is one item of the "projects" list. String items set Pattern;
// object items set Root and optionally Args and Projects.
type Entry struct {
	Pattern  string
	Root     string
	Args     []string
	Projects []string
}

// IsObject reports whether the entry came from an object item.
func (e Entry) IsObject() bool {
	return e.Pattern == "" && e.Root != ""
}

// String renders the entry for diagnostics.
func (e Entry) String() string {
	if !e.IsObject() {
		return e.Pattern
	}
	if len(e.Projects) == 0 {
		return fmt.Sprintf("{root: %s}", e.Root)
	}
	return fmt.Sprintf("{root: %s, projects: [%s]}", e.Root, strings.Join(e.Projects, ", "))
}

// Config is the normalized workspace configuration.
type Config struct {
	// Projects lists the discovery entries in declaration order.
	Projects []Entry

	// Source is the file the config was read from.
	Source string
}

// Loader produces a normalized Config. Implementations hide the on-disk format.
type Loader interface {
	Load(root, path string) (*Config, error)
}

// FileLoader reads workspace configs through viper on top of an afero filesystem.
type FileLoader struct {
	Fs afero.Fs
}

// NewFileLoader creates a loader over fs. A nil fs means the OS filesystem.
func NewFileLoader(fs afero.Fs) *FileLoader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileLoader{Fs: fs}
}

// Find returns the first default config file present in root.
func (l *FileLoader) Find(root string) (string, error) {
	for _, name := range DefaultConfigNames {
		candidate := filepath.Join(root, name)
		ok, err := afero.Exists(l.Fs, candidate)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeConfigNotFound, "stat config candidate", err)
		}
		if ok {
			return candidate, nil
		}
	}
	return "", errors.NewConfigNotFoundError(root, DefaultConfigNames)
}

// Load reads the config at path, or searches root when path is empty.
// Relative paths are resolved against root.
func (l *FileLoader) Load(root, path string) (*Config, error) {
	if path == "" {
		found, err := l.Find(root)
		if err != nil {
			return nil, err
		}
		path = found
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !supportedTypes[ext] {
		return nil, errors.NewConfigUnsupportedError(path)
	}

	exists, err := afero.Exists(l.Fs, path)
	if err != nil || !exists {
		return nil, errors.New(errors.ErrCodeConfigNotFound, fmt.Sprintf("config file not found: %s", path)).
			WithSuggestion("Check the --config path")
	}

	v := viper.New()
	v.SetFs(l.Fs)
	v.SetConfigFile(path)
	v.SetConfigType(ext)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, fmt.Sprintf("failed to parse config file: %s", path), err).
			WithSuggestion("Check the file syntax and format")
	}

	entries, err := normalizeEntries(v.Get("projects"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigEntry, fmt.Sprintf("invalid \"projects\" in %s", path), err)
	}

	return &Config{Projects: entries, Source: path}, nil
}

func normalizeEntries(raw any) ([]Entry, error) {
	if raw == nil {
		return nil, fmt.Errorf("\"projects\" is required")
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("\"projects\" must be a list, got %T", raw)
	}

	entries := make([]Entry, 0, len(items))
	for i, item := range items {
		entry, err := normalizeEntry(item)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func normalizeEntry(item any) (Entry, error) {
	switch v := item.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return Entry{}, fmt.Errorf("empty path")
		}
		return Entry{Pattern: v}, nil
	case map[string]any:
		return normalizeObject(v)
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[fmt.Sprint(k)] = val
		}
		return normalizeObject(m)
	default:
		return Entry{}, fmt.Errorf("expected a path string or an object, got %T", item)
	}
}

func normalizeObject(m map[string]any) (Entry, error) {
	var entry Entry
	for key, val := range m {
		switch strings.ToLower(key) {
		case "root":
			s, ok := val.(string)
			if !ok || strings.TrimSpace(s) == "" {
				return Entry{}, fmt.Errorf("\"root\" must be a non-empty string")
			}
			entry.Root = s
		case "args":
			args, err := stringList(val)
			if err != nil {
				return Entry{}, fmt.Errorf("\"args\": %w", err)
			}
			entry.Args = args
		case "projects":
			projects, err := stringList(val)
			if err != nil {
				return Entry{}, fmt.Errorf("\"projects\": %w", err)
			}
			entry.Projects = projects
		default:
			return Entry{}, fmt.Errorf("unknown field %q", key)
		}
	}
	if entry.Root == "" {
		return Entry{}, fmt.Errorf("object entry requires \"root\"")
	}
	return entry, nil
}

func stringList(val any) ([]string, error) {
	switch v := val.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected strings, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", val)
	}
}
