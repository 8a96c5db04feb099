package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/wiggum/internal/config"
	"github.com/felixgeelhaar/wiggum/internal/log"
	"github.com/felixgeelhaar/wiggum/internal/ux"
	"github.com/felixgeelhaar/wiggum/internal/version"
)

// CommandContext holds the persistent flags, process settings and the
// resources every command shares. It is built per invocation so commands
// never depend on package-level state.
type CommandContext struct {
	// Root is the absolute workspace root
	Root string

	// ConfigPath is the explicit workspace config, empty to search Root
	ConfigPath string

	Settings config.Settings
	Logger   *log.Logger
	Fs       afero.Fs

	Out     io.Writer
	Err     io.Writer
	NoColor bool
}

// NewCommandContext extracts the command context from the persistent flags
// and the WIGGUM_RUNNER_* environment. Flags win over the environment.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}

	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return nil, err
	}
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}
	logFormat, err := cmd.Flags().GetString("log-format")
	if err != nil {
		return nil, err
	}
	noColor, err := cmd.Flags().GetBool("no-color")
	if err != nil {
		return nil, err
	}
	if logLevel == "" {
		logLevel = settings.LogLevel
	}
	if logFormat == "" {
		logFormat = settings.LogFormat
	}

	cc := &CommandContext{
		Settings: settings,
		Fs:       afero.NewOsFs(),
		Out:      cmd.OutOrStdout(),
		Err:      cmd.ErrOrStderr(),
		NoColor:  noColor || os.Getenv("NO_COLOR") != "",
	}

	logCfg := log.DefaultConfig()
	logCfg.Level = log.ParseLevel(logLevel)
	logCfg.Format = log.ParseFormat(logFormat)
	logCfg.Output = cc.Err
	logCfg.ServiceVersion = version.GetInfo().Short()
	cc.Logger = log.New(logCfg)
	log.SetDefaultLogger(cc.Logger)

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determine working directory: %w", err)
	}
	if configPath != "" && !filepath.IsAbs(configPath) {
		configPath = filepath.Join(cwd, configPath)
	}
	cc.ConfigPath = configPath

	switch {
	case root != "":
		if !filepath.IsAbs(root) {
			root = filepath.Join(cwd, root)
		}
	case configPath != "":
		root = filepath.Dir(configPath)
	default:
		found, ok := ux.FindWorkspaceRoot(cc.Fs, cwd)
		if !ok {
			found = cwd
		}
		root = found
	}
	cc.Root = filepath.Clean(root)

	cc.Logger.Debug("resolved workspace", "root", cc.Root, "config", cc.ConfigPath)
	return cc, nil
}

// Styles returns the text styles for w
func (cc *CommandContext) Styles(w io.Writer) *ux.Styles {
	return ux.NewStyles(w, cc.NoColor)
}

// Formatter returns the formatter for format, writing to Out
func (cc *CommandContext) Formatter(format string) (ux.Formatter, error) {
	return ux.NewFormatter(format, &ux.FormatterOptions{Writer: cc.Out, NoColor: cc.NoColor})
}

// Paths returns the default locations inside the workspace
func (cc *CommandContext) Paths() *ux.PathDefaults {
	return ux.NewPathDefaults(cc.Root)
}

// outputFormat resolves --json and --format into one format name
func outputFormat(cmd *cobra.Command) (string, error) {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return "json", nil
	}
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "", "text", "json", "yaml":
		return format, nil
	default:
		return "", fmt.Errorf("unknown format: %s (supported: text, json, yaml)", format)
	}
}
