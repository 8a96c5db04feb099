package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigNotFound    ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid     ErrorCode = "CONFIG-002"
	ErrCodeConfigUnsupported ErrorCode = "CONFIG-003"
	ErrCodeConfigEntry       ErrorCode = "CONFIG-004"
	ErrCodeConfigMissingRoot ErrorCode = "CONFIG-005"
	ErrCodeConfigSetting     ErrorCode = "CONFIG-006"

	// Discovery errors (DISCOVERY-001 to DISCOVERY-099)
	ErrCodeDiscoveryDuplicate ErrorCode = "DISCOVERY-001"
	ErrCodeDiscoveryManifest  ErrorCode = "DISCOVERY-002"
	ErrCodeDiscoveryRead      ErrorCode = "DISCOVERY-003"

	// Graph errors (GRAPH-001 to GRAPH-099)
	ErrCodeGraphCycle ErrorCode = "GRAPH-001"

	// Filter errors (FILTER-001 to FILTER-099)
	ErrCodeFilterEmpty   ErrorCode = "FILTER-001"
	ErrCodeFilterPattern ErrorCode = "FILTER-002"

	// Plan errors (PLAN-001 to PLAN-099)
	ErrCodePlanInvalid ErrorCode = "PLAN-001"

	// Execution errors (EXEC-001 to EXEC-099)
	ErrCodeExecFailed   ErrorCode = "EXEC-001"
	ErrCodeExecStart    ErrorCode = "EXEC-002"
	ErrCodeExecManifest ErrorCode = "EXEC-003"
)

// RunnerError represents an enhanced error with code, suggestions, and documentation
type RunnerError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *RunnerError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *RunnerError) Unwrap() error {
	return e.Cause
}

// New creates a new RunnerError
func New(code ErrorCode, message string) *RunnerError {
	return &RunnerError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new RunnerError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *RunnerError {
	return &RunnerError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *RunnerError) WithSuggestion(suggestion string) *RunnerError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *RunnerError) WithSuggestions(suggestions ...string) *RunnerError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *RunnerError) WithDocs(url string) *RunnerError {
	e.DocsURL = url
	return e
}

// Common error constructors for frequently used errors

// NewConfigNotFoundError creates a workspace config not found error
func NewConfigNotFoundError(root string, candidates []string) *RunnerError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("no workspace config found in %s", root)).
		WithSuggestion(fmt.Sprintf("Create one of: %s", strings.Join(candidates, ", "))).
		WithSuggestion("Pass an explicit file with --config <path>")
}

// NewConfigUnsupportedError creates an unsupported config format error
func NewConfigUnsupportedError(path string) *RunnerError {
	return New(ErrCodeConfigUnsupported, fmt.Sprintf("unsupported config file type: %s", path)).
		WithSuggestion("Use a .json, .yaml, .yml or .toml workspace config")
}

// NewMissingRootError creates a missing workspace root error
func NewMissingRootError(path string) *RunnerError {
	return New(ErrCodeConfigMissingRoot, fmt.Sprintf("root directory does not exist: %s", path)).
		WithSuggestion("Check the --root flag or the root of the config entry")
}

// NewDuplicateProjectError creates a duplicate project name error
func NewDuplicateProjectError(name, firstRoot, secondRoot string, cause error) *RunnerError {
	return Wrap(ErrCodeDiscoveryDuplicate,
		fmt.Sprintf("duplicate project name %q declared in %s and %s", name, firstRoot, secondRoot), cause).
		WithSuggestion("Rename one of the packages so every workspace project has a unique name").
		WithSuggestion("Narrow the config entries so the directory is matched only once")
}

// NewInvalidManifestError creates a manifest schema error
func NewInvalidManifestError(path string, cause error) *RunnerError {
	return Wrap(ErrCodeDiscoveryManifest, fmt.Sprintf("invalid package manifest: %s", path), cause).
		WithSuggestion("Ensure package.json is a JSON object with a non-empty \"name\" field").
		WithSuggestion("Dependency fields must map package names to version strings")
}

// NewCycleError creates a circular dependency error
func NewCycleError(participants []string, cause error) *RunnerError {
	return Wrap(ErrCodeGraphCycle,
		fmt.Sprintf("Circular project dependencies detected: %s", strings.Join(participants, ", ")), cause).
		WithSuggestion("Remove one of the dependency declarations or imports that close the cycle").
		WithSuggestion("Run 'wiggum graph --json' to inspect the edges and their reasons").
		WithSuggestion("Use --no-infer-imports if the cycle comes from inferred imports only")
}

// NewEmptySelectionError creates an error for a filter that selected nothing
func NewEmptySelectionError(patterns []string) *RunnerError {
	return New(ErrCodeFilterEmpty, fmt.Sprintf("no projects match --project %s", strings.Join(patterns, ","))).
		WithSuggestion("Run 'wiggum projects' to list the discovered project names")
}

// NewRunFailedError creates an aggregated execution failure error
func NewRunFailedError(failed, skipped int) *RunnerError {
	return New(ErrCodeExecFailed,
		fmt.Sprintf("run finished with %d failed and %d skipped projects", failed, skipped))
}
