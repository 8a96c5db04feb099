package ux

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/wiggum/internal/errors"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\nSuggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError adds a suggestion to low-level errors that reach the CLI
// without one. Coded errors already carry their own suggestions and are
// returned unchanged.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}
	var coded *errors.RunnerError
	if stderrors.As(err, &coded) {
		return err
	}

	errMsg := err.Error()

	switch {
	case strings.Contains(errMsg, "too many open files"):
		return NewErrorWithSuggestion(err,
			"Lower --parallel or WIGGUM_RUNNER_PARALLEL, or raise the open file limit (ulimit -n)")
	case strings.Contains(errMsg, "permission denied"):
		return NewErrorWithSuggestion(err,
			"Check file permissions and ensure you have access to the workspace directories")
	case strings.Contains(errMsg, "no such file or directory"):
		return NewErrorWithSuggestion(err,
			"Check the --root and --config paths")
	case strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "unknown shorthand flag"):
		return NewErrorWithSuggestion(err,
			"Flags for the task itself go after the tool name, e.g. 'wiggum run -p app jest --ci'")
	}

	return err
}
