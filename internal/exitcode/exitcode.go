package exitcode

import (
	"context"
	"errors"
	"os"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates every attempted project succeeded
	Success = 0

	// GeneralError covers configuration errors, cycles and failed or skipped projects
	GeneralError = 1

	// Interrupted indicates the run was cancelled by a signal
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	Exit(DetermineExitCode(err))
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if errors.Is(err, context.Canceled) {
		return Interrupted
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
