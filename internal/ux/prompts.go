package ux

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// ciEnvVars disable prompts when any of them is set.
var ciEnvVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"BUILDKITE",
}

// ShouldPrompt reports whether prompts may be shown: both stdin and stdout
// must be terminals, nonInteractive must be false, and no CI variable may be
// set. getenv defaults to os.Getenv.
func ShouldPrompt(nonInteractive bool, getenv func(string) string) bool {
	if nonInteractive {
		return false
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, name := range ciEnvVars {
		if isTruthy(getenv(name)) {
			return false
		}
	}
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// isTruthy treats any non-empty value other than an explicit false as set.
func isTruthy(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return true
}

// ConfirmFunc asks a yes/no question.
type ConfirmFunc func(ctx context.Context, title, description string) (bool, error)

// PromptForConfirmation displays a yes/no confirmation prompt. The answer
// defaults to no.
func PromptForConfirmation(ctx context.Context, title, description string) (bool, error) {
	var confirmed bool

	confirm := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed)

	form := huh.NewForm(huh.NewGroup(confirm))
	if err := form.RunWithContext(ctx); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}

	return confirmed, nil
}
