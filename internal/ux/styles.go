package ux

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used by the text renderers. Styles are
// bound to a renderer for the destination writer, so output that is not a
// terminal gets no escape sequences.
type Styles struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Name    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
	Skipped lipgloss.Style
	Command lipgloss.Style
}

// NewStyles creates the styles for w. With noColor every style is plain.
func NewStyles(w io.Writer, noColor bool) *Styles {
	r := lipgloss.NewRenderer(w)
	if noColor {
		plain := r.NewStyle()
		return &Styles{
			Title:   plain,
			Header:  plain,
			Name:    plain,
			Muted:   plain,
			Success: plain,
			Failure: plain,
			Skipped: plain,
			Command: plain,
		}
	}

	return &Styles{
		Title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),
		Header: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Name: r.NewStyle().
			Foreground(lipgloss.Color("252")),
		Muted: r.NewStyle().
			Foreground(lipgloss.Color("241")),
		Success: r.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true),
		Failure: r.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true),
		Skipped: r.NewStyle().
			Foreground(lipgloss.Color("214")),
		Command: r.NewStyle().
			Foreground(lipgloss.Color("170")),
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() *Styles {
	return NewStyles(io.Discard, true)
}
