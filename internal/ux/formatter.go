package ux

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Formatter writes a command's result document in one output format.
type Formatter interface {
	// Format writes the given data to the output writer
	Format(data any) error
}

// TextRenderer is implemented by documents that know how to print themselves
// for a human reader.
type TextRenderer interface {
	RenderText(w io.Writer, s *Styles) error
}

// FormatterOptions contains configuration for formatters
type FormatterOptions struct {
	// Writer is where output is written (defaults to os.Stdout)
	Writer io.Writer
	// NoColor disables colored output for text formatters
	NoColor bool
	// Compact enables compact output (no indentation for JSON/YAML)
	Compact bool
}

// Formats lists the accepted --format values.
var Formats = []string{"text", "json", "yaml"}

// NewFormatter creates a formatter based on the format string
func NewFormatter(format string, opts *FormatterOptions) (Formatter, error) {
	if opts == nil {
		opts = &FormatterOptions{}
	}
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	switch format {
	case "json":
		return &JSONFormatter{opts: opts}, nil
	case "yaml":
		return &YAMLFormatter{opts: opts}, nil
	case "text", "":
		return &TextFormatter{opts: opts, styles: NewStyles(opts.Writer, opts.NoColor)}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: text, json, yaml)", format)
	}
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	opts *FormatterOptions
}

// Format writes data as JSON. Package names such as "<scope>/x" are left
// unescaped.
func (f *JSONFormatter) Format(data any) error {
	encoder := json.NewEncoder(f.opts.Writer)
	encoder.SetEscapeHTML(false)
	if !f.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	opts *FormatterOptions
}

// Format writes data as YAML
func (f *YAMLFormatter) Format(data any) error {
	encoder := yaml.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		encoder.SetIndent(2)
	}
	defer encoder.Close()
	return encoder.Encode(data)
}

// TextFormatter formats output as human-readable text
type TextFormatter struct {
	opts   *FormatterOptions
	styles *Styles
}

// Format writes data as text. Documents implementing TextRenderer render
// themselves; strings and Stringers are printed on one line.
func (f *TextFormatter) Format(data any) error {
	switch v := data.(type) {
	case TextRenderer:
		return v.RenderText(f.opts.Writer, f.styles)
	case string:
		_, err := fmt.Fprintln(f.opts.Writer, v)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(f.opts.Writer, v.String())
		return err
	default:
		return fmt.Errorf("text output is not supported for %T", data)
	}
}

// Compile-time verification that formatters implement Formatter
var _ Formatter = (*JSONFormatter)(nil)
var _ Formatter = (*YAMLFormatter)(nil)
var _ Formatter = (*TextFormatter)(nil)
