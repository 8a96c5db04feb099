package log

import (
	"io"
	"os"
	"strings"
)

// Format represents the output format for logs
type Format int

const (
	// FormatText outputs logs in human-readable text format
	FormatText Format = iota
	// FormatJSON outputs logs in JSON format
	FormatJSON
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	default:
		return "text"
	}
}

// ParseFormat parses a string into a Format
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

// Config holds configuration for the logger
type Config struct {
	// Level is the minimum log level to output
	Level Level

	// Format is the output format (JSON or Text)
	Format Format

	// Output is where logs are written. Stdout is reserved for task output,
	// so the CLI always points this at stderr.
	Output io.Writer

	// AddSource includes source file and line number in logs
	AddSource bool

	// ServiceName is attached to every record
	ServiceName string

	// ServiceVersion is the version of the binary
	ServiceVersion string
}

// DefaultConfig returns the CLI configuration: warnings and above, text, stderr.
func DefaultConfig() Config {
	return Config{
		Level:          LevelWarn,
		Format:         FormatText,
		Output:         os.Stderr,
		ServiceName:    "wiggum",
		ServiceVersion: "dev",
	}
}
