package parser

import "errors"

// Format represents the supported file formats for version parsing.
type Format string

const (
	// FormatJSON is for JSON files (package.json, build_info.json, etc.).
	FormatJSON Format = "json"

	// FormatYAML is for YAML files (pubspec.yaml, Chart.yaml, etc.).
	FormatYAML Format = "yaml"

	// FormatTOML is for TOML files (Cargo.toml, pyproject.toml, etc.).
	FormatTOML Format = "toml"

	// FormatRaw is for plain text files where the entire content is the version.
	FormatRaw Format = "raw"

	// FormatRegex is for files requiring regex extraction.
	FormatRegex Format = "regex"
)

var (
	// ErrFieldNotFound is returned when the dot path does not resolve.
	ErrFieldNotFound = errors.New("field not found")

	// ErrNoMatch is returned when a regex pattern matches nothing.
	ErrNoMatch = errors.New("pattern does not match")
)

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// IsValid returns true if the format is a known valid format.
func (f Format) IsValid() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatTOML, FormatRaw, FormatRegex:
		return true
	default:
		return false
	}
}

// ParseFormat converts a string to a Format, returning FormatRaw as fallback.
func ParseFormat(s string) Format {
	f := Format(s)
	if f.IsValid() {
		return f
	}
	return FormatRaw
}

// Spec addresses the version value inside a file.
type Spec struct {
	Format Format

	// Field is the dot-notation path to the version field (for JSON/YAML/TOML).
	// Example: "version", "package.version", "tool.poetry.version"
	Field string

	// Pattern is the regex pattern for regex format.
	// Must contain a capturing group for the version.
	Pattern string
}

// Validate checks that the spec carries what its format needs.
func (s Spec) Validate() error {
	if !s.Format.IsValid() {
		return errors.New("invalid format: " + s.Format.String())
	}
	switch s.Format {
	case FormatJSON, FormatYAML, FormatTOML:
		if s.Field == "" {
			return errors.New("field is required for " + s.Format.String() + " format")
		}
	case FormatRegex:
		if s.Pattern == "" {
			return errors.New("pattern is required for regex format")
		}
	}
	return nil
}
