package initcmd

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/indaco/versync/internal/config"
	"github.com/indaco/versync/internal/core"
	"github.com/indaco/versync/internal/parser"
	"github.com/indaco/versync/internal/semver"
)

// VersionSource is a project file outside the default targets that
// already carries a version.
type VersionSource struct {
	// File is the path relative to the project root.
	File string

	// Version is the value found in the file.
	Version string

	// Format describes the ecosystem (e.g., "Rust (Cargo.toml)").
	Format string
}

// candidates are checked in order; the field updater handles each of them.
var candidates = []struct {
	file   string
	format string
}{
	{"Cargo.toml", "Rust (Cargo.toml)"},
	{"pyproject.toml", "Python (pyproject.toml)"},
	{"Chart.yaml", "Helm (Chart.yaml)"},
	{"version.txt", "Plain text (version.txt)"},
	{"VERSION", "Plain text (VERSION)"},
}

// DetectVersionSources returns the candidate files under root whose version
// parses as MAJOR.MINOR.PATCH with an optional build part.
func DetectVersionSources(ctx context.Context, fs core.FileSystem, root string) []VersionSource {
	reader := parser.NewReader(fs)
	var sources []VersionSource
	for _, c := range candidates {
		path := filepath.Join(root, c.file)
		spec := parser.Spec{Format: parser.FormatForFile(path), Field: parser.FieldForFile(path)}
		version, err := reader.Read(ctx, path, spec)
		if err != nil {
			continue
		}
		version = strings.TrimPrefix(version, "v")
		if _, err := semver.Parse(version); err != nil {
			continue
		}
		sources = append(sources, VersionSource{File: c.file, Version: version, Format: c.format})
	}
	return sources
}

// Target turns a detected source into a field target.
func (s VersionSource) Target() config.TargetFile {
	name := strings.ToLower(strings.ReplaceAll(s.File, ".", "-"))
	return config.TargetFile{Name: name, Path: s.File, Kind: "field"}
}

// FormatVersionSources formats the detected sources for display.
func FormatVersionSources(sources []VersionSource) string {
	var sb strings.Builder
	for _, s := range sources {
		sb.WriteString("  - ")
		sb.WriteString(s.Version)
		sb.WriteString(" from ")
		sb.WriteString(s.File)
		sb.WriteString(" (")
		sb.WriteString(s.Format)
		sb.WriteString(")\n")
	}
	return sb.String()
}
