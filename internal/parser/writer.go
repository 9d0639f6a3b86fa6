package parser

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	yamlparser "github.com/goccy/go-yaml/parser"
	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/sjson"
)

// Replace returns data with the value addressed by spec set to version.
// JSON is edited in place with sjson and YAML through its AST, so comments
// and key order survive. TOML is re-encoded.
func Replace(data []byte, spec Spec, version string) ([]byte, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	switch spec.Format {
	case FormatJSON:
		return replaceJSON(data, spec.Field, version)
	case FormatYAML:
		return replaceYAML(data, spec.Field, version)
	case FormatTOML:
		return replaceTOML(data, spec.Field, version)
	case FormatRegex:
		return replaceRegex(data, spec.Pattern, version)
	default:
		return []byte(version + "\n"), nil
	}
}

func replaceJSON(data []byte, field, version string) ([]byte, error) {
	if _, err := extractJSON(data, field); err != nil {
		return nil, err
	}
	updated, err := sjson.SetBytes(data, field, version)
	if err != nil {
		return nil, fmt.Errorf("failed to set %q: %w", field, err)
	}
	return updated, nil
}

func replaceYAML(data []byte, field, version string) ([]byte, error) {
	var obj map[string]any
	if err := yaml.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if _, err := stringAt(obj, field); err != nil {
		return nil, err
	}

	path, err := yaml.PathString("$." + field)
	if err != nil {
		return nil, fmt.Errorf("invalid field path %q: %w", field, err)
	}
	file, err := yamlparser.ParseBytes(data, yamlparser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := path.ReplaceWithReader(file, strings.NewReader(version)); err != nil {
		return nil, fmt.Errorf("failed to set %q: %w", field, err)
	}

	out := []byte(file.String())
	if bytes.HasSuffix(data, []byte("\n")) && !bytes.HasSuffix(out, []byte("\n")) {
		out = append(out, '\n')
	}
	return out, nil
}

func replaceTOML(data []byte, field, version string) ([]byte, error) {
	var obj map[string]any
	if err := toml.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if _, err := stringAt(obj, field); err != nil {
		return nil, err
	}
	if err := setNestedValue(obj, field, version); err != nil {
		return nil, err
	}
	updated, err := toml.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TOML: %w", err)
	}
	return updated, nil
}

// replaceRegex swaps the first capturing group of every match for version.
func replaceRegex(data []byte, pattern, version string) ([]byte, error) {
	re, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}
	matches := re.FindAllSubmatchIndex(data, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatch, pattern)
	}

	var out bytes.Buffer
	last := 0
	for _, m := range matches {
		start, end := m[2], m[3]
		if start < 0 {
			continue
		}
		out.Write(data[last:start])
		out.WriteString(version)
		last = end
	}
	out.Write(data[last:])
	return out.Bytes(), nil
}

// setNestedValue sets a value in a nested map using dot notation.
func setNestedValue(obj map[string]any, field string, value any) error {
	parts := strings.Split(field, ".")
	current := obj

	for i := 0; i < len(parts)-1; i++ {
		next, ok := current[parts[i]].(map[string]any)
		if !ok {
			return fmt.Errorf("field %q is not an object", strings.Join(parts[:i+1], "."))
		}
		current = next
	}

	current[parts[len(parts)-1]] = value
	return nil
}

// FieldForFile returns the typical field path for common file names.
func FieldForFile(path string) string {
	switch strings.ToLower(filepath.Base(path)) {
	case "cargo.toml":
		return "package.version"
	case "pyproject.toml":
		return "project.version"
	default:
		return "version"
	}
}

// FormatForFile detects the format from the file extension or name.
func FormatForFile(path string) Format {
	lower := strings.ToLower(filepath.Base(path))

	switch {
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return FormatYAML
	case strings.HasSuffix(lower, ".toml"):
		return FormatTOML
	default:
		return FormatRaw
	}
}
