package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/indaco/versync/internal/core"
	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"
)

// Extract returns the version addressed by spec inside data.
func Extract(data []byte, spec Spec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}

	switch spec.Format {
	case FormatJSON:
		return extractJSON(data, spec.Field)
	case FormatYAML:
		var obj map[string]any
		if err := yaml.Unmarshal(data, &obj); err != nil {
			return "", fmt.Errorf("failed to parse YAML: %w", err)
		}
		return stringAt(obj, spec.Field)
	case FormatTOML:
		var obj map[string]any
		if err := toml.Unmarshal(data, &obj); err != nil {
			return "", fmt.Errorf("failed to parse TOML: %w", err)
		}
		return stringAt(obj, spec.Field)
	case FormatRegex:
		re, err := compilePattern(spec.Pattern)
		if err != nil {
			return "", err
		}
		m := re.FindSubmatch(data)
		if m == nil {
			return "", fmt.Errorf("%w: %q", ErrNoMatch, spec.Pattern)
		}
		return string(m[1]), nil
	default:
		return strings.TrimSpace(string(data)), nil
	}
}

func extractJSON(data []byte, field string) (string, error) {
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("failed to parse JSON: invalid document")
	}
	res := gjson.GetBytes(data, field)
	if !res.Exists() {
		return "", fmt.Errorf("%w: %q", ErrFieldNotFound, field)
	}
	if res.Type != gjson.String {
		return "", fmt.Errorf("field %q is not a string", field)
	}
	return res.String(), nil
}

// stringAt walks a decoded document along a dot path.
// Example: "tool.poetry.version" accesses obj["tool"]["poetry"]["version"]
func stringAt(obj map[string]any, field string) (string, error) {
	parts := strings.Split(field, ".")
	current := any(obj)

	for i, part := range parts {
		currentMap, ok := current.(map[string]any)
		if !ok {
			return "", fmt.Errorf("field %q is not an object at path %q", strings.Join(parts[:i], "."), part)
		}
		value, exists := currentMap[part]
		if !exists {
			return "", fmt.Errorf("%w: %q", ErrFieldNotFound, field)
		}
		current = value
	}

	version, ok := current.(string)
	if !ok {
		return "", fmt.Errorf("field %q is not a string", field)
	}
	return version, nil
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("pattern %q must have a capturing group", pattern)
	}
	return re, nil
}

// Reader reads versions from files through a core.FileSystem.
type Reader struct {
	fs core.FileSystem
}

// NewReader creates a new Reader with the given filesystem.
func NewReader(fs core.FileSystem) *Reader {
	return &Reader{fs: fs}
}

// Read extracts the version addressed by spec from the file at path.
func (r *Reader) Read(ctx context.Context, path string, spec Spec) (string, error) {
	if path == "" {
		return "", fmt.Errorf("file path is required")
	}
	data, err := r.fs.ReadFile(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %q: %w", path, err)
	}
	version, err := Extract(data, spec)
	if err != nil {
		return "", fmt.Errorf("in file %q: %w", path, err)
	}
	return version, nil
}
