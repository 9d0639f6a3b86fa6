package updater

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/indaco/versync/internal/parser"
)

// Field updates a version addressed by a dot path or regex in an arbitrary
// JSON, YAML, TOML or text file. It keeps the shape of the existing value:
// a value that carried a build part gets the full version, otherwise the
// semantic version.
type Field struct {
	spec parser.Spec
}

// NewField returns a Field updater for path. A non-empty pattern selects
// regex mode; otherwise the format comes from the file name and field
// defaults to the usual version key for that file.
func NewField(path, field, pattern string) (*Field, error) {
	spec := parser.Spec{Format: parser.FormatForFile(path), Field: field, Pattern: pattern}
	if pattern != "" {
		spec.Format = parser.FormatRegex
	}
	if spec.Field == "" {
		spec.Field = parser.FieldForFile(path)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &Field{spec: spec}, nil
}

func (*Field) Name() string { return KindField }

func (f *Field) Match(content []byte) (Location, bool) {
	current, err := parser.Extract(content, f.spec)
	if err != nil {
		return Location{}, false
	}
	idx := bytes.Index(content, []byte(current))
	if idx < 0 {
		return Location{}, true
	}
	return Location{Start: idx, End: idx + len(current)}, true
}

func (f *Field) Render(content []byte, v Values) ([]byte, error) {
	current, err := parser.Extract(content, f.spec)
	if errors.Is(err, parser.ErrFieldNotFound) || errors.Is(err, parser.ErrNoMatch) {
		return nil, fmt.Errorf("%w: %w", ErrPatternNotFound, err)
	}
	if err != nil {
		return nil, err
	}

	value := v.Semantic()
	if strings.Contains(current, "+") {
		value = v.Version.String()
	}
	return parser.Replace(content, f.spec, value)
}
