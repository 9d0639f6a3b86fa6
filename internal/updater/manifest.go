package updater

import (
	"fmt"
	"regexp"
)

var manifestLine = regexp.MustCompile(`(?m)^version:[^\n]*$`)

// Manifest rewrites the `version:` line of a YAML manifest with the full version.
type Manifest struct{}

// NewManifest returns a Manifest updater.
func NewManifest() *Manifest { return &Manifest{} }

func (*Manifest) Name() string { return KindManifest }

func (*Manifest) Match(content []byte) (Location, bool) {
	loc := manifestLine.FindIndex(content)
	if loc == nil {
		return Location{}, false
	}
	return Location{Start: loc[0], End: loc[1]}, true
}

func (m *Manifest) Render(content []byte, v Values) ([]byte, error) {
	loc, ok := m.Match(content)
	if !ok {
		return nil, fmt.Errorf("%w: no line starting with \"version:\"", ErrPatternNotFound)
	}
	return splice(content, loc, "version: "+v.Version.String()), nil
}

// splice returns content with loc replaced by s.
func splice(content []byte, loc Location, s string) []byte {
	out := make([]byte, 0, len(content)-(loc.End-loc.Start)+len(s))
	out = append(out, content[:loc.Start]...)
	out = append(out, s...)
	return append(out, content[loc.End:]...)
}
