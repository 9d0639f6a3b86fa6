package updater

import (
	"errors"
	"fmt"

	"github.com/indaco/versync/internal/parser"
)

// PackageJSON sets the "version" field of a package.json to the semantic version.
type PackageJSON struct{}

// NewPackageJSON returns a PackageJSON updater.
func NewPackageJSON() *PackageJSON { return &PackageJSON{} }

func (*PackageJSON) Name() string { return KindPackageJSON }

func (*PackageJSON) Match(content []byte) (Location, bool) {
	return matchJSONString(content, keyVersion)
}

func (*PackageJSON) Render(content []byte, v Values) ([]byte, error) {
	out, err := parser.Replace(content, parser.Spec{Format: parser.FormatJSON, Field: keyVersion}, v.Semantic())
	if errors.Is(err, parser.ErrFieldNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrPatternNotFound, err)
	}
	return out, err
}
