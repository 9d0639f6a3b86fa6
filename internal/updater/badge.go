package updater

import (
	"fmt"
	"regexp"
)

// badgePattern only matches a numeric triplet inside the shields.io badge
// URL, so other version-like text in the document is left alone.
var badgePattern = regexp.MustCompile(`img\.shields\.io/badge/version-(\d{1,3}\.\d{1,3}\.\d{1,3})-[A-Za-z0-9]+`)

// Badge rewrites the version in a shields.io badge link.
type Badge struct{}

// NewBadge returns a Badge updater.
func NewBadge() *Badge { return &Badge{} }

func (*Badge) Name() string { return KindBadge }

func (*Badge) Match(content []byte) (Location, bool) {
	m := badgePattern.FindSubmatchIndex(content)
	if m == nil {
		return Location{}, false
	}
	return Location{Start: m[2], End: m[3]}, true
}

// Render rewrites every badge in the document.
func (*Badge) Render(content []byte, v Values) ([]byte, error) {
	all := badgePattern.FindAllSubmatchIndex(content, -1)
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoBadge, ErrPatternNotFound)
	}
	out := content
	// Back to front so earlier offsets stay valid.
	for i := len(all) - 1; i >= 0; i-- {
		out = splice(out, Location{Start: all[i][2], End: all[i][3]}, v.Semantic())
	}
	return out, nil
}
