package discovery

import (
	"cmp"
	"slices"
	"strings"

	"github.com/indaco/versync/internal/semver"
)

// DetectMismatches returns the sources whose version differs from expected.
// A value that carries a build part is compared with the full version,
// anything else with the semantic version. Sources without a version are
// not compared.
func DetectMismatches(sources []Source, expected semver.FullVersion) []Mismatch {
	var mismatches []Mismatch
	for _, s := range sources {
		if s.Version == "" {
			continue
		}
		want := expected.SemVersion.String()
		if strings.Contains(s.Version, "+") {
			want = expected.String()
		}
		if s.Version != want {
			mismatches = append(mismatches, Mismatch{
				Name:     s.Name,
				Path:     s.Path,
				Expected: want,
				Actual:   s.Version,
			})
		}
	}

	slices.SortFunc(mismatches, func(a, b Mismatch) int {
		return cmp.Compare(a.Path, b.Path)
	})
	return mismatches
}

// GetVersionSummary groups sources by semantic version, most common first.
func GetVersionSummary(sources []Source) []VersionSummary {
	versionMap := make(map[string][]string)
	for _, s := range sources {
		if s.Version == "" {
			continue
		}
		v, _, _ := strings.Cut(s.Version, "+")
		versionMap[v] = append(versionMap[v], s.Path)
	}

	summaries := make([]VersionSummary, 0, len(versionMap))
	for v, paths := range versionMap {
		slices.Sort(paths)
		summaries = append(summaries, VersionSummary{Version: v, Count: len(paths), Sources: paths})
	}

	slices.SortFunc(summaries, func(a, b VersionSummary) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(a.Version, b.Version)
	})
	return summaries
}

// IsVersionConsistent reports whether every source agrees on the semantic version.
func IsVersionConsistent(sources []Source) bool {
	return len(GetVersionSummary(sources)) <= 1
}
