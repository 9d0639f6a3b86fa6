// Package updater locates and rewrites the version-bearing fragment inside
// each kind of target file. Updaters are pure: they take the current
// content and return the new content, leaving I/O to the caller.
package updater

import (
	"errors"
	"time"

	"github.com/indaco/versync/internal/semver"
)

var (
	// ErrPatternNotFound is returned by Render when the updater's fragment is absent.
	ErrPatternNotFound = errors.New("pattern not found")

	// ErrNoBadge is returned when a document has no version badge. Callers
	// treat it as a warning.
	ErrNoBadge = errors.New("no badge found")
)

// Location is the byte span of the matched fragment. Insertion points have
// Start == End.
type Location struct {
	Start int
	End   int
}

// Values are the inputs every updater renders from.
type Values struct {
	Version     semver.FullVersion
	Bump        semver.BumpKind
	Date        time.Time
	Placeholder string
}

// Semantic returns the MAJOR.MINOR.PATCH part of the version.
func (v Values) Semantic() string {
	return v.Version.SemVersion.String()
}

// Build returns the build identifier as written into files.
func (v Values) Build() string {
	return string(v.Version.Build)
}

// Updater rewrites one kind of artifact.
type Updater interface {
	Name() string
	Match(content []byte) (Location, bool)
	Render(content []byte, v Values) ([]byte, error)
}

// Target carries the per-file settings an updater is built from.
type Target struct {
	Path          string
	Field         string
	Pattern       string
	Constant      string
	BuildConstant string
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
