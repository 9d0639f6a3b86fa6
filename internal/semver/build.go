package semver

import (
	"fmt"
	"time"
)

// BuildID is the part after '+': a 12-digit timestamp or the placeholder token.
type BuildID string

// BuildKind classifies a BuildID.
type BuildKind int

const (
	// BuildNone means the version carried no build part.
	BuildNone BuildKind = iota
	// BuildTimestamp is a YYYYMMDDHHMM local timestamp.
	BuildTimestamp
	// BuildPlaceholder is the reserved token substituted at build time.
	BuildPlaceholder
	// BuildOther is anything else, e.g. a legacy integer build number.
	BuildOther
)

// BuildMode selects how NewBuildID produces an identifier.
type BuildMode int

const (
	// ModeImmediate captures the current local time.
	ModeImmediate BuildMode = iota
	// ModePlaceholder defers the timestamp to a build-time injector.
	ModePlaceholder
)

const (
	// DefaultPlaceholder is the reserved token meaning "fill in at build time".
	DefaultPlaceholder = "BUILD_PLACEHOLDER"

	// TimestampLayout formats a build timestamp as YYYYMMDDHHMM.
	TimestampLayout = "200601021504"
)

// String returns kind names used in reports.
func (k BuildKind) String() string {
	switch k {
	case BuildNone:
		return "none"
	case BuildTimestamp:
		return "timestamp"
	case BuildPlaceholder:
		return "placeholder"
	default:
		return "other"
	}
}

// NewBuildID returns a timestamp for ModeImmediate and the placeholder for
// ModePlaceholder. An empty placeholder falls back to DefaultPlaceholder.
func NewBuildID(mode BuildMode, now time.Time, placeholder string) BuildID {
	if mode == ModePlaceholder {
		if placeholder == "" {
			placeholder = DefaultPlaceholder
		}
		return BuildID(placeholder)
	}
	return BuildID(now.Format(TimestampLayout))
}

// Kind classifies b against the given placeholder token.
func (b BuildID) Kind(placeholder string) BuildKind {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	switch {
	case b == "":
		return BuildNone
	case string(b) == placeholder:
		return BuildPlaceholder
	case isTimestamp(string(b)):
		return BuildTimestamp
	default:
		return BuildOther
	}
}

// Time parses a timestamp build in the local zone.
func (b BuildID) Time() (time.Time, error) {
	if !isTimestamp(string(b)) {
		return time.Time{}, fmt.Errorf("build %q is not a %d-digit timestamp", b, len(TimestampLayout))
	}
	return time.ParseInLocation(TimestampLayout, string(b), time.Local)
}

// isTimestamp reports whether s is exactly twelve ASCII digits.
func isTimestamp(s string) bool {
	if len(s) != len(TimestampLayout) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
