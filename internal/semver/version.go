package semver

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	modsemver "golang.org/x/mod/semver"
)

// SemVersion is the MAJOR.MINOR.PATCH triplet. Values are immutable: every
// operation returns a new SemVersion.
type SemVersion struct {
	Major int
	Minor int
	Patch int
}

// FullVersion is a SemVersion plus its build identifier, serialized as
// MAJOR.MINOR.PATCH+BUILD.
type FullVersion struct {
	SemVersion
	Build BuildID
}

const (
	// MaxComponent is the largest value allowed for major, minor or patch.
	MaxComponent = 999

	// maxSemanticLength caps the MAJOR.MINOR.PATCH part.
	maxSemanticLength = 20

	// maxVersionLength caps the whole input handed to the regex.
	maxVersionLength = 64
)

var (
	// fullVersionRegex accepts 1-3 digit components and an optional non-space build.
	fullVersionRegex = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})(?:\+(\S+))?$`)

	// ErrInvalidFormat is returned when a string does not look like a version.
	ErrInvalidFormat = errors.New("invalid version format")

	// ErrOutOfRange is returned when a component would exceed MaxComponent.
	ErrOutOfRange = errors.New("version component out of range")

	// IncrementFunc is a function variable for Increment.
	// Tests override it to simulate failures.
	IncrementFunc = Increment
)

// String returns MAJOR.MINOR.PATCH.
func (v SemVersion) String() string {
	var sb strings.Builder
	sb.Grow(11)
	sb.WriteString(strconv.Itoa(v.Major))
	sb.WriteByte('.')
	sb.WriteString(strconv.Itoa(v.Minor))
	sb.WriteByte('.')
	sb.WriteString(strconv.Itoa(v.Patch))
	return sb.String()
}

// Validate reports ErrOutOfRange when any component is negative or above MaxComponent.
func (v SemVersion) Validate() error {
	for _, c := range []struct {
		name  string
		value int
	}{{"major", v.Major}, {"minor", v.Minor}, {"patch", v.Patch}} {
		if c.value < 0 || c.value > MaxComponent {
			return fmt.Errorf("%w: %s %d not in [0, %d]", ErrOutOfRange, c.name, c.value, MaxComponent)
		}
	}
	return nil
}

// Compare returns -1, 0 or +1 depending on the precedence of v relative to other.
func (v SemVersion) Compare(other SemVersion) int {
	return modsemver.Compare("v"+v.String(), "v"+other.String())
}

// String returns MAJOR.MINOR.PATCH+BUILD, or MAJOR.MINOR.PATCH when there is no build.
func (v FullVersion) String() string {
	if v.Build == "" {
		return v.SemVersion.String()
	}
	return v.SemVersion.String() + "+" + string(v.Build)
}

// WithBuild returns a copy of v carrying the given build identifier.
func (v FullVersion) WithBuild(b BuildID) FullVersion {
	return FullVersion{SemVersion: v.SemVersion, Build: b}
}

// Parse parses MAJOR.MINOR.PATCH[+BUILD].
//
// Returns an error wrapping ErrInvalidFormat when:
//   - the trimmed input exceeds 64 characters, or its part before '+' exceeds 20
//   - it does not match ^\d{1,3}\.\d{1,3}\.\d{1,3}(\+\S+)?$
func Parse(raw string) (FullVersion, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) > maxVersionLength {
		return FullVersion{}, fmt.Errorf("%w: input exceeds maximum length of %d", ErrInvalidFormat, maxVersionLength)
	}
	if semantic, _, _ := strings.Cut(trimmed, "+"); len(semantic) > maxSemanticLength {
		return FullVersion{}, fmt.Errorf("%w: %q exceeds maximum length of %d", ErrInvalidFormat, semantic, maxSemanticLength)
	}

	m := fullVersionRegex.FindStringSubmatch(trimmed)
	if m == nil {
		return FullVersion{}, fmt.Errorf("%w: %q", ErrInvalidFormat, trimmed)
	}

	// The regex guarantees 1-3 digits, so Atoi cannot fail or exceed 999.
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])

	return FullVersion{
		SemVersion: SemVersion{Major: major, Minor: minor, Patch: patch},
		Build:      BuildID(m[4]),
	}, nil
}

// ParseSemantic parses an exact MAJOR.MINOR.PATCH with no build part.
func ParseSemantic(raw string) (SemVersion, error) {
	v, err := Parse(raw)
	if err != nil {
		return SemVersion{}, err
	}
	if v.Build != "" {
		return SemVersion{}, fmt.Errorf("%w: %q must be MAJOR.MINOR.PATCH without build", ErrInvalidFormat, strings.TrimSpace(raw))
	}
	return v.SemVersion, nil
}

// Increment applies a bump to v.
//
//   - major: 1.2.3 -> 2.0.0
//   - minor: 1.2.3 -> 1.3.0
//   - patch: 1.2.3 -> 1.2.4
//   - build: 1.2.3 -> 1.2.3 (only the build identifier changes)
//
// There is no rollover: a component above MaxComponent yields ErrOutOfRange.
func Increment(v SemVersion, kind BumpKind) (SemVersion, error) {
	var next SemVersion
	switch kind {
	case BumpMajor:
		next = SemVersion{Major: v.Major + 1}
	case BumpMinor:
		next = SemVersion{Major: v.Major, Minor: v.Minor + 1}
	case BumpPatch:
		next = SemVersion{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	case BumpBuild:
		next = v
	default:
		return SemVersion{}, fmt.Errorf("invalid bump kind: %q", kind)
	}
	if err := next.Validate(); err != nil {
		return SemVersion{}, err
	}
	return next, nil
}
