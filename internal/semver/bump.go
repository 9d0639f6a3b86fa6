package semver

import (
	"fmt"
	"strings"
)

// BumpKind selects which part of the version an increment changes.
type BumpKind string

const (
	BumpMajor BumpKind = "major"
	BumpMinor BumpKind = "minor"
	BumpPatch BumpKind = "patch"
	BumpBuild BumpKind = "build"
)

// BumpKinds lists every valid kind in display order.
var BumpKinds = []BumpKind{BumpMajor, BumpMinor, BumpPatch, BumpBuild}

// String returns the kind name.
func (k BumpKind) String() string {
	return string(k)
}

// ParseBumpKind converts a CLI argument into a BumpKind.
func ParseBumpKind(s string) (BumpKind, error) {
	k := BumpKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case BumpMajor, BumpMinor, BumpPatch, BumpBuild:
		return k, nil
	default:
		return "", fmt.Errorf("invalid increment type %q (expected one of: major, minor, patch, build)", s)
	}
}
