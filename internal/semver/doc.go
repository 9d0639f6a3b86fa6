// Package semver parses, formats and increments the canonical
// MAJOR.MINOR.PATCH+BUILD version that every target file projects from.
package semver
