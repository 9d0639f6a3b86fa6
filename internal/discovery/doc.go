// Package discovery reads back the version every configured target file
// currently carries and reports the files that drifted from the canonical
// manifest.
package discovery
