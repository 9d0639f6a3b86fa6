// Package parser reads and rewrites a single version value inside JSON,
// YAML, TOML, raw text, and regex-addressed files. Rewrites touch only the
// addressed value where the format allows it, so the rest of the file keeps
// its layout.
package parser
