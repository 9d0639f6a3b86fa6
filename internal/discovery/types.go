package discovery

// Source is the version found in one target file.
type Source struct {
	// Name is the configured target name.
	Name string

	// Path is the target path as configured.
	Path string

	// Kind is the target's updater kind.
	Kind string

	// Exists reports whether the file is present.
	Exists bool

	// Version is the version read from the file; empty when the file is
	// missing, unreadable, or its kind cannot report a version.
	Version string

	// Err is the read or parse failure, if any.
	Err error
}

// Mismatch is a target whose version differs from the expected one.
type Mismatch struct {
	Name     string
	Path     string
	Expected string
	Actual   string
}

// VersionSummary groups the targets that carry the same version.
type VersionSummary struct {
	Version string
	Count   int
	Sources []string
}
