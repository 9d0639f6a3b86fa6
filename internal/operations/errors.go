package operations

import (
	"errors"
	"fmt"
)

var (
	// ErrPlaceholderPresent is returned when a deployable command leaves the
	// build placeholder in a target file.
	ErrPlaceholderPresent = errors.New("build placeholder still present")

	// ErrMissingRequired is returned for a required target file that does not exist.
	ErrMissingRequired = errors.New("required file not found")

	// ErrManifestFailed wraps any failure on the canonical manifest.
	ErrManifestFailed = errors.New("canonical manifest update failed")
)

// FileError reports a failed update of one target file.
type FileError struct {
	Name     string
	Path     string
	Required bool
	Err      error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Name, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
