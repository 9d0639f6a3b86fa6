package backup

import (
	"errors"
	"fmt"
)

var (
	// ErrBackupFailed is matched by every error from CreateTimestamped.
	ErrBackupFailed = errors.New("backup creation failed")

	// ErrIntegrityMismatch is matched when a backup differs from its source.
	ErrIntegrityMismatch = errors.New("backup integrity mismatch")
)

// IntegrityError describes a backup that did not match its source. The
// backup file has already been deleted when this error is returned.
type IntegrityError struct {
	Source string
	Backup string
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("backup %q of %q discarded: %s", e.Backup, e.Source, e.Reason)
}

// Is matches both ErrIntegrityMismatch and ErrBackupFailed: a mismatched
// backup is a creation failure, never a restore candidate.
func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrityMismatch || target == ErrBackupFailed
}
