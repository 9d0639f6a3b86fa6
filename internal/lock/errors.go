package lock

import (
	"errors"
	"fmt"
	"time"
)

// ErrLockTimeout is matched by every TimeoutError.
var ErrLockTimeout = errors.New("lock timeout")

// TimeoutError reports which process kept the lock for the whole wait.
type TimeoutError struct {
	Path     string
	LockPath string
	OwnerPID int
	Waited   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for lock on %q (held by pid %d, lock file %q)",
		e.Waited.Round(time.Millisecond), e.Path, e.OwnerPID, e.LockPath)
}

// Is makes errors.Is(err, ErrLockTimeout) true for any TimeoutError.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrLockTimeout
}
