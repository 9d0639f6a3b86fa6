//go:build unix

package core

import (
	"errors"

	"golang.org/x/sys/unix"
)

// processAlive sends signal 0, which performs the permission and existence
// checks without delivering anything. EPERM means the process exists but
// belongs to another user.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
