package core

import "os"

// ProcessChecker reports whether a process identifier refers to a running
// process. Liveness is platform specific, so the lock manager takes it as a
// dependency rather than probing directly.
type ProcessChecker interface {
	Alive(pid int) bool
}

// ProcessCheckerFunc adapts a function to ProcessChecker.
type ProcessCheckerFunc func(pid int) bool

// Alive calls f(pid).
func (f ProcessCheckerFunc) Alive(pid int) bool {
	return f(pid)
}

// CurrentPID returns the identifier of the calling process.
func CurrentPID() int {
	return os.Getpid()
}

// NewProcessChecker returns the liveness check for the running platform.
func NewProcessChecker() ProcessChecker {
	return ProcessCheckerFunc(processAlive)
}
