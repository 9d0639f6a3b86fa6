package lock

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/indaco/versync/internal/core"
	"github.com/indaco/versync/internal/logging"
)

const (
	// Suffix is appended to a resource path to name its lock file.
	Suffix = ".lock"

	// DefaultTimeout bounds how long Acquire waits on a live owner.
	DefaultTimeout = 30 * time.Second

	// DefaultPollInterval is the delay between attempts while the owner is alive.
	DefaultPollInterval = time.Second

	// DefaultProgressInterval is how often a waiting Acquire logs progress.
	DefaultProgressInterval = 10 * time.Second
)

// Function variables for testability.
var (
	openFileFn = os.OpenFile
	readFileFn = os.ReadFile
	removeFn   = os.Remove
)

// Handle is a held lock. It is created by Acquire and consumed by Release.
type Handle struct {
	ResourcePath string
	LockPath     string
	OwnerPID     int
	AcquiredAt   time.Time
}

// Manager acquires and releases locks for one process identity.
type Manager struct {
	checker          core.ProcessChecker
	pid              int
	pollInterval     time.Duration
	progressInterval time.Duration
	log              *logging.Logger
	now              func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithProcessChecker replaces the platform liveness check.
func WithProcessChecker(c core.ProcessChecker) Option {
	return func(m *Manager) { m.checker = c }
}

// WithPID sets the identity written into lock files. Defaults to os.Getpid().
func WithPID(pid int) Option {
	return func(m *Manager) { m.pid = pid }
}

// WithPollInterval sets the delay between attempts on a live lock.
func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) { m.pollInterval = d }
}

// WithProgressInterval sets how often waiting is logged.
func WithProgressInterval(d time.Duration) Option {
	return func(m *Manager) { m.progressInterval = d }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) { m.log = logging.OrNop(l) }
}

// NewManager returns a Manager with the platform defaults.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		checker:          core.NewProcessChecker(),
		pid:              core.CurrentPID(),
		pollInterval:     DefaultPollInterval,
		progressInterval: DefaultProgressInterval,
		log:              logging.Nop(),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PID returns the identity this manager writes into lock files.
func (m *Manager) PID() int {
	return m.pid
}

// Path returns the lock file path guarding resource.
func Path(resource string) string {
	return resource + Suffix
}

// Acquire takes the lock on resource, waiting up to timeout while a live
// process holds it. Stale locks are removed and retried without waiting.
// A non-positive timeout means DefaultTimeout.
func (m *Manager) Acquire(ctx context.Context, resource string, timeout time.Duration) (*Handle, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	lockPath := Path(resource)
	start := m.now()
	lastProgress := start

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		err := m.create(lockPath)
		if err == nil {
			m.log.Debug().Str("path", resource).Int("pid", m.pid).Msg("lock acquired")
			return &Handle{
				ResourcePath: resource,
				LockPath:     lockPath,
				OwnerPID:     m.pid,
				AcquiredAt:   m.now(),
			}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to create lock file %q: %w", lockPath, err)
		}

		owner, state := m.inspect(lockPath)
		switch state {
		case ownerGone:
			// Released between our create attempt and the read.
			continue
		case ownerStale:
			m.log.Warn().Str("path", resource).Int("owner", owner).Msg("reclaiming stale lock")
			if err := m.removeStale(lockPath, owner); err != nil {
				return nil, err
			}
			continue
		}

		elapsed := m.now().Sub(start)
		if elapsed >= timeout {
			return nil, &TimeoutError{Path: resource, LockPath: lockPath, OwnerPID: owner, Waited: elapsed}
		}
		if m.now().Sub(lastProgress) >= m.progressInterval {
			m.log.Info().
				Str("path", resource).
				Int("owner", owner).
				Dur("waited", elapsed.Round(time.Second)).
				Dur("timeout", timeout).
				Msg("waiting for lock")
			lastProgress = m.now()
		}

		if err := sleepCtx(ctx, min(m.pollInterval, timeout-elapsed)); err != nil {
			return nil, err
		}
	}
}

// Release deletes the lock file if it still names the handle's owner.
// A lock that now belongs to someone else is left in place with a warning.
func (m *Manager) Release(h *Handle) error {
	if h == nil {
		return nil
	}
	owner, err := readOwner(h.LockPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		m.log.Warn().Str("path", h.ResourcePath).Msg("lock file already removed")
		return nil
	case err != nil:
		m.log.Warn().Str("path", h.ResourcePath).Err(err).Msg("lock file is unreadable, not removing")
		return nil
	case owner != h.OwnerPID:
		m.log.Warn().
			Str("path", h.ResourcePath).
			Int("owner", owner).
			Int("pid", h.OwnerPID).
			Msg("lock is held by another process, not removing")
		return nil
	}

	if err := removeFn(h.LockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file %q: %w", h.LockPath, err)
	}
	m.log.Debug().Str("path", h.ResourcePath).Msg("lock released")
	return nil
}

// WithLock runs fn while holding the lock on resource.
func (m *Manager) WithLock(ctx context.Context, resource string, timeout time.Duration, fn func() error) error {
	h, err := m.Acquire(ctx, resource, timeout)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := m.Release(h); relErr != nil {
			m.log.Warn().Err(relErr).Msg("release failed")
		}
	}()
	return fn()
}

// create makes the lock file exclusively and writes our PID into it.
func (m *Manager) create(lockPath string) error {
	f, err := openFileFn(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, core.PermFile)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(strconv.Itoa(m.pid))
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = removeFn(lockPath)
		return fmt.Errorf("failed to write lock owner: %w", werr)
	}
	return nil
}

type ownerState int

const (
	ownerAlive ownerState = iota
	ownerStale
	ownerGone
)

// inspect classifies the current holder of lockPath.
func (m *Manager) inspect(lockPath string) (int, ownerState) {
	data, err := readFileFn(lockPath)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, ownerGone
	}
	if err != nil {
		return 0, ownerAlive
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		// The owner has created the file but not written its PID yet.
		return 0, ownerAlive
	}
	pid, err := strconv.Atoi(content)
	if err != nil || pid <= 0 {
		return 0, ownerStale
	}
	if pid != m.pid && !m.checker.Alive(pid) {
		return pid, ownerStale
	}
	return pid, ownerAlive
}

// removeStale deletes a stale lock after confirming it still names the same
// dead owner, so a lock freshly taken by another process is not removed.
func (m *Manager) removeStale(lockPath string, owner int) error {
	current, err := readOwner(lockPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err == nil && current != owner {
		return nil
	}
	if err := removeFn(lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale lock %q: %w", lockPath, err)
	}
	return nil
}

// readOwner returns the PID stored in lockPath; content that is not a PID yields 0.
func readOwner(lockPath string) (int, error) {
	data, err := readFileFn(lockPath)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, nil
	}
	return pid, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
