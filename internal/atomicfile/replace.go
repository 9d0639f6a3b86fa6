// Package atomicfile replaces a file in one step: the current content is
// backed up, the new content is moved into place, and the result is
// checked. If anything fails after the backup, the backup is restored, so
// the target is either fully replaced or left as it was.
package atomicfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/indaco/versync/internal/backup"
	"github.com/indaco/versync/internal/core"
	"github.com/indaco/versync/internal/logging"
	"github.com/natefinch/atomic"
)

// ErrReplaceFailed is matched by every ReplaceError.
var ErrReplaceFailed = errors.New("atomic replace failed")

// Step names the phase of ReplaceInPlace that failed.
type Step string

const (
	StepPrecondition  Step = "precondition"
	StepBackup        Step = "backup"
	StepReplace       Step = "replace"
	StepPostcondition Step = "postcondition"
)

// ReplaceError reports a failed replacement and whether the target was restored.
type ReplaceError struct {
	Target   string
	Step     Step
	Restored bool
	Err      error
}

func (e *ReplaceError) Error() string {
	msg := fmt.Sprintf("replace %q failed at %s: %v", e.Target, e.Step, e.Err)
	if e.Restored {
		msg += " (restored from backup)"
	}
	return msg
}

func (e *ReplaceError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrReplaceFailed) true for any ReplaceError.
func (e *ReplaceError) Is(target error) bool {
	return target == ErrReplaceFailed
}

// Tracker is told about every temp file and backup a replacement creates.
type Tracker interface {
	TempFileCreated(path string)
	TempFileRemoved(path string)
	BackupCreated(rec *backup.Record)
}

// Function variables for testability.
var (
	replaceFn    = atomic.ReplaceFile
	statFn       = os.Stat
	openFn       = os.Open
	createTempFn = os.CreateTemp
	removeFn     = os.Remove
	chmodFn      = os.Chmod
	restoreFn    = backup.Restore
)

// Replacer performs backup-then-replace-then-verify on single files.
type Replacer struct {
	store     *backup.Store
	backupDir string
	retention int
	log       *logging.Logger
}

// Option configures a Replacer.
type Option func(*Replacer)

// WithBackupDir stores backups in dir instead of beside the target.
// A relative dir is resolved against the target's directory.
func WithBackupDir(dir string) Option {
	return func(r *Replacer) { r.backupDir = dir }
}

// WithRetention sets how many backups are kept per file.
func WithRetention(n int) Option {
	return func(r *Replacer) { r.retention = n }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Replacer) { r.log = logging.OrNop(l) }
}

// NewReplacer returns a Replacer that backs up through store.
func NewReplacer(store *backup.Store, opts ...Option) *Replacer {
	r := &Replacer{
		store:     store,
		retention: backup.DefaultRetention,
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReplaceInPlace moves tempSource over target. An existing target is backed
// up first and restored if the move or the postcondition check fails. The
// returned record is nil when target did not exist.
func (r *Replacer) ReplaceInPlace(tempSource, target string, tracker Tracker) (*backup.Record, error) {
	exists, err := checkPreconditions(tempSource, target)
	if err != nil {
		return nil, &ReplaceError{Target: target, Step: StepPrecondition, Err: err}
	}

	var rec *backup.Record
	if exists {
		rec, err = r.store.CreateTimestamped(target, ResolveBackupDir(r.backupDir, target), r.retention)
		if err != nil {
			return nil, &ReplaceError{Target: target, Step: StepBackup, Err: err}
		}
		if tracker != nil {
			tracker.BackupCreated(rec)
		}
	}

	fail := func(step Step, cause error) (*backup.Record, error) {
		rerr := &ReplaceError{Target: target, Step: step, Err: cause}
		if rec != nil {
			if err := restoreFn(rec.BackupPath, target); err != nil {
				r.log.Error().Str("path", target).Str("backup", rec.BackupPath).Err(err).Msg("restore failed")
				rerr.Err = errors.Join(cause, err)
			} else {
				rerr.Restored = true
				r.log.Warn().Str("path", target).Str("backup", rec.BackupPath).Msg("target restored from backup")
			}
		}
		return rec, rerr
	}

	if err := replaceFn(tempSource, target); err != nil {
		return fail(StepReplace, err)
	}
	if tracker != nil {
		tracker.TempFileRemoved(tempSource)
	}

	info, err := statFn(target)
	switch {
	case err != nil:
		return fail(StepPostcondition, err)
	case info.Size() == 0:
		return fail(StepPostcondition, fmt.Errorf("target is empty after replace"))
	}

	r.log.Debug().Str("path", target).Msg("file replaced")
	return rec, nil
}

// WriteAtomic writes data to a temp file beside target, gives it target's
// permissions, and replaces target with it via ReplaceInPlace.
func (r *Replacer) WriteAtomic(target string, data []byte, tracker Tracker) (*backup.Record, error) {
	dir := filepath.Dir(target)
	perm := core.PermFile
	if info, err := statFn(target); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := createTempFn(dir, "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return nil, &ReplaceError{Target: target, Step: StepPrecondition, Err: err}
	}
	tmpPath := tmp.Name()
	if tracker != nil {
		tracker.TempFileCreated(tmpPath)
	}
	cleanup := func() {
		if err := removeFn(tmpPath); err == nil || errors.Is(err, fs.ErrNotExist) {
			if tracker != nil {
				tracker.TempFileRemoved(tmpPath)
			}
		}
	}

	_, werr := tmp.Write(data)
	if werr == nil {
		werr = tmp.Sync()
	}
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = chmodFn(tmpPath, perm)
	}
	if werr != nil {
		cleanup()
		return nil, &ReplaceError{Target: target, Step: StepPrecondition, Err: werr}
	}

	rec, err := r.ReplaceInPlace(tmpPath, target, tracker)
	if err != nil {
		cleanup()
		return rec, err
	}
	return rec, nil
}

// ResolveBackupDir returns where backups of target are stored: beside the
// target when dir is empty, dir itself when absolute, else dir relative to
// the target's directory.
func ResolveBackupDir(dir, target string) string {
	if dir == "" {
		return filepath.Dir(target)
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(filepath.Dir(target), dir)
}

// checkPreconditions verifies the source is a readable non-empty file and
// that target can be written. It reports whether target exists.
func checkPreconditions(source, target string) (bool, error) {
	info, err := statFn(source)
	if err != nil {
		return false, fmt.Errorf("source: %w", err)
	}
	if info.IsDir() || info.Size() == 0 {
		return false, fmt.Errorf("source %q is empty or not a file", source)
	}
	f, err := openFn(source)
	if err != nil {
		return false, fmt.Errorf("source not readable: %w", err)
	}
	_ = f.Close()

	dir := filepath.Dir(target)
	dirInfo, err := statFn(dir)
	if err != nil {
		return false, fmt.Errorf("target directory: %w", err)
	}
	if !dirInfo.IsDir() {
		return false, fmt.Errorf("target directory %q is not a directory", dir)
	}
	if err := checkWritable(dir); err != nil {
		return false, fmt.Errorf("target directory %q not writable: %w", dir, err)
	}

	tInfo, err := statFn(target)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("target: %w", err)
	}
	if tInfo.Mode().Perm()&0o200 == 0 {
		return true, fmt.Errorf("target %q is read-only", target)
	}
	return true, nil
}

// checkWritable creates and removes a throwaway file in dir.
func checkWritable(dir string) error {
	f, err := createTempFn(dir, ".versync-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return removeFn(name)
}
