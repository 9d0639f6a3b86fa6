package operations

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/indaco/versync/internal/atomicfile"
	"github.com/indaco/versync/internal/config"
	"github.com/indaco/versync/internal/core"
	"github.com/indaco/versync/internal/lock"
	"github.com/indaco/versync/internal/logging"
	"github.com/indaco/versync/internal/textenc"
	"github.com/indaco/versync/internal/updater"
)

// Outcome is what happened to one target file.
type Outcome int

const (
	OutcomeUpdated Outcome = iota
	OutcomeUnchanged
	OutcomeMissing
	OutcomeNoBadge
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpdated:
		return "updated"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeMissing:
		return "missing"
	case OutcomeNoBadge:
		return "no badge"
	default:
		return "unknown"
	}
}

// FileUpdater runs the locked, backed-up, encoding-preserving update of a
// single target file.
type FileUpdater struct {
	cfg         *config.Config
	fs          core.FileSystem
	locks       *lock.Manager
	replacer    *atomicfile.Replacer
	registry    *updater.Registry
	lockTimeout time.Duration
	log         *logging.Logger
}

// Resolver returns the values to render, given the normalized content read
// while the file's lock is held.
type Resolver func(content []byte) (updater.Values, error)

func fixedValues(v updater.Values) Resolver {
	return func([]byte) (updater.Values, error) { return v, nil }
}

// Apply updates the file described by t with the values resolve returns
// for its current content. A missing file returns OutcomeMissing and no
// error; the caller decides whether that is fatal. Any other failure is a
// *FileError.
func (f *FileUpdater) Apply(ctx context.Context, t config.TargetFile, resolve Resolver, txn *Transaction) (Outcome, error) {
	path := f.cfg.Resolve(t.Path)
	fail := func(err error) (Outcome, error) {
		return 0, &FileError{Name: t.Name, Path: path, Required: t.Required, Err: err}
	}

	u, err := f.registry.New(t.Kind, f.cfg.UpdaterTarget(t))
	if err != nil {
		return fail(err)
	}

	original, err := f.fs.ReadFile(ctx, path)
	if errors.Is(err, fs.ErrNotExist) {
		return OutcomeMissing, nil
	}
	if err != nil {
		return fail(err)
	}
	if err := textenc.ValidateUTF8(original); err != nil {
		return fail(err)
	}

	h, err := f.locks.Acquire(ctx, path, f.lockTimeout)
	if err != nil {
		return fail(err)
	}
	defer func() {
		if err := f.locks.Release(h); err != nil {
			f.log.Warn().Str("path", path).Err(err).Msg("lock release failed")
		}
	}()

	// Re-read under the lock; another process may have written while we waited.
	data, err := f.fs.ReadFile(ctx, path)
	if err != nil {
		return fail(err)
	}
	if !bytes.Equal(data, original) {
		if err := textenc.ValidateUTF8(data); err != nil {
			return fail(err)
		}
	}

	chars := textenc.Detect(data)
	normalized := textenc.Normalize(data)

	v, err := resolve(normalized)
	if err != nil {
		return fail(err)
	}
	rendered, err := u.Render(normalized, v)
	if errors.Is(err, updater.ErrNoBadge) {
		return OutcomeNoBadge, nil
	}
	if err != nil {
		return fail(fmt.Errorf("%s: %w", u.Name(), err))
	}
	if bytes.Equal(rendered, normalized) {
		return OutcomeUnchanged, nil
	}

	if _, err := textenc.WriteFile(f.replacer, path, rendered, chars, txn); err != nil {
		return fail(err)
	}
	f.log.Debug().Str("target", t.Name).Str("path", path).Msg("file updated")
	return OutcomeUpdated, nil
}
