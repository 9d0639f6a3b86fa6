package operations

import (
	"errors"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/indaco/versync/internal/backup"
	"github.com/indaco/versync/internal/logging"
)

var removeTempFn = os.Remove

// Transaction records what one command invocation did to the filesystem.
// It is created per invocation and discarded when the command returns.
type Transaction struct {
	ID        string
	StartedAt time.Time

	Backups []*backup.Record
	// Updated, Unchanged and Skipped hold target names; Touched holds the
	// paths of every file that was processed, changed or not.
	Updated   []string
	Unchanged []string
	Skipped   []string
	Touched   []string
	Warnings  []string
	Failures  []*FileError

	temps map[string]struct{}
}

// NewTransaction returns an empty transaction with a random ID.
func NewTransaction() *Transaction {
	return &Transaction{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		temps:     make(map[string]struct{}),
	}
}

// TempFileCreated implements atomicfile.Tracker.
func (t *Transaction) TempFileCreated(path string) {
	t.temps[path] = struct{}{}
}

// TempFileRemoved implements atomicfile.Tracker.
func (t *Transaction) TempFileRemoved(path string) {
	delete(t.temps, path)
}

// BackupCreated implements atomicfile.Tracker.
func (t *Transaction) BackupCreated(rec *backup.Record) {
	t.Backups = append(t.Backups, rec)
}

// Warn records a non-fatal problem.
func (t *Transaction) Warn(msg string) {
	t.Warnings = append(t.Warnings, msg)
}

// Fail records a per-file failure.
func (t *Transaction) Fail(err *FileError) {
	t.Failures = append(t.Failures, err)
}

// TempFiles returns temp files created and not yet removed, sorted.
func (t *Transaction) TempFiles() []string {
	out := make([]string, 0, len(t.temps))
	for p := range t.temps {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Cleanup removes temp files left behind by an interrupted replacement.
func (t *Transaction) Cleanup(log *logging.Logger) {
	for _, p := range t.TempFiles() {
		if err := removeTempFn(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("path", p).Err(err).Msg("could not remove temp file")
			continue
		}
		log.Debug().Str("path", p).Msg("temp file removed")
		t.TempFileRemoved(p)
	}
}
