// Package backup creates verified, timestamped copies of files before they
// are mutated, rotates old copies per file, and restores them on failure.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/indaco/versync/internal/core"
	"github.com/indaco/versync/internal/logging"
)

const (
	// Marker separates the source base name from the timestamp in backup names.
	Marker = ".backup."

	// TimestampLayout is the timestamp suffix of backup file names.
	TimestampLayout = "20060102-150405.000000"

	// DefaultRetention is how many backups are kept per base file name.
	DefaultRetention = 10
)

// Function variables for testability.
var (
	openFn     = os.Open
	openFileFn = os.OpenFile
	copyFn     = io.Copy
	statFn     = os.Stat
	removeFn   = os.Remove
	readDirFn  = os.ReadDir
	mkdirAllFn = os.MkdirAll
)

// Record describes one backup copy.
type Record struct {
	SourcePath string
	BackupPath string
	Size       int64
	Checksum   string
	CreatedAt  time.Time
}

// Store creates and rotates backups.
type Store struct {
	verifyChecksum bool
	now            func() time.Time
	log            *logging.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithChecksum toggles SHA-256 verification of new backups. Size is always checked.
func WithChecksum(enabled bool) Option {
	return func(s *Store) { s.verifyChecksum = enabled }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) { s.log = logging.OrNop(l) }
}

// WithClock overrides the time source used for backup names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns a Store that verifies checksums.
func NewStore(opts ...Option) *Store {
	s := &Store{
		verifyChecksum: true,
		now:            time.Now,
		log:            logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTimestamped copies src to dir/<base>.backup.<timestamp> and verifies
// the copy. An empty dir places the backup beside src. On any failure the
// partial copy is deleted. After success, backups of the same base name
// beyond maxRetained are removed; maxRetained <= 0 means DefaultRetention.
func (s *Store) CreateTimestamped(src, dir string, maxRetained int) (*Record, error) {
	if dir == "" {
		dir = filepath.Dir(src)
	}
	if err := mkdirAllFn(dir, core.PermDir); err != nil {
		return nil, fmt.Errorf("%w: create backup dir %q: %w", ErrBackupFailed, dir, err)
	}

	base := filepath.Base(src)
	createdAt := s.now()
	dst, err := s.copyExclusive(src, dir, base, createdAt)
	if err != nil {
		return nil, err
	}

	sum, err := s.verify(src, dst)
	if err != nil {
		_ = removeFn(dst)
		return nil, err
	}

	info, err := statFn(dst)
	if err != nil {
		_ = removeFn(dst)
		return nil, fmt.Errorf("%w: stat %q: %w", ErrBackupFailed, dst, err)
	}

	rec := &Record{
		SourcePath: src,
		BackupPath: dst,
		Size:       info.Size(),
		Checksum:   sum,
		CreatedAt:  createdAt,
	}
	s.log.Debug().Str("source", src).Str("backup", dst).Int64("size", rec.Size).Msg("backup created")

	if _, err := s.Rotate(dir, base, maxRetained); err != nil {
		s.log.Warn().Str("dir", dir).Err(err).Msg("backup rotation failed")
	}
	return rec, nil
}

// copyExclusive copies src into a fresh backup name, adding a counter when
// two backups land on the same timestamp.
func (s *Store) copyExclusive(src, dir, base string, at time.Time) (string, error) {
	stamp := at.Format(TimestampLayout)
	for attempt := 0; attempt < 100; attempt++ {
		name := base + Marker + stamp
		if attempt > 0 {
			name = fmt.Sprintf("%s-%d", name, attempt)
		}
		dst := filepath.Join(dir, name)

		err := copyFile(src, dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: copy %q to %q: %w", ErrBackupFailed, src, dst, err)
		}
		return dst, nil
	}
	return "", fmt.Errorf("%w: no free backup name for %q", ErrBackupFailed, src)
}

// verify compares size and, when enabled, checksum of src and dst. It
// returns the backup's checksum.
func (s *Store) verify(src, dst string) (string, error) {
	srcInfo, err := statFn(src)
	if err != nil {
		return "", fmt.Errorf("%w: stat %q: %w", ErrBackupFailed, src, err)
	}
	dstInfo, err := statFn(dst)
	if err != nil {
		return "", fmt.Errorf("%w: stat %q: %w", ErrBackupFailed, dst, err)
	}
	if srcInfo.Size() != dstInfo.Size() {
		return "", &IntegrityError{
			Source: src,
			Backup: dst,
			Reason: fmt.Sprintf("size %d != %d", dstInfo.Size(), srcInfo.Size()),
		}
	}

	dstSum, err := Checksum(dst)
	if err != nil {
		return "", fmt.Errorf("%w: checksum %q: %w", ErrBackupFailed, dst, err)
	}
	if !s.verifyChecksum {
		return dstSum, nil
	}
	srcSum, err := Checksum(src)
	if err != nil {
		return "", fmt.Errorf("%w: checksum %q: %w", ErrBackupFailed, src, err)
	}
	if srcSum != dstSum {
		return "", &IntegrityError{Source: src, Backup: dst, Reason: "sha256 mismatch"}
	}
	return dstSum, nil
}

// VerifyIntegrity reports whether backup matches original by size, then by SHA-256.
func VerifyIntegrity(original, backup string) (bool, error) {
	oInfo, err := statFn(original)
	if err != nil {
		return false, err
	}
	bInfo, err := statFn(backup)
	if err != nil {
		return false, err
	}
	if oInfo.Size() != bInfo.Size() {
		return false, nil
	}
	oSum, err := Checksum(original)
	if err != nil {
		return false, err
	}
	bSum, err := Checksum(backup)
	if err != nil {
		return false, err
	}
	return oSum == bSum, nil
}

// Restore overwrites target with the content of backup.
func Restore(backup, target string) error {
	if err := copyFile(backup, target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC); err != nil {
		return fmt.Errorf("restore %q from %q: %w", target, backup, err)
	}
	return nil
}

// Rotate deletes the oldest backups of base in dir so at most maxRetained
// remain, ordered newest-first by modification time. Other files' backups
// are never counted. It returns the removed paths.
func (s *Store) Rotate(dir, base string, maxRetained int) ([]string, error) {
	if maxRetained <= 0 {
		maxRetained = DefaultRetention
	}
	records, err := List(dir, base)
	if err != nil {
		return nil, err
	}
	if len(records) <= maxRetained {
		return nil, nil
	}

	var removed []string
	for _, r := range records[maxRetained:] {
		if err := removeFn(r.BackupPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove old backup %q: %w", r.BackupPath, err)
		}
		removed = append(removed, r.BackupPath)
		s.log.Debug().Str("backup", r.BackupPath).Msg("old backup rotated out")
	}
	return removed, nil
}

// List returns the backups of base in dir, newest first. Checksums are not computed.
func List(dir, base string) ([]Record, error) {
	entries, err := readDirFn(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	prefix := base + Marker
	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		records = append(records, Record{
			SourcePath: base,
			BackupPath: filepath.Join(dir, entry.Name()),
			Size:       info.Size(),
			CreatedAt:  info.ModTime(),
		})
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].BackupPath > records[j].BackupPath
	})
	return records, nil
}

// Checksum returns the hex SHA-256 of the file at path.
func Checksum(path string) (string, error) {
	f, err := openFn(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// copyFile copies src to dst opened with flag; a failed copy removes dst
// unless dst already existed.
func copyFile(src, dst string, flag int) error {
	in, err := openFn(src)
	if err != nil {
		return err
	}
	defer in.Close()

	perm := core.PermFile
	if info, err := in.Stat(); err == nil {
		perm = info.Mode().Perm()
	}

	out, err := openFileFn(dst, flag, perm)
	if err != nil {
		return err
	}

	_, copyErr := copyFn(out, in)
	closeErr := out.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil && flag&os.O_EXCL != 0 {
		_ = removeFn(dst)
	}
	return copyErr
}
