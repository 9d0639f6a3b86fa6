package atomicfile

import (
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/indaco/versync/internal/backup"
)

type recordingTracker struct {
	temps   map[string]bool
	backups []*backup.Record
}

func newRecordingTracker() *recordingTracker {
	return &recordingTracker{temps: map[string]bool{}}
}

func (r *recordingTracker) TempFileCreated(p string)         { r.temps[p] = true }
func (r *recordingTracker) TempFileRemoved(p string)         { delete(r.temps, p) }
func (r *recordingTracker) BackupCreated(rec *backup.Record) { r.backups = append(r.backups, rec) }

func hashFile(t *testing.T, path string) [32]byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return sha256.Sum256(data)
}

func writeFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatal(err)
	}
}

func tempFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, _ := os.ReadDir(dir)
	var out []string
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") || strings.HasPrefix(e.Name(), ".versync-check-") {
			out = append(out, e.Name())
		}
	}
	return out
}

func TestWriteAtomic_ReplacesAndBacksUp(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "pubspec.yaml")
	writeFile(t, target, "version: 1.0.0\n", 0o640)

	tracker := newRecordingTracker()
	r := NewReplacer(backup.NewStore())
	rec, err := r.WriteAtomic(target, []byte("version: 1.0.1\n"), tracker)
	if err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}

	data, _ := os.ReadFile(target)
	if string(data) != "version: 1.0.1\n" {
		t.Errorf("content = %q", data)
	}
	if rec == nil || len(tracker.backups) != 1 {
		t.Fatalf("expected one backup, rec = %v, tracked = %d", rec, len(tracker.backups))
	}
	old, _ := os.ReadFile(rec.BackupPath)
	if string(old) != "version: 1.0.0\n" {
		t.Errorf("backup content = %q", old)
	}
	if len(tracker.temps) != 0 {
		t.Errorf("temp files still tracked: %v", tracker.temps)
	}
	if left := tempFiles(t, dir); len(left) != 0 {
		t.Errorf("temp files left behind: %v", left)
	}
	if runtime.GOOS != "windows" {
		info, _ := os.Stat(target)
		if info.Mode().Perm() != 0o640 {
			t.Errorf("mode = %v, want 0640", info.Mode().Perm())
		}
	}
}

func TestWriteAtomic_NewFileHasNoBackup(t *testing.T) {
	target := filepath.Join(t.TempDir(), "build_info.json")
	rec, err := NewReplacer(backup.NewStore()).WriteAtomic(target, []byte("{}\n"), nil)
	if err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	if rec != nil {
		t.Errorf("expected no backup for a new file, got %+v", rec)
	}
}

func TestWriteAtomic_BackupDir(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "README.md")
	writeFile(t, target, "# readme\n", 0o644)

	r := NewReplacer(backup.NewStore(), WithBackupDir("backups"), WithRetention(2))
	rec, err := r.WriteAtomic(target, []byte("# readme v2\n"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "backups"); filepath.Dir(rec.BackupPath) != want {
		t.Errorf("backup dir = %q, want %q", filepath.Dir(rec.BackupPath), want)
	}
}

func TestReplaceInPlace_FailureRestoresTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "CHANGELOG.md")
	writeFile(t, target, "# Changelog\n\n## [1.0.0] - 2024-01-01\n", 0o644)
	before := hashFile(t, target)

	orig := replaceFn
	t.Cleanup(func() { replaceFn = orig })
	replaceFn = func(source, destination string) error {
		// Simulate a half-written destination followed by an error.
		_ = os.WriteFile(destination, []byte("# Chan"), 0o644)
		return errors.New("disk full")
	}

	_, err := NewReplacer(backup.NewStore()).WriteAtomic(target, []byte("new content\n"), nil)
	if !errors.Is(err, ErrReplaceFailed) {
		t.Fatalf("expected ErrReplaceFailed, got %v", err)
	}
	var rerr *ReplaceError
	if !errors.As(err, &rerr) || rerr.Step != StepReplace || !rerr.Restored {
		t.Fatalf("unexpected error detail: %+v", rerr)
	}
	if after := hashFile(t, target); after != before {
		t.Error("target content changed after failed replace")
	}
	if left := tempFiles(t, dir); len(left) != 0 {
		t.Errorf("temp files left behind: %v", left)
	}
}

func TestReplaceInPlace_PostconditionRestoresTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "README.md")
	writeFile(t, target, "![version](https://img.shields.io/badge/version-1.0.0-blue)\n", 0o644)
	before := hashFile(t, target)

	orig := replaceFn
	t.Cleanup(func() { replaceFn = orig })
	replaceFn = func(source, destination string) error {
		_ = os.Remove(source)
		return os.WriteFile(destination, nil, 0o644)
	}

	_, err := NewReplacer(backup.NewStore()).WriteAtomic(target, []byte("x\n"), nil)
	var rerr *ReplaceError
	if !errors.As(err, &rerr) || rerr.Step != StepPostcondition {
		t.Fatalf("expected postcondition failure, got %v", err)
	}
	if after := hashFile(t, target); after != before {
		t.Error("target not restored after postcondition failure")
	}
}

func TestReplaceInPlace_BackupFailureLeavesTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "pubspec.yaml")
	writeFile(t, target, "version: 1.0.0\n", 0o644)
	before := hashFile(t, target)

	// A file where the backup directory should be makes backup creation fail.
	blocker := filepath.Join(dir, "backups")
	writeFile(t, blocker, "not a dir", 0o644)

	r := NewReplacer(backup.NewStore(), WithBackupDir(blocker))
	_, err := r.WriteAtomic(target, []byte("version: 2.0.0\n"), nil)
	var rerr *ReplaceError
	if !errors.As(err, &rerr) || rerr.Step != StepBackup {
		t.Fatalf("expected backup step failure, got %v", err)
	}
	if !errors.Is(err, backup.ErrBackupFailed) {
		t.Errorf("error should wrap ErrBackupFailed: %v", err)
	}
	if after := hashFile(t, target); after != before {
		t.Error("target modified despite backup failure")
	}
}

func TestReplaceInPlace_Preconditions(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	writeFile(t, empty, "", 0o644)
	source := filepath.Join(dir, "source")
	writeFile(t, source, "data", 0o644)

	r := NewReplacer(backup.NewStore())

	if _, err := r.ReplaceInPlace(empty, filepath.Join(dir, "t1"), nil); !errors.Is(err, ErrReplaceFailed) {
		t.Errorf("empty source: %v", err)
	}
	if _, err := r.ReplaceInPlace(filepath.Join(dir, "missing"), filepath.Join(dir, "t2"), nil); err == nil {
		t.Error("missing source should fail")
	}
	if _, err := r.ReplaceInPlace(source, filepath.Join(dir, "nodir", "t3"), nil); err == nil {
		t.Error("missing target directory should fail")
	}

	if runtime.GOOS == "windows" {
		return
	}
	readonly := filepath.Join(dir, "readonly.txt")
	writeFile(t, readonly, "locked", 0o444)
	_, err := r.ReplaceInPlace(source, readonly, nil)
	var rerr *ReplaceError
	if !errors.As(err, &rerr) || rerr.Step != StepPrecondition {
		t.Errorf("read-only target: %v", err)
	}
	if data, _ := os.ReadFile(readonly); string(data) != "locked" {
		t.Errorf("read-only target modified: %q", data)
	}
}
