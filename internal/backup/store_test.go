package backup

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// steppingClock returns a clock that advances one second per call.
func steppingClock() func() time.Time {
	t := time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func listBackups(t *testing.T, dir, base string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), base+Marker) {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestCreateTimestamped(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "pubspec.yaml")
	writeFile(t, src, "version: 1.2.3+202401010000\n")

	s := NewStore(WithClock(func() time.Time {
		return time.Date(2024, 5, 6, 7, 8, 9, 123456000, time.Local)
	}))
	rec, err := s.CreateTimestamped(src, "", 10)
	if err != nil {
		t.Fatalf("CreateTimestamped: %v", err)
	}

	wantPath := filepath.Join(dir, "pubspec.yaml.backup.20240506-070809.123456")
	if rec.BackupPath != wantPath {
		t.Errorf("BackupPath = %q, want %q", rec.BackupPath, wantPath)
	}
	if rec.Size != int64(len("version: 1.2.3+202401010000\n")) {
		t.Errorf("Size = %d", rec.Size)
	}
	if len(rec.Checksum) != 64 {
		t.Errorf("Checksum = %q, want hex sha256", rec.Checksum)
	}

	ok, err := VerifyIntegrity(src, rec.BackupPath)
	if err != nil || !ok {
		t.Errorf("VerifyIntegrity = %v, %v", ok, err)
	}
}

func TestCreateTimestamped_SeparateDirAndCollision(t *testing.T) {
	dir := t.TempDir()
	backups := filepath.Join(dir, "backups")
	src := filepath.Join(dir, "README.md")
	writeFile(t, src, "# readme\n")

	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	s := NewStore(WithClock(func() time.Time { return fixed }))

	first, err := s.CreateTimestamped(src, backups, 10)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.CreateTimestamped(src, backups, 10)
	if err != nil {
		t.Fatal(err)
	}
	if first.BackupPath == second.BackupPath {
		t.Fatal("backups with the same timestamp must not overwrite each other")
	}
	if filepath.Dir(first.BackupPath) != backups {
		t.Errorf("backup placed in %q, want %q", filepath.Dir(first.BackupPath), backups)
	}
}

func TestCreateTimestamped_RetentionPerBaseName(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "pubspec.yaml")
	readme := filepath.Join(dir, "README.md")
	writeFile(t, manifest, "version: 1.0.0\n")
	writeFile(t, readme, "# readme\n")

	s := NewStore(WithClock(steppingClock()))

	if _, err := s.CreateTimestamped(readme, "", 3); err != nil {
		t.Fatal(err)
	}
	var last *Record
	for i := 0; i < 5; i++ {
		rec, err := s.CreateTimestamped(manifest, "", 3)
		if err != nil {
			t.Fatal(err)
		}
		last = rec
	}

	got := listBackups(t, dir, "pubspec.yaml")
	if len(got) != 3 {
		t.Fatalf("kept %d manifest backups, want 3: %v", len(got), got)
	}
	if _, err := os.Stat(last.BackupPath); err != nil {
		t.Errorf("newest backup was rotated out: %v", err)
	}
	if n := len(listBackups(t, dir, "README.md")); n != 1 {
		t.Errorf("README backups = %d, want 1 (retention is per file)", n)
	}
}

func TestCreateTimestamped_SizeMismatchLeavesNoBackup(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "build_info.json")
	writeFile(t, src, `{"version": "1.2.3"}`)

	orig := copyFn
	t.Cleanup(func() { copyFn = orig })
	copyFn = func(dst io.Writer, src io.Reader) (int64, error) {
		data, _ := io.ReadAll(src)
		n, err := dst.Write(data[:len(data)/2])
		return int64(n), err
	}

	_, err := NewStore().CreateTimestamped(src, "", 10)
	if !errors.Is(err, ErrIntegrityMismatch) || !errors.Is(err, ErrBackupFailed) {
		t.Fatalf("expected integrity failure, got %v", err)
	}
	if left := listBackups(t, dir, "build_info.json"); len(left) != 0 {
		t.Errorf("truncated backup left behind: %v", left)
	}
}

func TestCreateTimestamped_ChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "CHANGELOG.md")
	writeFile(t, src, "# Changelog\n")

	orig := copyFn
	t.Cleanup(func() { copyFn = orig })
	copyFn = func(dst io.Writer, src io.Reader) (int64, error) {
		data, _ := io.ReadAll(src)
		n, err := dst.Write(bytes.ToUpper(data))
		return int64(n), err
	}

	_, err := NewStore().CreateTimestamped(src, "", 10)
	if !errors.Is(err, ErrIntegrityMismatch) {
		t.Fatalf("expected ErrIntegrityMismatch, got %v", err)
	}
	if left := listBackups(t, dir, "CHANGELOG.md"); len(left) != 0 {
		t.Errorf("corrupt backup left behind: %v", left)
	}

	// Without checksum verification only the size is compared.
	rec, err := NewStore(WithChecksum(false)).CreateTimestamped(src, "", 10)
	if err != nil {
		t.Fatalf("size-only verification should pass: %v", err)
	}
	if rec.Checksum == "" {
		t.Error("record checksum should still be populated")
	}
}

func TestCreateTimestamped_MissingSource(t *testing.T) {
	_, err := NewStore().CreateTimestamped(filepath.Join(t.TempDir(), "nope"), "", 10)
	if !errors.Is(err, ErrBackupFailed) {
		t.Fatalf("expected ErrBackupFailed, got %v", err)
	}
}

func TestRestore(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "pubspec.yaml")
	writeFile(t, target, "version: 1.0.0\n")

	rec, err := NewStore().CreateTimestamped(target, "", 10)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, target, "garbage")

	if err := Restore(rec.BackupPath, target); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	data, _ := os.ReadFile(target)
	if string(data) != "version: 1.0.0\n" {
		t.Errorf("restored content = %q", data)
	}
}

func TestVerifyIntegrity(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	c := filepath.Join(dir, "c")
	writeFile(t, a, "same")
	writeFile(t, b, "same")
	writeFile(t, c, "diff")

	if ok, err := VerifyIntegrity(a, b); err != nil || !ok {
		t.Errorf("identical files: %v, %v", ok, err)
	}
	if ok, err := VerifyIntegrity(a, c); err != nil || ok {
		t.Errorf("different content: %v, %v", ok, err)
	}
	if _, err := VerifyIntegrity(a, filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing backup")
	}
}

func TestList_MissingDir(t *testing.T) {
	recs, err := List(filepath.Join(t.TempDir(), "none"), "x")
	if err != nil || recs != nil {
		t.Errorf("List on missing dir = %v, %v", recs, err)
	}
}
