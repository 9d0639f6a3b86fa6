package gitinfo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func initRepo(t *testing.T) (string, *gogit.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	return dir, repo
}

func TestCommitHash(t *testing.T) {
	dir, repo := initRepo(t)

	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pubspec.yaml"), []byte("version: 1.0.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Add("pubspec.yaml"); err != nil {
		t.Fatalf("failed to add file: %v", err)
	}
	hash, err := w.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Dev", Email: "dev@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	sub := filepath.Join(dir, "lib")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := CommitHash(sub)
	if err != nil {
		t.Fatalf("CommitHash: %v", err)
	}
	if got != hash.String() {
		t.Errorf("CommitHash = %q, want %q", got, hash.String())
	}
}

func TestCommitHash_NoCommits(t *testing.T) {
	dir, _ := initRepo(t)
	if _, err := CommitHash(dir); !errors.Is(err, ErrNoHead) {
		t.Errorf("expected ErrNoHead, got %v", err)
	}
}

func TestCommitHash_NotARepository(t *testing.T) {
	orig := openFn
	t.Cleanup(func() { openFn = orig })
	openFn = func(string) (*gogit.Repository, error) {
		return nil, gogit.ErrRepositoryNotExists
	}

	if _, err := CommitHash(t.TempDir()); !errors.Is(err, ErrNotGitRepository) {
		t.Errorf("expected ErrNotGitRepository, got %v", err)
	}
}
