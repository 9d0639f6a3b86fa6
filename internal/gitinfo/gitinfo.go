// Package gitinfo looks up repository facts recorded in build metadata.
package gitinfo

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
)

var (
	// ErrNotGitRepository is returned when no repository encloses the path.
	ErrNotGitRepository = errors.New("not a git repository")

	// ErrNoHead is returned for a repository without commits.
	ErrNoHead = errors.New("repository has no HEAD reference")
)

// openFn is a function variable for testability.
var openFn = func(path string) (*gogit.Repository, error) {
	return gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
}

// CommitHash returns the full hash of HEAD for the repository containing dir.
func CommitHash(dir string) (string, error) {
	repo, err := openFn(dir)
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return "", ErrNotGitRepository
	}
	if err != nil {
		return "", fmt.Errorf("open repository at %q: %w", dir, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoHead, err)
	}
	return head.Hash().String(), nil
}

// Lookup resolves a commit hash for a directory. Tests and callers without
// git access substitute their own.
type Lookup func(dir string) (string, error)

// Default is the go-git backed Lookup.
var Default Lookup = CommitHash
