// Package core holds the small primitives every other package builds on:
// the filesystem abstraction, permission constants, and process identity.
package core

import (
	"context"
	"os"
)

// FileMode is an alias for os.FileMode so callers do not need to import os
// just to pass permissions around.
type FileMode = os.FileMode

const (
	// PermOwnerRW is owner read/write only.
	PermOwnerRW FileMode = 0o600

	// PermFile is the default mode for files versync creates next to user content.
	PermFile FileMode = 0o644

	// PermDir is the default mode for directories versync creates.
	PermDir FileMode = 0o755
)

// FileSystem abstracts the reads done before a file is locked or replaced.
// Writes go through atomicfile. Every call honours context cancellation.
type FileSystem interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Stat(ctx context.Context, path string) (os.FileInfo, error)
}

// OSFileSystem implements FileSystem on top of the os package.
type OSFileSystem struct{}

// NewOSFileSystem returns the production filesystem.
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

// Verify OSFileSystem implements FileSystem.
var _ FileSystem = (*OSFileSystem)(nil)

func (OSFileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (OSFileSystem) Stat(ctx context.Context, path string) (os.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Stat(path)
}
