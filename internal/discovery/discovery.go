package discovery

import (
	"context"
	"errors"
	"io/fs"

	"github.com/indaco/versync/internal/config"
	"github.com/indaco/versync/internal/core"
	"github.com/indaco/versync/internal/textenc"
	"github.com/indaco/versync/internal/updater"
)

// Scanner reads target versions without taking locks or writing anything.
type Scanner struct {
	fs       core.FileSystem
	registry *updater.Registry
}

// NewScanner returns a Scanner reading through fs.
func NewScanner(fs core.FileSystem) *Scanner {
	return &Scanner{fs: fs, registry: updater.NewRegistry(nil)}
}

// Scan returns one Source per configured target, in configuration order.
func (s *Scanner) Scan(ctx context.Context, cfg *config.Config) []Source {
	sources := make([]Source, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		sources = append(sources, s.scanTarget(ctx, cfg, t))
	}
	return sources
}

func (s *Scanner) scanTarget(ctx context.Context, cfg *config.Config, t config.TargetFile) Source {
	src := Source{Name: t.Name, Path: t.Path, Kind: t.Kind}

	data, err := s.fs.ReadFile(ctx, cfg.Resolve(t.Path))
	if errors.Is(err, fs.ErrNotExist) {
		return src
	}
	src.Exists = true
	if err != nil {
		src.Err = err
		return src
	}

	u, err := s.registry.New(t.Kind, cfg.UpdaterTarget(t))
	if err != nil {
		src.Err = err
		return src
	}
	if v, ok := updater.Current(u, textenc.Normalize(data)); ok {
		src.Version = v
	}
	return src
}
