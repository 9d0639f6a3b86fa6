package discovery

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/indaco/versync/internal/config"
	"github.com/indaco/versync/internal/core"
)

func newProject(t *testing.T, files map[string]string) (*core.MockFileSystem, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Root = "/proj"
	mock := core.NewMockFileSystem()
	for rel, content := range files {
		mock.SetFile(filepath.Join(cfg.Root, rel), []byte(content))
	}
	return mock, cfg
}

func TestScanner_Scan(t *testing.T) {
	mock, cfg := newProject(t, map[string]string{
		"pubspec.yaml":                 "name: app\nversion: 1.2.3+202401010000\n",
		"lib/config/app_config.dart":   "class AppConfig {\n  static const String appVersion = '1.2.3';\n  static const int buildNumber = 202401010000;\n}\n",
		"packages/shared/pubspec.yaml": "name: shared\nversion: 1.2.2\n",
		"assets/build_info.json":       `{"version": "1.2.3", "build_number": 202401010000}`,
		"README.md":                    "![version](https://img.shields.io/badge/version-1.2.3-blue)\n",
		"package.json":                 `{"name": "app", "version": 1}`,
		"CHANGELOG.md":                 "# Changelog\n\n## [1.2.3] - 2024-01-01\n\n- Version 1.2.3\n",
	})

	sources := NewScanner(mock).Scan(context.Background(), cfg)
	if len(sources) != len(cfg.Targets) {
		t.Fatalf("got %d sources, want %d", len(sources), len(cfg.Targets))
	}

	want := map[string]struct {
		exists  bool
		version string
	}{
		"manifest":        {true, "1.2.3+202401010000"},
		"app-config":      {true, "1.2.3"},
		"shared-version":  {false, ""},
		"shared-manifest": {true, "1.2.2"},
		"build-info":      {true, "1.2.3"},
		"readme-badge":    {true, "1.2.3"},
		"package-json":    {true, ""},
		"changelog":       {true, "1.2.3"},
	}
	for i, s := range sources {
		if s.Name != cfg.Targets[i].Name {
			t.Errorf("source %d is %q, want configuration order %q", i, s.Name, cfg.Targets[i].Name)
		}
		w, ok := want[s.Name]
		if !ok {
			t.Errorf("unexpected source %q", s.Name)
			continue
		}
		if s.Exists != w.exists || s.Version != w.version {
			t.Errorf("%s: got exists=%v version=%q, want exists=%v version=%q",
				s.Name, s.Exists, s.Version, w.exists, w.version)
		}
		if s.Err != nil {
			t.Errorf("%s: unexpected error %v", s.Name, s.Err)
		}
	}
}

func TestScanner_ReadError(t *testing.T) {
	mock, cfg := newProject(t, nil)
	cfg.Targets = cfg.Targets[:1]
	readErr := errors.New("permission denied")
	mock.ReadErr = readErr

	sources := NewScanner(mock).Scan(context.Background(), cfg)
	if len(sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(sources))
	}
	if !sources[0].Exists || !errors.Is(sources[0].Err, readErr) {
		t.Errorf("got %+v, want existing source carrying the read error", sources[0])
	}
}

func TestScanner_UnknownKind(t *testing.T) {
	mock, cfg := newProject(t, map[string]string{"VERSION": "1.2.3\n"})
	cfg.Targets = []config.TargetFile{{Name: "plain", Path: "VERSION", Kind: "nope"}}

	sources := NewScanner(mock).Scan(context.Background(), cfg)
	if sources[0].Err == nil {
		t.Error("expected an error for an unknown kind")
	}
	if sources[0].Version != "" {
		t.Errorf("version = %q, want empty", sources[0].Version)
	}
}
