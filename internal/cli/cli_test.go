package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/indaco/versync/internal/config"
	"github.com/indaco/versync/internal/testutils"
)

func stubLoad(t *testing.T, fn func(string) (*config.Config, error)) {
	t.Helper()
	orig := config.LoadConfigFn
	config.LoadConfigFn = fn
	t.Cleanup(func() { config.LoadConfigFn = orig })
}

func projectConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	testutils.WriteTempManifest(t, dir, "1.2.3+202401010000")
	testutils.WriteTempFile(t, dir, "other/pubspec.yaml", "version: 4.5.6+202401010000\n")
	cfg := config.Default()
	cfg.Root = dir
	return cfg
}

func TestNew_LoadsConfigAndAppliesFlags(t *testing.T) {
	loaded := projectConfig(t)
	var gotPath string
	stubLoad(t, func(path string) (*config.Config, error) {
		gotPath = path
		return loaded, nil
	})

	cfg := &config.Config{}
	app := New(cfg, "1.0.0")
	output, err := testutils.CaptureStdout(func() {
		err := app.Run(context.Background(), []string{
			"versync", "--config", "custom.yaml", "--manifest", "other/pubspec.yaml", "--lock-timeout", "250ms", "get",
		})
		if err != nil {
			t.Errorf("run: %v", err)
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	if gotPath != "custom.yaml" {
		t.Errorf("config loaded from %q", gotPath)
	}
	if cfg.Manifest != "other/pubspec.yaml" {
		t.Errorf("Manifest = %q", cfg.Manifest)
	}
	if mt := cfg.ManifestTarget(); mt == nil || mt.Path != "other/pubspec.yaml" {
		t.Errorf("manifest target not redirected: %+v", mt)
	}
	if d, _ := cfg.LockTimeoutDuration(); d != 250*time.Millisecond {
		t.Errorf("lock timeout = %v", d)
	}
	if output != "4.5.6+202401010000\n" {
		t.Errorf("get printed %q", output)
	}
}

func TestNew_LoadError(t *testing.T) {
	stubLoad(t, func(string) (*config.Config, error) {
		return nil, errors.New("invalid configuration")
	})

	err := New(&config.Config{}, "dev").Run(context.Background(), []string{"versync", "get"})
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestNew_RejectsNonPositiveLockTimeout(t *testing.T) {
	loaded := projectConfig(t)
	stubLoad(t, func(string) (*config.Config, error) { return loaded, nil })

	err := New(&config.Config{}, "dev").Run(context.Background(), []string{"versync", "--lock-timeout", "0s", "get"})
	if err == nil || !strings.Contains(err.Error(), "must be positive") {
		t.Fatalf("expected lock timeout error, got %v", err)
	}
}

func TestNew_InitSkipsConfigLoad(t *testing.T) {
	stubLoad(t, func(string) (*config.Config, error) {
		t.Error("init must not load the config")
		return nil, errors.New("unexpected")
	})
	dir := t.TempDir()
	testutils.WriteTempManifest(t, dir, "1.0.0+202401010000")
	t.Chdir(dir)

	_, err := testutils.CaptureStdout(func() {
		if err := New(&config.Config{}, "dev").Run(context.Background(), []string{"versync", "init", "--yes"}); err != nil {
			t.Errorf("init: %v", err)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := testutils.ReadTempFile(t, dir, config.DefaultFile); !strings.Contains(got, "manifest: pubspec.yaml") {
		t.Errorf("config = %q", got)
	}
}

func TestNew_Commands(t *testing.T) {
	app := New(&config.Config{}, "dev")
	want := []string{
		"init", "get", "get-semantic", "get-build", "info",
		"validate", "increment", "prepare", "set", "backups",
	}
	for _, name := range want {
		if app.Command(name) == nil {
			t.Errorf("missing command %q", name)
		}
	}
}

func TestNew_Help(t *testing.T) {
	loaded := projectConfig(t)
	stubLoad(t, func(string) (*config.Config, error) { return loaded, nil })

	output, err := testutils.CaptureStdout(func() {
		if err := New(&config.Config{}, "dev").Run(context.Background(), []string{"versync", "help"}); err != nil {
			t.Errorf("help: %v", err)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"versync", "increment", "get-semantic", "--lock-timeout"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q:\n%s", want, output)
		}
	}
}
