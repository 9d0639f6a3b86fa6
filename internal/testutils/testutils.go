// Package testutils provides helpers shared by the CLI command tests.
package testutils

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v3"
)

// CaptureStdout runs fn with os.Stdout redirected and returns what it wrote.
func CaptureStdout(fn func()) (string, error) {
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		return "", err
	}
	os.Stdout = w

	done := make(chan struct{})
	var buf bytes.Buffer
	var copyErr error
	go func() {
		_, copyErr = io.Copy(&buf, r)
		close(done)
	}()

	defer func() { os.Stdout = old }()
	fn()

	_ = w.Close()
	<-done
	_ = r.Close()
	return buf.String(), copyErr
}

// BuildCLIForTests wraps commands in a root command carrying the global
// flags the commands read.
func BuildCLIForTests(commands []*cli.Command) *cli.Command {
	return &cli.Command{
		Name: "versync",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose"},
			&cli.BoolFlag{Name: "no-color"},
		},
		Commands: commands,
	}
}

// RunCLITest runs args from workdir and fails the test on error.
func RunCLITest(t *testing.T, app *cli.Command, args []string, workdir string) {
	t.Helper()
	if err := RunCLITestAllowError(t, app, args, workdir); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
}

// RunCLITestAllowError runs args from workdir and returns the error.
func RunCLITestAllowError(t *testing.T, app *cli.Command, args []string, workdir string) error {
	t.Helper()
	if workdir != "" {
		t.Chdir(workdir)
	}
	return app.Run(context.Background(), args)
}

// WriteTempFile writes content to dir/rel, creating parent directories.
func WriteTempFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ReadTempFile returns the content of dir/rel.
func ReadTempFile(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, rel))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// WriteTempManifest writes a pubspec.yaml with version into dir.
func WriteTempManifest(t *testing.T, dir, version string) string {
	t.Helper()
	return WriteTempFile(t, dir, "pubspec.yaml", "name: app\nversion: "+version+"\n")
}
