package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/indaco/versync/internal/cli"
	"github.com/indaco/versync/internal/config"
	"github.com/indaco/versync/internal/printer"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := runCLI(os.Args); err != nil {
		printer.PrintFailure(err)
		os.Exit(1)
	}
}

// runCLI runs the CLI with a context canceled on SIGINT/SIGTERM, so lock
// waits stop and in-flight temp files are cleaned up.
func runCLI(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &config.Config{}
	return cli.New(cfg, version).Run(ctx, args)
}
