// Package cli assembles the versync root command.
package cli

import (
	"context"
	"fmt"

	"github.com/indaco/versync/cmd/versync/initcmd"
	"github.com/indaco/versync/internal/commands/backups"
	"github.com/indaco/versync/internal/commands/bump"
	"github.com/indaco/versync/internal/commands/set"
	"github.com/indaco/versync/internal/commands/show"
	"github.com/indaco/versync/internal/commands/validate"
	"github.com/indaco/versync/internal/config"
	"github.com/indaco/versync/internal/printer"
	urfavecli "github.com/urfave/cli/v3"
)

// New builds the root command. cfg is filled from the config file in the
// Before hook, then adjusted by the global flags, so every subcommand sees
// the final configuration through the same pointer.
func New(cfg *config.Config, version string) *urfavecli.Command {
	commands := []*urfavecli.Command{initcmd.Run()}
	commands = append(commands, show.Commands(cfg)...)
	commands = append(commands,
		validate.Run(cfg),
		bump.Increment(cfg),
		bump.Prepare(cfg),
		set.Run(cfg),
		backups.Run(cfg),
	)

	return &urfavecli.Command{
		Name:                  "versync",
		Version:               version,
		Usage:                 "Keep one version in sync across every file of a project",
		EnableShellCompletion: true,
		Flags: []urfavecli.Flag{
			&urfavecli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the config file",
				Value:   config.DefaultFile,
			},
			&urfavecli.StringFlag{
				Name:    "manifest",
				Aliases: []string{"m"},
				Usage:   "Path to the canonical manifest (overrides config and " + config.EnvManifest + ")",
			},
			&urfavecli.DurationFlag{
				Name:  "lock-timeout",
				Usage: "How long to wait for a file lock",
			},
			&urfavecli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&urfavecli.BoolFlag{
				Name:  "verbose",
				Usage: "Log diagnostics to stderr",
			},
		},
		Before: func(ctx context.Context, cmd *urfavecli.Command) (context.Context, error) {
			printer.SetNoColor(cmd.Bool("no-color"))
			if cmd.Args().First() == "init" {
				return ctx, nil
			}
			return ctx, load(cmd, cfg)
		},
		Commands: commands,
	}
}

func load(cmd *urfavecli.Command, cfg *config.Config) error {
	loaded, err := config.LoadConfigFn(cmd.String("config"))
	if err != nil {
		return err
	}
	*cfg = *loaded

	if m := cmd.String("manifest"); m != "" {
		cfg.SetManifest(m)
	}
	if cmd.IsSet("lock-timeout") {
		d := cmd.Duration("lock-timeout")
		if d <= 0 {
			return fmt.Errorf("--lock-timeout must be positive, got %s", d)
		}
		cfg.LockTimeout = d.String()
	}
	return nil
}
