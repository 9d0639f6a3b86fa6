// Package backups implements the backups command, which lists the
// retained backup copies of each target file.
package backups

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/indaco/versync/internal/atomicfile"
	"github.com/indaco/versync/internal/backup"
	"github.com/indaco/versync/internal/config"
	"github.com/indaco/versync/internal/printer"
	"github.com/urfave/cli/v3"
)

// Function variables for testability.
var (
	listFn = backup.List
	nowFn  = time.Now
)

// Run returns the "backups" command.
func Run(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "backups",
		Usage:     "List retained backups of target files",
		UsageText: "versync backups [target-name]",
		ArgsUsage: "[target-name]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runBackupsCmd(cmd, cfg)
		},
	}
}

func runBackupsCmd(cmd *cli.Command, cfg *config.Config) error {
	targets := cfg.Targets
	if name := cmd.Args().First(); name != "" {
		targets = nil
		for _, t := range cfg.Targets {
			if t.Name == name {
				targets = append(targets, t)
			}
		}
		if len(targets) == 0 {
			return fmt.Errorf("unknown target %q", name)
		}
	}

	var total int
	for _, t := range targets {
		path := cfg.Resolve(t.Path)
		records, err := listFn(atomicfile.ResolveBackupDir(cfg.BackupDir, path), filepath.Base(path))
		if err != nil {
			return fmt.Errorf("list backups of %s: %w", t.Name, err)
		}
		if len(records) == 0 {
			continue
		}
		total += len(records)

		printer.PrintBold(fmt.Sprintf("%s (%s)", t.Name, t.Path))
		for _, r := range records {
			fmt.Printf("  %s  %s  %s\n",
				filepath.Base(r.BackupPath),
				printer.Faint(humanize.IBytes(uint64(r.Size))),
				printer.Faint(humanize.RelTime(r.CreatedAt, nowFn(), "ago", "from now")))
		}
	}

	if total == 0 {
		printer.PrintFaint("No backups found")
	}
	return nil
}
