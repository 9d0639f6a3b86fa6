// Package initcmd implements the init command, which writes a starter
// .versync.yaml for the current project.
package initcmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/indaco/versync/internal/config"
	"github.com/indaco/versync/internal/core"
	"github.com/indaco/versync/internal/printer"
	"github.com/indaco/versync/internal/tui"
	"github.com/urfave/cli/v3"
)

// ErrConfigExists is returned when the config file exists and --force is not set.
var ErrConfigExists = errors.New("config file already exists")

// isInteractiveFn is a function variable for testability.
var isInteractiveFn = tui.IsInteractive

// Run returns the "init" command.
func Run() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create " + config.DefaultFile + " for the current project",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "preset",
				Usage: "Start from a preset instead of detected files",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Accept the detected selection without prompting",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing config file",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runInitCmd(ctx, cmd)
		},
	}
}

func runInitCmd(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		path = config.DefaultFile
	}
	interactive := isInteractiveFn() && !cmd.Bool("yes")
	if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
		if !interactive {
			return fmt.Errorf("%w: %s (use --force to overwrite)", ErrConfigExists, path)
		}
		overwrite, err := tui.ConfirmFn("Overwrite "+path+"?", "The existing configuration will be replaced.", false)
		if err != nil {
			return err
		}
		if !overwrite {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	root := filepath.Dir(path)

	candidates, selected, err := selection(ctx, root, cmd.String("preset"))
	if err != nil {
		return err
	}

	if interactive {
		options := make([]tui.Option, 0, len(candidates))
		for _, t := range candidates {
			options = append(options, tui.Option{
				Label:    fmt.Sprintf("%s (%s)", t.Name, t.Path),
				Value:    t.Name,
				Selected: selected[t.Name],
			})
		}
		names, err := tui.MultiSelectFn("Select the files to keep in sync", options)
		if err != nil {
			return err
		}
		selected = map[string]bool{"manifest": true}
		for _, n := range names {
			selected[n] = true
		}
	}

	cfg := &config.Config{Manifest: config.DefaultManifest}
	for _, t := range candidates {
		if selected[t.Name] {
			cfg.Targets = append(cfg.Targets, t)
		}
	}
	if err := config.SaveConfigFn(cfg, path); err != nil {
		return err
	}

	printer.PrintSuccess(fmt.Sprintf("Created %s with %d target(s)", path, len(cfg.Targets)))
	return nil
}

// selection returns every candidate target and the names selected by
// default: the preset's, or those whose file exists. The manifest is
// always selected.
func selection(ctx context.Context, root, presetName string) ([]config.TargetFile, map[string]bool, error) {
	fsys := core.NewOSFileSystem()
	candidates := config.DefaultTargets()

	sources := DetectVersionSources(ctx, fsys, root)
	if len(sources) > 0 {
		printer.PrintInfo("Detected other version sources:")
		fmt.Print(FormatVersionSources(sources))
	}
	for _, s := range sources {
		candidates = append(candidates, s.Target())
	}

	selected := map[string]bool{"manifest": true}
	if presetName != "" {
		preset, err := GetPreset(presetName)
		if err != nil {
			return nil, nil, err
		}
		for _, t := range candidates {
			if preset.Includes(t.Name) {
				selected[t.Name] = true
			}
		}
		return candidates, selected, nil
	}

	for _, t := range candidates {
		if _, err := fsys.Stat(ctx, filepath.Join(root, t.Path)); err == nil {
			selected[t.Name] = true
		}
	}
	return candidates, selected, nil
}
