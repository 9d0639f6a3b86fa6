// Package set implements the set command.
package set

import (
	"context"
	"errors"
	"fmt"

	"github.com/indaco/versync/internal/clix"
	"github.com/indaco/versync/internal/config"
	"github.com/indaco/versync/internal/operations"
	"github.com/indaco/versync/internal/semver"
	"github.com/urfave/cli/v3"
)

// Run returns the "set" command.
func Run(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set an exact MAJOR.MINOR.PATCH version and stamp a new build number",
		UsageText: "versync set <X.Y.Z>",
		ArgsUsage: "<X.Y.Z>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runSetCmd(ctx, cmd, cfg)
		},
	}
}

func runSetCmd(ctx context.Context, cmd *cli.Command, cfg *config.Config) error {
	if cmd.Args().Len() != 1 {
		return errors.New("set requires exactly one version argument (X.Y.Z)")
	}

	// Parsed before the orchestrator runs so bad input never touches a file.
	v, err := semver.ParseSemantic(cmd.Args().First())
	if err != nil {
		return err
	}

	report, err := clix.Execute(ctx, cmd, cfg, operations.SetCmd{Version: v})
	clix.PrintMutation(report)
	if err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}
