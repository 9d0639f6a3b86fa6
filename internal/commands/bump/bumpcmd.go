// Package bump implements the increment and prepare commands.
package bump

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/indaco/versync/internal/clix"
	"github.com/indaco/versync/internal/config"
	"github.com/indaco/versync/internal/operations"
	"github.com/indaco/versync/internal/printer"
	"github.com/indaco/versync/internal/semver"
	"github.com/urfave/cli/v3"
)

var errMissingKind = errors.New("missing increment type")

// Increment returns the "increment" command.
func Increment(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "increment",
		Aliases:   []string{"bump"},
		Usage:     "Increment the version and stamp a new build number",
		UsageText: "versync increment <" + kindList() + ">",
		ArgsUsage: "<" + kindList() + ">",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			kind, err := parseKind(cmd)
			if err != nil {
				return err
			}
			return run(ctx, cmd, cfg, operations.IncrementCmd{Kind: kind})
		},
	}
}

// Prepare returns the "prepare" command.
func Prepare(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "prepare",
		Usage:     "Increment the version with the build placeholder for CI to fill in",
		UsageText: "versync prepare <" + kindList() + ">",
		ArgsUsage: "<" + kindList() + ">",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			kind, err := parseKind(cmd)
			if err != nil {
				return err
			}
			if err := run(ctx, cmd, cfg, operations.PrepareCmd{Kind: kind}); err != nil {
				return err
			}
			printer.PrintInfo(fmt.Sprintf("Build number left as %s; run 'versync increment build' to stamp it", cfg.Placeholder))
			return nil
		},
	}
}

func run(ctx context.Context, cmd *cli.Command, cfg *config.Config, c operations.Command) error {
	report, err := clix.Execute(ctx, cmd, cfg, c)
	clix.PrintMutation(report)
	if err != nil {
		return fmt.Errorf("%s failed: %w", c.Name(), err)
	}
	return nil
}

func parseKind(cmd *cli.Command) (semver.BumpKind, error) {
	if cmd.Args().Len() == 0 {
		return "", fmt.Errorf("%w (expected one of: %s)", errMissingKind, kindList())
	}
	if cmd.Args().Len() > 1 {
		return "", fmt.Errorf("expected a single increment type, got %d arguments", cmd.Args().Len())
	}
	return semver.ParseBumpKind(cmd.Args().First())
}

func kindList() string {
	names := make([]string, len(semver.BumpKinds))
	for i, k := range semver.BumpKinds {
		names[i] = k.String()
	}
	return strings.Join(names, "|")
}
