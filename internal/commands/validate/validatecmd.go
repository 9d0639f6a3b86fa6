// Package validate implements the validate command.
package validate

import (
	"context"
	"errors"
	"fmt"

	"github.com/indaco/versync/internal/clix"
	"github.com/indaco/versync/internal/config"
	"github.com/indaco/versync/internal/core"
	"github.com/indaco/versync/internal/operations"
	"github.com/indaco/versync/internal/printer"
	"github.com/urfave/cli/v3"
)

// ErrInvalidConfig is returned when the configuration has validation errors.
var ErrInvalidConfig = errors.New("configuration is invalid")

// Run returns the "validate" command.
func Run(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check the manifest version format and the configuration",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Also list every configuration check",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runValidateCmd(ctx, cmd, cfg)
		},
	}
}

func runValidateCmd(ctx context.Context, cmd *cli.Command, cfg *config.Config) error {
	results := config.NewValidator(core.NewOSFileSystem(), cfg).Validate(ctx)
	verbose := cmd.Bool("all")
	for _, r := range results {
		switch {
		case r.Warning:
			printer.PrintWarning(fmt.Sprintf("! %s: %s", r.Category, r.Message))
		case !r.Passed:
			printer.PrintError(fmt.Sprintf("x %s: %s", r.Category, r.Message))
		case verbose:
			printer.PrintFaint(fmt.Sprintf("  %s: %s", r.Category, r.Message))
		}
	}
	if config.HasErrors(results) {
		return fmt.Errorf("%w: %d error(s)", ErrInvalidConfig, config.ErrorCount(results))
	}

	o, err := clix.Orchestrator(cmd, cfg)
	if err != nil {
		return err
	}
	report, err := o.Execute(ctx, operations.ValidateCmd{})
	if err != nil {
		return err
	}
	for _, w := range report.Warnings {
		printer.PrintWarning("Warning: " + w)
	}
	printer.PrintSuccess(fmt.Sprintf("Valid version %s in %s", report.Current, cfg.Resolve(cfg.Manifest)))
	return nil
}
