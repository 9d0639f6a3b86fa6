// Package clix holds the glue shared by the CLI commands: building an
// orchestrator from the global flags and rendering its reports.
package clix

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/indaco/versync/internal/config"
	"github.com/indaco/versync/internal/logging"
	"github.com/indaco/versync/internal/operations"
	"github.com/indaco/versync/internal/printer"
	"github.com/indaco/versync/internal/tui"
	"github.com/urfave/cli/v3"
)

// LogOutput receives diagnostics. Tests may replace it.
var LogOutput io.Writer = os.Stderr

// NewOrchestratorFn is a function variable for testability.
var NewOrchestratorFn = operations.NewOrchestrator

// Logger returns the diagnostics logger for cmd, honoring --verbose.
func Logger(cmd *cli.Command) *logging.Logger {
	return logging.New(LogOutput, cmd.Bool("verbose"))
}

// Orchestrator builds an orchestrator for cfg with the command's logger.
func Orchestrator(cmd *cli.Command, cfg *config.Config) (*operations.Orchestrator, error) {
	return NewOrchestratorFn(cfg, operations.WithLogger(Logger(cmd)))
}

// Execute runs c, behind a spinner on interactive terminals.
func Execute(ctx context.Context, cmd *cli.Command, cfg *config.Config, c operations.Command) (*operations.Report, error) {
	o, err := Orchestrator(cmd, cfg)
	if err != nil {
		return nil, err
	}

	var report *operations.Report
	title := fmt.Sprintf("Running %s...", c.Name())
	err = tui.WithSpinner(ctx, title, func(ctx context.Context) error {
		var execErr error
		report, execErr = o.Execute(ctx, c)
		return execErr
	})
	return report, err
}

// PrintMutation renders the outcome of increment, prepare or set.
func PrintMutation(report *operations.Report) {
	if report == nil {
		return
	}
	if report.Previous.String() != report.Current.String() && len(report.Updated) > 0 {
		printer.PrintSuccess(fmt.Sprintf("Updated version from %s to %s", report.Previous, report.Current))
	}
	if len(report.Updated) > 0 {
		printer.PrintFaint(fmt.Sprintf("  updated:   %s", strings.Join(report.Updated, ", ")))
	}
	if len(report.Unchanged) > 0 {
		printer.PrintFaint(fmt.Sprintf("  unchanged: %s", strings.Join(report.Unchanged, ", ")))
	}
	if len(report.Skipped) > 0 {
		printer.PrintFaint(fmt.Sprintf("  skipped:   %s", strings.Join(report.Skipped, ", ")))
	}
	if n := len(report.Backups); n > 0 {
		var total int64
		for _, b := range report.Backups {
			total += b.Size
		}
		printer.PrintFaint(fmt.Sprintf("  backups:   %d (%s)", n, humanize.Bytes(uint64(total))))
	}
	for _, w := range report.Warnings {
		printer.PrintWarning("Warning: " + w)
	}
	for _, f := range report.Failures {
		label := "optional"
		if f.Required {
			label = "required"
		}
		printer.PrintError(fmt.Sprintf("Failed (%s): %v", label, f))
	}
}
