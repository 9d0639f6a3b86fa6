// Package show implements the read-only get, get-semantic, get-build and
// info commands.
package show

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/indaco/versync/internal/clix"
	"github.com/indaco/versync/internal/config"
	"github.com/indaco/versync/internal/operations"
	"github.com/indaco/versync/internal/printer"
	"github.com/indaco/versync/internal/semver"
	"github.com/urfave/cli/v3"
)

// Commands returns the read-only commands.
func Commands(cfg *config.Config) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "get",
			Usage: "Print the full version (MAJOR.MINOR.PATCH+BUILD)",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return printVersion(ctx, cmd, cfg, operations.GetCmd{}, func(v semver.FullVersion) string {
					return v.String()
				})
			},
		},
		{
			Name:  "get-semantic",
			Usage: "Print MAJOR.MINOR.PATCH",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return printVersion(ctx, cmd, cfg, operations.GetSemanticCmd{}, func(v semver.FullVersion) string {
					return v.SemVersion.String()
				})
			},
		},
		{
			Name:  "get-build",
			Usage: "Print the build identifier",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return printVersion(ctx, cmd, cfg, operations.GetBuildCmd{}, func(v semver.FullVersion) string {
					return string(v.Build)
				})
			},
		},
		{
			Name:  "info",
			Usage: "Show the version and the state of every target file",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return runInfoCmd(ctx, cmd, cfg)
			},
		},
	}
}

// printVersion prints one plain line so the output is script friendly.
func printVersion(ctx context.Context, cmd *cli.Command, cfg *config.Config, c operations.Command, format func(semver.FullVersion) string) error {
	o, err := clix.Orchestrator(cmd, cfg)
	if err != nil {
		return err
	}
	report, err := o.Execute(ctx, c)
	if err != nil {
		return err
	}
	fmt.Println(format(report.Current))
	return nil
}

func runInfoCmd(ctx context.Context, cmd *cli.Command, cfg *config.Config) error {
	o, err := clix.Orchestrator(cmd, cfg)
	if err != nil {
		return err
	}
	report, err := o.Execute(ctx, operations.InfoCmd{})
	if err != nil {
		return err
	}

	v := report.Current
	printer.PrintKeyValue("Version", printer.Bold(v.String()))
	printer.PrintKeyValue("Semantic", v.SemVersion.String())
	printer.PrintKeyValue("Build", buildSummary(v.Build, cfg.Placeholder))
	printer.PrintKeyValue("Manifest", cfg.Manifest)
	fmt.Println()

	printer.PrintBold("Targets")
	drift := 0
	for _, t := range report.Targets {
		if t.Drift {
			drift++
		}
		fmt.Printf("  %s %s %s\n", printer.KeyValue(t.Name, t.Path), printer.Faint("["+t.Kind+"]"), targetState(t))
	}
	if len(report.Versions) > 0 {
		fmt.Println()
		printer.PrintBold("Versions")
		for _, vs := range report.Versions {
			fmt.Printf("  %s %s\n", printer.KeyValue(vs.Version, fmt.Sprintf("%d file(s)", vs.Count)),
				printer.Faint(strings.Join(vs.Sources, ", ")))
		}
	}
	if drift > 0 {
		fmt.Println()
		printer.PrintWarning(fmt.Sprintf("%d target(s) out of sync with %s; run 'versync set %s' to realign",
			drift, cfg.Manifest, v.SemVersion))
	}
	return nil
}

func targetState(t operations.TargetStatus) string {
	switch {
	case !t.Exists && t.Required:
		return printer.Error("missing (required)")
	case !t.Exists:
		return printer.Faint("missing")
	case t.Drift:
		return printer.Warning("drift: " + t.Version)
	case t.Version != "":
		return printer.Success("ok " + t.Version)
	default:
		return printer.Success("ok")
	}
}

func buildSummary(b semver.BuildID, placeholder string) string {
	kind := b.Kind(placeholder)
	switch kind {
	case semver.BuildNone:
		return printer.Faint("none")
	case semver.BuildTimestamp:
		if ts, err := b.Time(); err == nil {
			return fmt.Sprintf("%s %s", b, printer.Faint("("+humanize.Time(ts)+")"))
		}
	case semver.BuildPlaceholder:
		return printer.Warning(string(b) + " (placeholder)")
	}
	return fmt.Sprintf("%s %s", b, printer.Faint("("+kind.String()+")"))
}
