package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/bravo68web/repolens/internal/application/dto"
	apperror "github.com/bravo68web/repolens/pkg/errors"
)

func (r *CommandRegistry) ScanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Discover repositories under a root and record their metadata",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Directory to scan (defaults to scan.root)",
			},
			&cli.IntFlag{
				Name:  "cutoff",
				Usage: "Ignore repositories whose last commit is older than this many days, 0 keeps all",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Extract and summarize without saving",
			},
			&cli.StringFlag{
				Name:  "identity",
				Usage: "Hosting account name used to tell forks from owned repositories",
			},
			&cli.IntFlag{
				Name:  "max-depth",
				Usage: "Maximum directory depth below the root",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of repositories extracted in parallel",
			},
		},
		Action: r.scan,
	}
}

func (r *CommandRegistry) scan(ctx context.Context, cmd *cli.Command) error {
	cfg := r.app.Config.Scan
	opts := dto.ScanOptions{
		Root:        cfg.Root,
		CutoffDays:  cfg.CutoffDays,
		Identity:    cfg.Identity,
		MaxDepth:    cfg.MaxDepth,
		Ignore:      cfg.Ignore,
		Workers:     cfg.Workers,
		RepoTimeout: cfg.RepoTimeout(),
		DryRun:      cmd.Bool("dry-run"),
	}
	if cmd.IsSet("root") {
		opts.Root = cmd.String("root")
	}
	if cmd.IsSet("cutoff") {
		opts.CutoffDays = cmd.Int("cutoff")
	}
	if cmd.IsSet("identity") {
		opts.Identity = cmd.String("identity")
	}
	if cmd.IsSet("max-depth") {
		opts.MaxDepth = cmd.Int("max-depth")
	}
	if cmd.IsSet("workers") {
		opts.Workers = cmd.Int("workers")
	}

	w := cmd.Root().Writer
	result, err := r.app.Deps.ScanService.Run(ctx, opts)
	if fields := apperror.FieldErrors(err); len(fields) > 0 {
		fmt.Fprintln(w, failure("Invalid scan options:"))
		for _, f := range fields {
			fmt.Fprintf(w, "  %s %s\n", f.Field, f.Message)
		}
		return err
	}
	if result != nil {
		fmt.Fprint(w, result.Summary)
	}
	return err
}
