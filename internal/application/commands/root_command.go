package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/bravo68web/repolens/internal/app"
)

// CommandRegistry builds the command tree. The application is opened in
// the root Before hook so every subcommand shares one store connection.
type CommandRegistry struct {
	app *app.App
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{}
}

func (r *CommandRegistry) RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:                  "repolens",
		Usage:                 "Index and browse the git repositories on this machine",
		Suggest:               true,
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a repolens.yaml configuration file",
				Sources: cli.EnvVars("REPOLENS_CONFIG"),
			},
		},
		Before: r.open,
		After:  r.close,
		Action: RootCommand(),
		Commands: []*cli.Command{
			r.ScanCommand(),
			r.ListCommand(),
			r.SidebarCommand(),
			r.ShowCommand(),
			r.FacetsCommand(),
		},
	}
}

func (r *CommandRegistry) open(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Args().Len() == 0 {
		return ctx, nil
	}
	a, err := app.New(cmd.String("config"))
	if err != nil {
		return ctx, err
	}
	r.app = a
	return ctx, nil
}

func (r *CommandRegistry) close(ctx context.Context, cmd *cli.Command) error {
	if r.app == nil {
		return nil
	}
	err := r.app.Close()
	r.app = nil
	return err
}

func RootCommand() cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cmd.Writer.Write([]byte("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"))
		cmd.Writer.Write([]byte("Welcome to repolens!\n"))
		cmd.Writer.Write([]byte("Use 'repolens --help' to see available commands.\n"))
		cmd.Writer.Write([]byte("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"))
		return nil
	}
}
