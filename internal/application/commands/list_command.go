package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/bravo68web/repolens/internal/application/dto"
	"github.com/bravo68web/repolens/internal/domain/status"
)

func statusNames() string {
	labels := status.Labels()
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}

func (r *CommandRegistry) ListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List recorded projects",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "Substring of name, path, last commit message or description"},
			&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "One of " + statusNames()},
			&cli.StringFlag{Name: "tech", Aliases: []string{"t"}, Usage: "Tech stack tag, e.g. go"},
			&cli.StringFlag{Name: "type", Usage: "Project type, e.g. cli"},
			&cli.StringFlag{Name: "ownership", Usage: "owned or fork"},
			&cli.StringFlag{Name: "sort", Usage: "name, last_commit or commits", Value: "name"},
			&cli.StringFlag{Name: "order", Usage: "asc or desc (default asc for name, desc otherwise)"},
			&cli.IntFlag{Name: "page", Aliases: []string{"p"}, Value: 1},
		},
		Action: r.list,
	}
}

func (r *CommandRegistry) list(ctx context.Context, cmd *cli.Command) error {
	svc := r.app.Deps.ProjectQueryService
	page, err := svc.QueryProjects(ctx, dto.FilterParams{
		Search:    cmd.String("search"),
		Status:    cmd.String("status"),
		Tech:      cmd.String("tech"),
		Type:      cmd.String("type"),
		Ownership: cmd.String("ownership"),
		Sort:      cmd.String("sort"),
		Order:     cmd.String("order"),
		Page:      cmd.Int("page"),
	})
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	if len(page.Projects) == 0 {
		fmt.Fprintln(w, "No projects match.")
		return nil
	}
	writeHeader(w)
	for _, p := range page.Projects {
		writeProjectRow(w, p, svc.ComputeStatus(p))
	}
	fmt.Fprintln(w, faint(fmt.Sprintf("page %d of %d, %d projects", page.Page, page.TotalPages, page.TotalCount)))
	return nil
}

func (r *CommandRegistry) SidebarCommand() *cli.Command {
	return &cli.Command{
		Name:   "sidebar",
		Usage:  "Show pinned and recently viewed projects with activity counts",
		Action: r.sidebar,
	}
}

func (r *CommandRegistry) sidebar(ctx context.Context, cmd *cli.Command) error {
	svc := r.app.Deps.ProjectQueryService
	agg, err := svc.LoadSidebar(ctx)
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	fmt.Fprintln(w, heading("Pinned"))
	for _, p := range agg.Pinned {
		writeProjectRow(w, p, svc.ComputeStatus(p))
	}
	fmt.Fprintln(w, heading("Recently viewed"))
	for _, p := range agg.RecentlyViewed {
		writeProjectRow(w, p, svc.ComputeStatus(p))
	}
	fmt.Fprintf(w, "%s %d\n", heading("Active this week:"), agg.ActiveThisWeekCount)
	fmt.Fprintf(w, "%s %d\n", heading("Stalled:"), agg.StalledCount)
	return nil
}

func (r *CommandRegistry) FacetsCommand() *cli.Command {
	return &cli.Command{
		Name:   "facets",
		Usage:  "List the tech stack tags and project types present",
		Action: r.facets,
	}
}

func (r *CommandRegistry) facets(ctx context.Context, cmd *cli.Command) error {
	svc := r.app.Deps.ProjectQueryService
	tech, err := svc.DistinctTechStacks(ctx)
	if err != nil {
		return err
	}
	types, err := svc.DistinctTypes(ctx)
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	fmt.Fprintf(w, "%s %s\n", heading("Tech:"), strings.Join(tech, ", "))
	fmt.Fprintf(w, "%s %s\n", heading("Types:"), strings.Join(types, ", "))
	return nil
}
