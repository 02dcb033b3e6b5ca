package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"
)

func (r *CommandRegistry) ShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one project and its neighbors in the listing",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "pin", Usage: "Pin the project"},
			&cli.BoolFlag{Name: "unpin", Usage: "Unpin the project"},
			&cli.BoolFlag{Name: "no-track", Usage: "Do not record this view"},
			&cli.BoolFlag{Name: "json", Usage: "Print the stored record as JSON"},
			&cli.StringFlag{Name: "sort", Usage: "Listing order used for previous/next", Value: "name"},
			&cli.StringFlag{Name: "order", Usage: "asc or desc"},
		},
		Action: r.show,
	}
}

func (r *CommandRegistry) show(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("show takes exactly one project path")
	}
	path, err := filepath.Abs(cmd.Args().First())
	if err != nil {
		return err
	}

	svc := r.app.Deps.ProjectQueryService
	switch {
	case cmd.Bool("pin"):
		err = svc.SetPinned(ctx, path, true)
	case cmd.Bool("unpin"):
		err = svc.SetPinned(ctx, path, false)
	}
	if err != nil {
		return err
	}
	if !cmd.Bool("no-track") {
		if err := svc.MarkViewed(ctx, path); err != nil {
			return err
		}
	}

	p, err := svc.Get(ctx, path)
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	if cmd.Bool("json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}

	meta := p.Meta()
	st := svc.ComputeStatus(p)
	writeField(w, "Name", p.Name)
	writeField(w, "Path", p.Path)
	writeField(w, "Status", colorStatus(st))
	writeField(w, "Last commit", strings.TrimSpace(commitDay(p)+"  "+p.Message()))
	writeField(w, "Author", meta.LastCommitAuthor)
	writeField(w, "Description", deref(meta.Description))
	writeField(w, "AI summary", deref(meta.AIDescription))
	writeField(w, "Type", meta.ProjectType)
	writeField(w, "Tech", strings.Join(meta.TechStack, ", "))
	writeField(w, "State", deref(meta.CurrentState))
	writeField(w, "Deployment", deref(meta.DeploymentStatus))
	writeField(w, "Remote", deref(meta.RemoteURL))
	if p.IsFork {
		writeField(w, "Ownership", "fork")
	}
	if p.IsPinned {
		writeField(w, "Pinned", "yes")
	}
	writeField(w, "Commits", fmt.Sprintf("%d in the last %d days", meta.CommitsInWindow, meta.CommitWindowDays))
	writeField(w, "Contributors", strings.Join(meta.Contributors, ", "))
	writeField(w, "Docs", fmt.Sprintf("%d markdown, %d under docs/, readme %s",
		meta.DocCounts.Markdown, meta.DocCounts.DocsDir, strconv.FormatBool(meta.DocCounts.HasReadme)))
	writeField(w, "Nested repos", strings.Join(meta.NestedRepos, ", "))

	categories := make([]string, 0, len(meta.ReferenceFiles))
	for c := range meta.ReferenceFiles {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		writeField(w, "Files/"+c, strings.Join(meta.ReferenceFiles[c], ", "))
	}
	for _, e := range meta.Errors {
		writeField(w, "Probe error", failure(e))
	}

	prev, next, err := svc.FindAdjacent(ctx, p.Path, cmd.String("sort"), cmd.String("order"))
	if err != nil {
		return err
	}
	if prev != nil {
		writeField(w, "Previous", prev.Path)
	}
	if next != nil {
		writeField(w, "Next", next.Path)
	}
	return nil
}
