package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/bravo68web/repolens/internal/domain/models"
	"github.com/bravo68web/repolens/internal/domain/status"
)

var (
	heading = color.New(color.Bold).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
	failure = color.New(color.FgRed).SprintFunc()

	statusColors = map[status.Status]*color.Color{
		status.Active:   color.New(color.FgGreen),
		status.Recent:   color.New(color.FgCyan),
		status.Paused:   color.New(color.Faint),
		status.WIP:      color.New(color.FgYellow),
		status.Deployed: color.New(color.FgMagenta),
		status.Unknown:  color.New(color.FgRed),
	}
)

const (
	nameWidth   = 28
	statusWidth = 9
	typeWidth   = 14
)

// colorStatus pads before coloring so escape codes do not break alignment
func colorStatus(st status.Status) string {
	padded := fmt.Sprintf("%-*s", statusWidth, st)
	if c, ok := statusColors[st]; ok {
		return c.Sprint(padded)
	}
	return padded
}

func clip(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

func commitDay(p *models.Project) string {
	if t, ok := p.LastCommitTime(); ok {
		return t.Format("2006-01-02")
	}
	return "-         "
}

// writeProjectRow prints one listing line
func writeProjectRow(w io.Writer, p *models.Project, st status.Status) {
	meta := p.Meta()
	fork := ""
	if p.IsFork {
		fork = faint(" (fork)")
	}
	pin := " "
	if p.IsPinned {
		pin = "*"
	}
	fmt.Fprintf(w, "%s %-*s %s %s  %-*s %s%s\n",
		pin,
		nameWidth, clip(p.Name, nameWidth),
		colorStatus(st),
		commitDay(p),
		typeWidth, clip(meta.ProjectType, typeWidth),
		strings.Join(meta.TechStack, ","),
		fork,
	)
}

func writeHeader(w io.Writer) {
	fmt.Fprintf(w, "  %s\n", heading(fmt.Sprintf("%-*s %-*s %-10s  %-*s %s",
		nameWidth, "NAME", statusWidth, "STATUS", "COMMITTED", typeWidth, "TYPE", "TECH")))
}

func writeField(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "%s %s\n", heading(fmt.Sprintf("%-14s", label+":")), value)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
