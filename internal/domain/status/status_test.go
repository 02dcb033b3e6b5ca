package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bravo68web/repolens/internal/domain/models"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func project(daysAgo int, message string, meta models.Metadata) *models.Project {
	p := &models.Project{Path: "/src/p", Name: "p"}
	if daysAgo >= 0 {
		p.LastCommitDate = models.FormatCommitDate(now.Add(-time.Duration(daysAgo) * Day))
	}
	if message != "" {
		p.LastCommitMessage = &message
	}
	p.SetMeta(meta)
	return p
}

func strPtr(s string) *string { return &s }

func TestCompute(t *testing.T) {
	tests := []struct {
		name    string
		project *models.Project
		want    Status
	}{
		{"wip message beats recency", project(3, "WIP: refactor", models.Metadata{}), WIP},
		{"fixme keyword", project(40, "fixme later", models.Metadata{}), WIP},
		{"in progress phrase", project(1, "Parser In Progress", models.Metadata{}), WIP},
		{"current state marker", project(2, "add tests", models.Metadata{CurrentState: strPtr("3 open tasks; work in progress (last commit)")}), WIP},
		{"deployed", project(2, "release", models.Metadata{DeploymentStatus: strPtr("likely deployed (Dockerfile)")}), Deployed},
		{"wip beats deployed", project(2, "wip", models.Metadata{DeploymentStatus: strPtr("likely deployed (Procfile)")}), WIP},
		{"no commit date", project(-1, "", models.Metadata{}), Unknown},
		{"active", project(3, "add parser", models.Metadata{}), Active},
		{"recent lower edge", project(7, "add parser", models.Metadata{}), Recent},
		{"recent", project(20, "add parser", models.Metadata{}), Recent},
		{"paused at thirty days", project(30, "add parser", models.Metadata{}), Paused},
		{"paused", project(200, "add parser", models.Metadata{}), Paused},
		{"deployment unknown is not deployed", project(200, "x", models.Metadata{DeploymentStatus: strPtr("unknown")}), Paused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.project, now))
		})
	}
}

func TestRulesCoverage(t *testing.T) {
	require.NotEmpty(t, Rules)
	_, last := Rules[len(Rules)-1].When.(Always)
	assert.True(t, last, "last rule must always match")

	seen := map[Status]bool{}
	for _, r := range Rules {
		assert.False(t, seen[r.Label], "duplicate label %s", r.Label)
		seen[r.Label] = true
	}
	for _, s := range []Status{Active, Recent, Paused, WIP, Deployed, Unknown} {
		assert.True(t, seen[s], "no rule for %s", s)
	}
}

func TestSelectionMatchesCompute(t *testing.T) {
	corpus := []*models.Project{
		project(0, "init", models.Metadata{}),
		project(3, "WIP: refactor", models.Metadata{}),
		project(5, "ship", models.Metadata{DeploymentStatus: strPtr("likely deployed (fly.toml)")}),
		project(10, "docs", models.Metadata{}),
		project(15, "todo: cleanup", models.Metadata{}),
		project(20, "docs", models.Metadata{}),
		project(45, "docs", models.Metadata{}),
		project(59, "docs", models.Metadata{DeploymentStatus: strPtr("likely deployed (Dockerfile)")}),
		project(90, "docs", models.Metadata{}),
		project(-1, "", models.Metadata{}),
	}

	for _, p := range corpus {
		got := Compute(p, now)
		for _, r := range Rules {
			assert.Equal(t, got == r.Label, Matches(p, r.Label, now), "project %s label %s", p.LastCommitDate, r.Label)
		}
		assert.Equal(t, Matches(p, Active, now), Matches(p, ActiveThisWeek, now))
	}
}

func TestStalled(t *testing.T) {
	assert.False(t, Matches(project(10, "docs", models.Metadata{}), Stalled, now))
	assert.True(t, Matches(project(14, "docs", models.Metadata{}), Stalled, now))
	assert.True(t, Matches(project(45, "docs", models.Metadata{}), Stalled, now))
	assert.True(t, Matches(project(60, "docs", models.Metadata{}), Stalled, now))
	assert.False(t, Matches(project(61, "docs", models.Metadata{}), Stalled, now))
	assert.False(t, Matches(project(20, "wip", models.Metadata{}), Stalled, now))
	assert.False(t, Matches(project(-1, "", models.Metadata{}), Stalled, now))
}

func TestParse(t *testing.T) {
	s, ok := Parse(" Active ")
	assert.True(t, ok)
	assert.Equal(t, Active, s)

	s, ok = Parse("stalled")
	assert.True(t, ok)
	assert.Equal(t, Stalled, s)

	_, ok = Parse("all")
	assert.False(t, ok)

	_, ok = Selection("bogus")
	assert.False(t, ok)
}
