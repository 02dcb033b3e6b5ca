package extractor

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	workInProgress     = "work in progress (last commit)"
	completedMilestone = "recently completed milestone"
	stateUnknown       = "unknown"
)

// TaskFiles hold checkbox task lists
var TaskFiles = []string{"TODO.md", "TODO.txt", "TODO", "TASKS.md", "ROADMAP.md"}

var (
	// WIP terms as they appear in commit subjects. Broader than the status
	// rule table, which reads the narrative this produces.
	wipKeywords        = []string{"wip", "todo", "fixme", "in progress", "draft"}
	completionKeywords = []string{"release", "v1.", "finish", "complete", "done", "ship"}

	openTask   = regexp.MustCompile(`(?m)^\s*[-*]\s+\[ \]`)
	closedTask = regexp.MustCompile(`(?m)^\s*[-*]\s+\[[xX]\]`)
)

type recencyLabel struct {
	Within time.Duration
	Label  string
}

var recencyLabels = []recencyLabel{
	{Within: 7 * 24 * time.Hour, Label: "active development"},
	{Within: 30 * 24 * time.Hour, Label: "recent activity"},
}

const staleAfter = 180 * 24 * time.Hour

// workState joins task, commit message and recency signals with "; "
func workState(fc *fileCache, lastMessage string, lastCommit time.Time, now time.Time) string {
	var signals []string

	open, done := 0, 0
	for _, f := range TaskFiles {
		text := fc.Text(f)
		open += len(openTask.FindAllStringIndex(text, -1))
		done += len(closedTask.FindAllStringIndex(text, -1))
	}
	if open+done > 0 {
		signals = append(signals, fmt.Sprintf("%d open tasks, %d done", open, done))
	}

	msg := strings.ToLower(lastMessage)
	switch {
	case containsAny(msg, wipKeywords):
		signals = append(signals, workInProgress)
	case containsAny(msg, completionKeywords):
		signals = append(signals, completedMilestone)
	}

	if !lastCommit.IsZero() {
		if label := recency(now.Sub(lastCommit)); label != "" {
			signals = append(signals, label)
		}
	}

	if len(signals) == 0 {
		return stateUnknown
	}
	return strings.Join(signals, "; ")
}

func recency(age time.Duration) string {
	for _, r := range recencyLabels {
		if age < r.Within {
			return r.Label
		}
	}
	if age > staleAfter {
		return "stale"
	}
	return ""
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
