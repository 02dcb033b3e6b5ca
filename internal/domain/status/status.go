// Package status derives the activity classification of a project.
//
// The classification is one ordered rule table. The same table is walked by
// Compute for materialized projects and compiled into a store predicate by the
// repository layer, so the two can only disagree if a compiler is wrong.
package status

import (
	"strings"
	"time"

	"github.com/bravo68web/repolens/internal/domain/models"
)

// Status is the derived, never persisted, activity classification
type Status string

const (
	Active   Status = "active"
	Recent   Status = "recent"
	Paused   Status = "paused"
	WIP      Status = "wip"
	Deployed Status = "deployed"
	Unknown  Status = "unknown"
)

// Filter-only aliases over the recency axis
const (
	ActiveThisWeek Status = "active_this_week"
	Stalled        Status = "stalled"
)

// Day is the unit every recency threshold is expressed in
const Day = 24 * time.Hour

// Condition is a node of the rule condition tree
type Condition interface {
	isCondition()
}

// MessageContainsAny matches when the lowercased last commit message contains any term
type MessageContainsAny struct {
	Terms []string
}

// MetaContains matches when the lowercased metadata text under Key contains Term
type MetaContains struct {
	Key  string
	Term string
}

// NoCommitDate matches projects without a last commit timestamp
type NoCommitDate struct{}

// CommittedWithin matches a last commit strictly newer than now minus Days
type CommittedWithin struct {
	Days int
}

// CommittedBetween matches a last commit between MinDays and MaxDays ago, inclusive
type CommittedBetween struct {
	MinDays int
	MaxDays int
}

// AnyOf matches when at least one child matches. Empty never matches.
type AnyOf []Condition

// AllOf matches when every child matches. Empty always matches.
type AllOf []Condition

// Not negates its child
type Not struct {
	C Condition
}

// Always matches everything
type Always struct{}

func (MessageContainsAny) isCondition() {}
func (MetaContains) isCondition()       {}
func (NoCommitDate) isCondition()       {}
func (CommittedWithin) isCondition()    {}
func (CommittedBetween) isCondition()   {}
func (AnyOf) isCondition()              {}
func (AllOf) isCondition()              {}
func (Not) isCondition()                {}
func (Always) isCondition()             {}

// Rule pairs a label with the condition selecting it
type Rule struct {
	Label Status
	When  Condition
}

// WIPTerms are the last commit message keywords marking unfinished work
var WIPTerms = []string{"wip", "todo", "fixme", "in progress"}

// Rules is evaluated in order, first match wins. The last rule always matches.
var Rules = []Rule{
	{Label: WIP, When: AnyOf{
		MessageContainsAny{Terms: WIPTerms},
		MetaContains{Key: models.MetaKeyCurrentState, Term: "work in progress"},
	}},
	{Label: Deployed, When: MetaContains{Key: models.MetaKeyDeploymentStatus, Term: "likely deployed"}},
	{Label: Unknown, When: NoCommitDate{}},
	{Label: Active, When: CommittedWithin{Days: 7}},
	{Label: Recent, When: CommittedWithin{Days: 30}},
	{Label: Paused, When: Always{}},
}

var stalledBand = CommittedBetween{MinDays: 14, MaxDays: 60}

// Threshold returns the canonical timestamp string days before now.
// Both realizations compare commit dates against this string.
func Threshold(now time.Time, days int) string {
	return models.FormatCommitDate(now.Add(-time.Duration(days) * Day))
}

// Labels returns every value accepted as a status filter
func Labels() []Status {
	labels := make([]Status, 0, len(Rules)+2)
	for _, r := range Rules {
		labels = append(labels, r.Label)
	}
	return append(labels, ActiveThisWeek, Stalled)
}

// Parse resolves a filter value to a known label
func Parse(s string) (Status, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, l := range Labels() {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// Selection returns the condition that selects exactly the projects Compute
// would label with label. A rule only claims what no earlier rule claimed.
func Selection(label Status) (Condition, bool) {
	switch label {
	case ActiveThisWeek:
		return Selection(Active)
	case Stalled:
		return AllOf{stalledBand, Not{C: earlierThan(Active)}}, true
	}

	var earlier AnyOf
	for _, r := range Rules {
		if r.Label == label {
			if len(earlier) == 0 {
				return r.When, true
			}
			return AllOf{r.When, Not{C: earlier}}, true
		}
		earlier = append(earlier, r.When)
	}
	return nil, false
}

func earlierThan(label Status) AnyOf {
	var earlier AnyOf
	for _, r := range Rules {
		if r.Label == label {
			break
		}
		earlier = append(earlier, r.When)
	}
	return earlier
}

// Compute classifies p as of now
func Compute(p *models.Project, now time.Time) Status {
	meta := p.Meta()
	for _, r := range Rules {
		if eval(r.When, p, &meta, now) {
			return r.Label
		}
	}
	return Paused
}

// Matches reports whether p is selected by the filter label as of now
func Matches(p *models.Project, label Status, now time.Time) bool {
	cond, ok := Selection(label)
	if !ok {
		return false
	}
	meta := p.Meta()
	return eval(cond, p, &meta, now)
}

func eval(c Condition, p *models.Project, meta *models.Metadata, now time.Time) bool {
	switch c := c.(type) {
	case MessageContainsAny:
		msg := lowerASCII(p.Message())
		for _, term := range c.Terms {
			if strings.Contains(msg, term) {
				return true
			}
		}
		return false
	case MetaContains:
		return strings.Contains(lowerASCII(meta.Text(c.Key)), c.Term)
	case NoCommitDate:
		return p.LastCommitDate == ""
	case CommittedWithin:
		return p.LastCommitDate > Threshold(now, c.Days)
	case CommittedBetween:
		return p.LastCommitDate >= Threshold(now, c.MaxDays) &&
			p.LastCommitDate <= Threshold(now, c.MinDays)
	case AnyOf:
		for _, child := range c {
			if eval(child, p, meta, now) {
				return true
			}
		}
		return false
	case AllOf:
		for _, child := range c {
			if !eval(child, p, meta, now) {
				return false
			}
		}
		return true
	case Not:
		return !eval(c.C, p, meta, now)
	case Always:
		return true
	}
	return false
}

// lowerASCII folds A-Z only, matching SQL LOWER on sqlite
func lowerASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}
