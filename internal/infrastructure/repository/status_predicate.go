package repository

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bravo68web/repolens/internal/domain/models"
	"github.com/bravo68web/repolens/internal/domain/status"
)

// dialect renders the few expressions that differ between sqlite and postgres.
// Every text leaf is wrapped in COALESCE so NOT never meets NULL.
type dialect struct {
	postgres bool
}

func dialectOf(db *gorm.DB) dialect {
	return dialect{postgres: db.Dialector.Name() == "postgres"}
}

// jsonText extracts a top-level metadata key as text
func (d dialect) jsonText(key string) string {
	if d.postgres {
		return fmt.Sprintf("(projects.metadata->>'%s')", key)
	}
	return fmt.Sprintf("json_extract(projects.metadata, '$.%s')", key)
}

// bytewise makes string comparison ignore the database locale
func (d dialect) bytewise(expr string) string {
	if d.postgres {
		return expr + ` COLLATE "C"`
	}
	return expr
}

// techMember is true when the tech_stack array holds exactly the bound value
func (d dialect) techMember() string {
	if d.postgres {
		return "CASE WHEN jsonb_typeof(projects.metadata->'tech_stack') = 'array' THEN " +
			"EXISTS (SELECT 1 FROM jsonb_array_elements_text(projects.metadata->'tech_stack') AS t(tag) WHERE t.tag = ?) " +
			"ELSE false END"
	}
	return "EXISTS (SELECT 1 FROM json_each(projects.metadata, '$.tech_stack') WHERE json_each.value = ?)"
}

func (d dialect) distinctTechQuery() string {
	if d.postgres {
		return "SELECT DISTINCT t.tag FROM projects CROSS JOIN LATERAL jsonb_array_elements_text(" +
			"CASE WHEN jsonb_typeof(projects.metadata->'tech_stack') = 'array' " +
			"THEN projects.metadata->'tech_stack' ELSE '[]'::jsonb END) AS t(tag)"
	}
	return "SELECT DISTINCT json_each.value FROM projects, json_each(projects.metadata, '$.tech_stack')"
}

func (d dialect) commitDate() string {
	return d.bytewise("COALESCE(projects.last_commit_date, '')")
}

func likeContains(expr string) string {
	return "LOWER(COALESCE(" + expr + ", '')) LIKE ? ESCAPE '\\'"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching term anywhere, metacharacters
// escaped. Terms are ASCII keywords folded the way SQL LOWER folds them.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// searchPattern matches a user query against the stored search_text column,
// which is folded with models.FoldSearch at save time
func searchPattern(q string) string {
	return "%" + likeEscaper.Replace(models.FoldSearch(q)) + "%"
}

// compileStatus renders the condition a status filter selects, anchored at now
func compileStatus(d dialect, label status.Status, now time.Time) (clause.Expr, bool) {
	cond, ok := status.Selection(label)
	if !ok {
		return clause.Expr{}, false
	}
	sql, vars := compileCondition(d, cond, now)
	return clause.Expr{SQL: sql, Vars: vars}, true
}

func compileCondition(d dialect, c status.Condition, now time.Time) (string, []interface{}) {
	switch c := c.(type) {
	case status.MessageContainsAny:
		parts := make([]string, len(c.Terms))
		vars := make([]interface{}, len(c.Terms))
		for i, term := range c.Terms {
			parts[i] = likeContains("projects.last_commit_message")
			vars[i] = containsPattern(term)
		}
		return join(parts, " OR ", "1 = 0"), vars
	case status.MetaContains:
		return likeContains(d.jsonText(c.Key)), []interface{}{containsPattern(c.Term)}
	case status.NoCommitDate:
		return "COALESCE(projects.last_commit_date, '') = ''", nil
	case status.CommittedWithin:
		return d.commitDate() + " > ?", []interface{}{status.Threshold(now, c.Days)}
	case status.CommittedBetween:
		return "(" + d.commitDate() + " >= ? AND " + d.commitDate() + " <= ?)",
			[]interface{}{status.Threshold(now, c.MaxDays), status.Threshold(now, c.MinDays)}
	case status.AnyOf:
		return compileAll(d, c, " OR ", "1 = 0", now)
	case status.AllOf:
		return compileAll(d, c, " AND ", "1 = 1", now)
	case status.Not:
		sql, vars := compileCondition(d, c.C, now)
		return "NOT (" + sql + ")", vars
	case status.Always:
		return "1 = 1", nil
	}
	panic(fmt.Sprintf("status condition %T has no SQL form", c))
}

func compileAll(d dialect, children []status.Condition, sep, empty string, now time.Time) (string, []interface{}) {
	parts := make([]string, 0, len(children))
	var vars []interface{}
	for _, child := range children {
		sql, v := compileCondition(d, child, now)
		parts = append(parts, sql)
		vars = append(vars, v...)
	}
	return join(parts, sep, empty), vars
}

func join(parts []string, sep, empty string) string {
	if len(parts) == 0 {
		return empty
	}
	return "(" + strings.Join(parts, sep) + ")"
}
