package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CommitDateLayout is the single canonical text form of commit timestamps.
// Fixed width and always UTC so lexicographic order equals time order.
const CommitDateLayout = "2006-01-02T15:04:05Z"

// Project represents one discovered repository and its extracted metadata
type Project struct {
	ID                uuid.UUID                    `json:"id" gorm:"type:uuid;primaryKey"`
	Path              string                       `json:"path" gorm:"uniqueIndex;not null"`
	Name              string                       `json:"name" gorm:"not null;index"`
	LastCommitDate    string                       `json:"last_commit_date" gorm:"index"`
	LastCommitMessage *string                      `json:"last_commit_message"`
	Metadata          datatypes.JSONType[Metadata] `json:"metadata"`
	IsFork            bool                         `json:"is_fork" gorm:"default:false;index"`
	IsPinned          bool                         `json:"is_pinned" gorm:"default:false;index"`
	LastViewedAt      *time.Time                   `json:"last_viewed_at"`
	SearchText        string                       `json:"-" gorm:"not null;default:''"`
	CreatedAt         time.Time                    `json:"created_at"`
	UpdatedAt         time.Time                    `json:"updated_at"`
}

// TableName specifies the table name for Project
func (Project) TableName() string {
	return "projects"
}

// BeforeCreate assigns an id so inserts do not depend on a database uuid function
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BeforeSave refreshes the folded text that search matches against
func (p *Project) BeforeSave(tx *gorm.DB) error {
	p.SearchText = p.searchText()
	return nil
}

// searchText joins the searchable fields, case folded in Go so every store
// compares the same runes
func (p *Project) searchText() string {
	parts := []string{p.Name, p.Path, p.Message()}
	if d := p.Meta().Description; d != nil {
		parts = append(parts, *d)
	}
	return FoldSearch(strings.Join(parts, "\n"))
}

// FoldSearch is the case folding applied to stored search text and to queries
func FoldSearch(s string) string {
	return strings.ToLower(s)
}

// Meta returns a copy of the metadata blob
func (p *Project) Meta() Metadata {
	return p.Metadata.Data()
}

// SetMeta replaces the metadata blob
func (p *Project) SetMeta(m Metadata) {
	p.Metadata = datatypes.NewJSONType(m)
}

// Message returns the last commit message or an empty string
func (p *Project) Message() string {
	if p.LastCommitMessage == nil {
		return ""
	}
	return *p.LastCommitMessage
}

// LastCommitTime parses the stored last-commit timestamp
func (p *Project) LastCommitTime() (time.Time, bool) {
	if p.LastCommitDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(CommitDateLayout, p.LastCommitDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// HasTech reports exact membership of tag in the tech stack
func (p *Project) HasTech(tag string) bool {
	for _, t := range p.Meta().TechStack {
		if t == tag {
			return true
		}
	}
	return false
}

// FormatCommitDate renders t in the canonical commit timestamp form
func FormatCommitDate(t time.Time) string {
	return t.UTC().Format(CommitDateLayout)
}

// HumanizeName turns a directory name like "my-cool_app" into "My Cool App"
func HumanizeName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == ' '
	})
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
