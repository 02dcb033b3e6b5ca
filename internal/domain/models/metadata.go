package models

import (
	"encoding/json"
	"reflect"
	"strings"
)

// JSON keys the store queries into. They must match the tags on Metadata.
const (
	MetaKeyDescription      = "description"
	MetaKeyCurrentState     = "current_state"
	MetaKeyDeploymentStatus = "deployment_status"
	MetaKeyTechStack        = "tech_stack"
	MetaKeyProjectType      = "project_type"
	MetaKeyCommitsInWindow  = "commits_in_window"
)

// ProjectTypeUnknown is the project type when no rule matched
const ProjectTypeUnknown = "unknown"

// CommitSummary is one entry of the recent commit list
type CommitSummary struct {
	Date    string `json:"date"`
	Message string `json:"message"`
}

// DocCounts summarizes documentation present in a repository
type DocCounts struct {
	Markdown  int  `json:"markdown"`
	DocsDir   int  `json:"docs_dir"`
	HasReadme bool `json:"has_readme"`
}

// Metadata is the semi-structured attribute bag stored in the JSON column.
// Keys the typed fields do not know about are kept in Extra and written back
// unchanged, so records written by newer scanners survive older readers.
type Metadata struct {
	LastCommitAuthor string              `json:"last_commit_author,omitempty"`
	RecentCommits    []CommitSummary     `json:"recent_commits,omitempty"`
	CommitsInWindow  int                 `json:"commits_in_window"`
	CommitWindowDays int                 `json:"commit_window_days,omitempty"`
	Contributors     []string            `json:"contributors,omitempty"`
	RemoteURL        *string             `json:"remote_url,omitempty"`
	ReferenceFiles   map[string][]string `json:"reference_files,omitempty"`
	Description      *string             `json:"description,omitempty"`
	CurrentState     *string             `json:"current_state,omitempty"`
	TechStack        []string            `json:"tech_stack"`
	ProjectType      string              `json:"project_type"`
	DeploymentStatus *string             `json:"deployment_status,omitempty"`
	NestedRepos      []string            `json:"nested_repos,omitempty"`
	DocCounts        DocCounts           `json:"doc_counts"`
	AIDescription    *string             `json:"ai_description,omitempty"`
	Errors           []string            `json:"errors,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type metadataFields Metadata

var knownMetadataKeys = func() map[string]struct{} {
	keys := make(map[string]struct{})
	t := reflect.TypeOf(metadataFields{})
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[name] = struct{}{}
		}
	}
	return keys
}()

// MarshalJSON writes the typed fields and then any extension keys
func (m Metadata) MarshalJSON() ([]byte, error) {
	if m.TechStack == nil {
		m.TechStack = []string{}
	}
	known, err := json.Marshal(metadataFields(m))
	if err != nil || len(m.Extra) == 0 {
		return known, err
	}

	merged := make(map[string]json.RawMessage, len(m.Extra)+len(knownMetadataKeys))
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for k, v := range m.Extra {
		if _, typed := knownMetadataKeys[k]; typed {
			continue
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON fills the typed fields and parks unknown keys in Extra
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var fields metadataFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range raw {
		if _, typed := knownMetadataKeys[k]; typed {
			delete(raw, k)
		}
	}

	*m = Metadata(fields)
	if len(raw) > 0 {
		m.Extra = raw
	}
	return nil
}

// AddTech appends tag unless it is already present
func (m *Metadata) AddTech(tag string) {
	for _, t := range m.TechStack {
		if t == tag {
			return
		}
	}
	m.TechStack = append(m.TechStack, tag)
}

// Text returns the narrative stored under one of the MetaKey constants
func (m *Metadata) Text(key string) string {
	var v *string
	switch key {
	case MetaKeyDescription:
		v = m.Description
	case MetaKeyCurrentState:
		v = m.CurrentState
	case MetaKeyDeploymentStatus:
		v = m.DeploymentStatus
	case MetaKeyProjectType:
		return m.ProjectType
	}
	if v == nil {
		return ""
	}
	return *v
}
