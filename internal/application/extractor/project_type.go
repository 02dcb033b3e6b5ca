package extractor

import (
	"strings"

	"github.com/bravo68web/repolens/internal/domain/models"
)

// typeRule assigns Type when any of Tags is present. When Files or
// ManifestKey is set, one of them must also be satisfied.
type typeRule struct {
	Type        string
	Tags        []string
	Files       []string
	ManifestKey string
}

// TypeRules is first-match-wins; projects matching none are unknown
var TypeRules = []typeRule{
	{Type: "mobile", Tags: []string{"flutter", "dart", "swift"}},
	{Type: "web-frontend", Tags: []string{"nextjs", "react", "vue", "svelte"}},
	{Type: "web-backend", Tags: []string{"django", "flask", "fastapi", "rails", "express"}},
	{Type: "infrastructure", Tags: []string{"terraform"}},
	{Type: "data-science", Tags: []string{"jupyter"}},
	{
		Type:        "cli",
		Tags:        []string{"go", "rust", "python", "node"},
		Files:       []string{"cmd", "main.go", "src/main.rs", "__main__.py", "**/__main__.py", "bin"},
		ManifestKey: `"bin"`,
	},
	{Type: "library", Tags: []string{"go", "rust", "python", "node", "typescript", "ruby", "java", "dotnet", "php", "elixir", "cpp"}},
	{Type: "service", Tags: []string{"docker"}},
}

// inferProjectType walks TypeRules over the detected tags
func inferProjectType(tags []string, fc *fileCache) string {
	has := make(map[string]bool, len(tags))
	for _, t := range tags {
		has[t] = true
	}

	for _, rule := range TypeRules {
		if rule.matches(has, fc) {
			return rule.Type
		}
	}
	return models.ProjectTypeUnknown
}

func (r typeRule) matches(has map[string]bool, fc *fileCache) bool {
	tagged := false
	for _, t := range r.Tags {
		if has[t] {
			tagged = true
			break
		}
	}
	if !tagged {
		return false
	}
	if len(r.Files) == 0 && r.ManifestKey == "" {
		return true
	}

	for _, f := range r.Files {
		if fc.Has(f) {
			return true
		}
	}
	return r.ManifestKey != "" && strings.Contains(fc.Text("package.json"), r.ManifestKey)
}
