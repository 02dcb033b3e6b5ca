package extractor

import (
	"path"
	"sort"
	"strings"

	"github.com/bravo68web/repolens/internal/domain/models"
)

// maxFilesPerCategory bounds each reference file category
const maxFilesPerCategory = 20

// ReferenceCategories group the files worth jumping to from a project page
var ReferenceCategories = map[string][]string{
	"docs":    {"*.md", "docs/**/*", "doc/**/*"},
	"config":  {"*.toml", "*.yaml", "*.yml", "*.json", "*.ini", ".env.example", "config/**/*"},
	"ci":      {".github/workflows/*", ".gitlab-ci.yml", ".circleci/*", ".travis.yml", "Jenkinsfile"},
	"scripts": {"scripts/**/*", "*.sh", "Makefile", "justfile", "Taskfile.yml"},
}

// referenceFiles lists matching files per category, sorted and capped
func referenceFiles(fc *fileCache) map[string][]string {
	out := make(map[string][]string)
	for category, patterns := range ReferenceCategories {
		seen := make(map[string]bool)
		var files []string
		for _, p := range patterns {
			for _, f := range fc.Match(p, false) {
				if !seen[f] {
					seen[f] = true
					files = append(files, f)
				}
			}
		}
		if len(files) == 0 {
			continue
		}
		sort.Strings(files)
		if len(files) > maxFilesPerCategory {
			files = files[:maxFilesPerCategory]
		}
		out[category] = files
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// countDocs counts markdown files, files under docs/ and whether a README exists
func countDocs(fc *fileCache) models.DocCounts {
	counts := models.DocCounts{
		Markdown: len(fc.Match("**/*.md", false)),
		DocsDir:  len(fc.Match("docs/**/*", false)),
	}
	for _, f := range fc.Match("*", false) {
		if strings.HasPrefix(strings.ToLower(path.Base(f)), "readme") {
			counts.HasReadme = true
			break
		}
	}
	return counts
}
