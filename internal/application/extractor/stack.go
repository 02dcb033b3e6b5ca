package extractor

import (
	"strings"
)

// techRule tags a repository when any marker is present. When Contains is
// set, at least one marker file must also contain it (case-insensitively).
type techRule struct {
	Tag      string
	Markers  []string
	Contains string
}

var (
	pythonManifests = []string{"pyproject.toml", "requirements.txt", "requirements/*.txt", "setup.py", "Pipfile"}
	composeFiles    = []string{"docker-compose*.yml", "docker-compose*.yaml", "compose.yml", "compose.yaml"}
)

// TechRules is evaluated in order; tags keep first-seen order without duplicates
var TechRules = []techRule{
	{Tag: "go", Markers: []string{"go.mod"}},
	{Tag: "rust", Markers: []string{"Cargo.toml"}},
	{Tag: "node", Markers: []string{"package.json"}},
	{Tag: "typescript", Markers: []string{"tsconfig.json"}},
	{Tag: "react", Markers: []string{"package.json"}, Contains: `"react"`},
	{Tag: "nextjs", Markers: []string{"package.json"}, Contains: `"next"`},
	{Tag: "vue", Markers: []string{"package.json"}, Contains: `"vue"`},
	{Tag: "svelte", Markers: []string{"package.json"}, Contains: `"svelte"`},
	{Tag: "express", Markers: []string{"package.json"}, Contains: `"express"`},
	{Tag: "python", Markers: pythonManifests},
	{Tag: "django", Markers: pythonManifests, Contains: "django"},
	{Tag: "flask", Markers: pythonManifests, Contains: "flask"},
	{Tag: "fastapi", Markers: pythonManifests, Contains: "fastapi"},
	{Tag: "ruby", Markers: []string{"Gemfile"}},
	{Tag: "rails", Markers: []string{"Gemfile"}, Contains: "rails"},
	{Tag: "java", Markers: []string{"pom.xml", "build.gradle", "build.gradle.kts"}},
	{Tag: "dotnet", Markers: []string{"*.csproj", "*.sln", "*.fsproj"}},
	{Tag: "php", Markers: []string{"composer.json"}},
	{Tag: "elixir", Markers: []string{"mix.exs"}},
	{Tag: "dart", Markers: []string{"pubspec.yaml"}},
	{Tag: "flutter", Markers: []string{"pubspec.yaml"}, Contains: "flutter"},
	{Tag: "swift", Markers: []string{"Package.swift", "*.xcodeproj"}},
	{Tag: "cpp", Markers: []string{"CMakeLists.txt"}},
	{Tag: "docker", Markers: append([]string{"Dockerfile", "**/Dockerfile"}, composeFiles...)},
	{Tag: "terraform", Markers: []string{"**/*.tf"}},
	{Tag: "jupyter", Markers: []string{"**/*.ipynb"}},
	{Tag: "make", Markers: []string{"Makefile"}},
}

// detectTechStack applies TechRules to the repository listing
func detectTechStack(fc *fileCache) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, rule := range TechRules {
		if seen[rule.Tag] || !rule.matches(fc) {
			continue
		}
		seen[rule.Tag] = true
		tags = append(tags, rule.Tag)
	}
	return tags
}

func (r techRule) matches(fc *fileCache) bool {
	for _, marker := range r.Markers {
		if r.Contains == "" {
			if fc.Has(marker) {
				return true
			}
			continue
		}
		for _, file := range fc.Match(marker, false) {
			if strings.Contains(strings.ToLower(fc.Text(file)), strings.ToLower(r.Contains)) {
				return true
			}
		}
	}
	return false
}
