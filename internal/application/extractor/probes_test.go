package extractor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bravo68web/repolens/internal/config"
)

func writeTree(t *testing.T, files map[string]string) *fileCache {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return newFileCache(root, config.DefaultIgnorePatterns)
}

func TestDetectTechStack(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  []string
	}{
		{
			name:  "go with docker",
			files: map[string]string{"go.mod": "module x", "Dockerfile": "FROM scratch", "Makefile": "all:"},
			want:  []string{"go", "docker", "make"},
		},
		{
			name: "next app",
			files: map[string]string{
				"package.json":  `{"dependencies": {"next": "14", "react": "18"}}`,
				"tsconfig.json": "{}",
			},
			want: []string{"node", "typescript", "react", "nextjs"},
		},
		{
			name:  "django from requirements",
			files: map[string]string{"requirements.txt": "Django==5.0\npsycopg"},
			want:  []string{"python", "django"},
		},
		{
			name:  "flutter",
			files: map[string]string{"pubspec.yaml": "name: app\ndependencies:\n  flutter:\n    sdk: flutter\n"},
			want:  []string{"dart", "flutter"},
		},
		{
			name:  "nested terraform and notebooks",
			files: map[string]string{"infra/main.tf": "", "notebooks/eda.ipynb": "{}"},
			want:  []string{"terraform", "jupyter"},
		},
		{
			name:  "markers below the listing depth are not seen",
			files: map[string]string{"infra/envs/prod/main.tf": ""},
			want:  nil,
		},
		{
			name:  "markers at the listing depth are seen",
			files: map[string]string{"infra/envs/main.tf": ""},
			want:  []string{"terraform"},
		},
		{
			name:  "ignored dependency directories are not scanned",
			files: map[string]string{"node_modules/x/main.tf": ""},
			want:  nil,
		},
		{
			name:  "substring of a dependency name is not a match",
			files: map[string]string{"package.json": `{"dependencies": {"preact": "10"}}`},
			want:  []string{"node"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectTechStack(writeTree(t, tt.files)))
		})
	}
}

func TestTechRulesHaveUniqueTags(t *testing.T) {
	// A tag may appear under several rules, but never twice in the output
	fc := writeTree(t, map[string]string{"Dockerfile": "", "svc/Dockerfile": "", "compose.yaml": ""})
	assert.Equal(t, []string{"docker"}, detectTechStack(fc))
}

func TestInferProjectType(t *testing.T) {
	tests := []struct {
		name  string
		tags  []string
		files map[string]string
		want  string
	}{
		{"mobile beats frontend", []string{"dart", "flutter", "react"}, nil, "mobile"},
		{"frontend", []string{"node", "react"}, nil, "web-frontend"},
		{"backend", []string{"python", "django"}, nil, "web-backend"},
		{"go cli with cmd dir", []string{"go"}, map[string]string{"cmd/tool/main.go": ""}, "cli"},
		{"node cli with bin", []string{"node"}, map[string]string{"package.json": `{"bin": {"x": "index.js"}}`}, "cli"},
		{"go library", []string{"go"}, map[string]string{"lib.go": ""}, "library"},
		{"docker only", []string{"docker"}, nil, "service"},
		{"nothing", nil, nil, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferProjectType(tt.tags, writeTree(t, tt.files)))
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name:  "named section wins",
			files: map[string]string{"README.md": "# Tool\n\n[![ci](x)](y)\n\nIntro text.\n\n## About\n\nThe real\ndescription.\n\n## Usage\n"},
			want:  "The real description.",
		},
		{
			name:  "first paragraph skips badges and code",
			files: map[string]string{"README.md": "# Tool\n[![ci](x)](y)\n<p align=center>\n\n```sh\nmake\n```\n\nFast local search.\n"},
			want:  "Fast local search.",
		},
		{
			name:  "heading tail",
			files: map[string]string{"README.md": "# repolens - a local project index\n"},
			want:  "a local project index",
		},
		{
			name:  "later candidate when earlier is empty",
			files: map[string]string{"README.md": "\n\n", "docs/index.md": "Docs first paragraph."},
			want:  "Docs first paragraph.",
		},
		{
			name:  "package.json",
			files: map[string]string{"package.json": `{"description": "From npm"}`},
			want:  "From npm",
		},
		{
			name:  "cargo",
			files: map[string]string{"Cargo.toml": "[package]\nname = \"x\"\ndescription = \"From cargo\"\n"},
			want:  "From cargo",
		},
		{
			name:  "poetry",
			files: map[string]string{"pyproject.toml": "[tool.poetry]\ndescription = \"From poetry\"\n"},
			want:  "From poetry",
		},
		{
			name:  "pubspec",
			files: map[string]string{"pubspec.yaml": "name: app\ndescription: From pubspec\n"},
			want:  "From pubspec",
		},
		{
			name:  "humanized name",
			files: map[string]string{"main.go": "package main"},
			want:  "My Cool App",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(writeTree(t, tt.files), "my-cool_app"))
		})
	}
}

func TestDescribeTruncates(t *testing.T) {
	long := strings.Repeat("é", 400)
	got := describe(writeTree(t, map[string]string{"README.md": long}), "x")
	assert.Equal(t, 300, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestWorkState(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	todo := map[string]string{"TODO.md": "- [ ] one\n- [ ] two\n- [x] three\n* [X] four\n"}

	assert.Equal(t, "2 open tasks, 2 done; work in progress (last commit); active development",
		workState(writeTree(t, todo), "WIP: refactor", now.Add(-3*day), now))
	assert.Equal(t, "recently completed milestone; recent activity",
		workState(writeTree(t, nil), "Release v2", now.Add(-10*day), now))
	assert.Equal(t, "stale", workState(writeTree(t, nil), "tweak", now.Add(-200*day), now))
	assert.Equal(t, "unknown", workState(writeTree(t, nil), "tweak", now.Add(-60*day), now))
	assert.Equal(t, "work in progress (last commit)", workState(writeTree(t, nil), "Draft parser", time.Time{}, now))
}

func TestDeploymentStatus(t *testing.T) {
	assert.Equal(t, "unknown", deploymentStatus(writeTree(t, map[string]string{"main.go": ""})))

	fc := writeTree(t, map[string]string{
		"Dockerfile":                   "",
		"docker-compose.prod.yml":      "",
		"fly.toml":                     "",
		".github/workflows/deploy.yml": "",
		"k8s/deployment.yaml":          "",
		"package.json":                 `{"scripts": {"deploy": "fly deploy"}}`,
		"README.md":                    "Live at https://example.com, see the demo.",
	})
	assert.Equal(t,
		"likely deployed (Dockerfile, docker compose, Fly.io config, Kubernetes manifests, deploy workflow, deploy script, README mentions deployment, README links a demo)",
		deploymentStatus(fc))
}

func TestDeploymentReadmePhrases(t *testing.T) {
	tests := []struct {
		readme string
		want   string
	}{
		{"Not ready for production yet.", "unknown"},
		{"This is not in production.", "unknown"},
		{"Production hardening is on the roadmap.", "unknown"},
		{"Running in production since 2024.", "likely deployed (README mentions deployment)"},
		{"Production URL: https://app.example.com", "likely deployed (README mentions deployment)"},
		{"Deployed to Fly.io.", "likely deployed (README mentions deployment)"},
	}

	for _, tt := range tests {
		t.Run(tt.readme, func(t *testing.T) {
			assert.Equal(t, tt.want, deploymentStatus(writeTree(t, map[string]string{"README.md": tt.readme})))
		})
	}
}

func TestReferenceFilesAndDocCounts(t *testing.T) {
	fc := writeTree(t, map[string]string{
		"README.md":                "# x",
		"CHANGELOG.md":             "",
		"docs/guide.md":            "",
		"docs/api/ref.md":          "",
		"config.toml":              "",
		".github/workflows/ci.yml": "",
		"scripts/release.sh":       "",
		"archive/old.md":           "",
		"a/b/c/d/too-deep.md":      "",
		"a/b/c/deep.md":            "",
	})

	refs := referenceFiles(fc)
	assert.Equal(t, []string{"CHANGELOG.md", "README.md", "docs/api/ref.md", "docs/guide.md"}, refs["docs"])
	assert.Equal(t, []string{"config.toml"}, refs["config"])
	assert.Equal(t, []string{".github/workflows/ci.yml"}, refs["ci"])
	assert.Equal(t, []string{"scripts/release.sh"}, refs["scripts"])

	counts := countDocs(fc)
	assert.Equal(t, 4, counts.Markdown)
	assert.Equal(t, 2, counts.DocsDir)
	assert.True(t, counts.HasReadme)
}

func TestReferenceFilesCapped(t *testing.T) {
	files := map[string]string{}
	for i := 0; i < 30; i++ {
		files[filepath.Join("docs", string(rune('a'+i%26))+strings.Repeat("x", i/26)+".md")] = ""
	}
	refs := referenceFiles(writeTree(t, files))
	assert.Len(t, refs["docs"], maxFilesPerCategory)
}

func TestNestedRepos(t *testing.T) {
	fc := writeTree(t, map[string]string{
		".git/HEAD":            "ref: refs/heads/main",
		"plugins/a/.git/HEAD":  "ref: refs/heads/main",
		"vendor/lib/.git/HEAD": "ref: refs/heads/main",
		"tools/sub/.git":       "gitdir: ../../.git/modules/sub",
	})
	assert.Equal(t, []string{"plugins/a", "tools/sub"}, fc.Nested())
}

func TestFileCacheBoundsReads(t *testing.T) {
	fc := writeTree(t, map[string]string{"big.txt": strings.Repeat("x", maxReadBytes+100)})
	data, err := fc.Read("big.txt")
	require.NoError(t, err)
	assert.Len(t, data, maxReadBytes)

	_, err = fc.Read("missing.txt")
	assert.Error(t, err)
	assert.Equal(t, "", fc.Text("missing.txt"))
}
