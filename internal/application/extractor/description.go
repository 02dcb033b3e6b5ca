package extractor

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/bravo68web/repolens/internal/domain/models"
)

// maxDescriptionRunes bounds the stored description, ellipsis included
const maxDescriptionRunes = 300

// ReadmeCandidates are tried in order; the first one yielding text wins
var ReadmeCandidates = []string{
	"README.md",
	"README.rst",
	"README.txt",
	"README",
	"readme.md",
	"docs/README.md",
	"docs/index.md",
}

var (
	namedSection = regexp.MustCompile(`(?i)^#{1,6}\s+(about|overview|description|summary|introduction)\b`)
	headingLine  = regexp.MustCompile(`^#{1,6}\s*`)
	spaceRun     = regexp.MustCompile(`\s+`)
)

// manifestDescribers read a description field from a package manifest
var manifestDescribers = []struct {
	File  string
	Parse func([]byte) string
}{
	{"package.json", packageJSONDescription},
	{"Cargo.toml", cargoDescription},
	{"pyproject.toml", pyprojectDescription},
	{"pubspec.yaml", pubspecDescription},
}

// describe picks the best available description for the repository
func describe(fc *fileCache, name string) string {
	if text := readmeDescription(fc); text != "" {
		return truncateRunes(text, maxDescriptionRunes)
	}
	for _, m := range manifestDescribers {
		data, err := fc.Read(m.File)
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(m.Parse(data)); text != "" {
			return truncateRunes(text, maxDescriptionRunes)
		}
	}
	return models.HumanizeName(name)
}

// readmeText returns the first readable README candidate
func readmeText(fc *fileCache) string {
	for _, c := range ReadmeCandidates {
		if text := fc.Text(c); strings.TrimSpace(text) != "" {
			return text
		}
	}
	return ""
}

func readmeDescription(fc *fileCache) string {
	for _, c := range ReadmeCandidates {
		text := fc.Text(c)
		if strings.TrimSpace(text) == "" {
			continue
		}
		if d := descriptionFromReadme(text); d != "" {
			return d
		}
	}
	return ""
}

// descriptionFromReadme tries a named section, then the first prose
// paragraph, then the text of the first heading
func descriptionFromReadme(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	for i, line := range lines {
		if namedSection.MatchString(strings.TrimSpace(line)) {
			if p := firstParagraph(lines[i+1:], true); p != "" {
				return p
			}
		}
	}

	if p := firstParagraph(lines, false); p != "" {
		return p
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if headingLine.MatchString(line) {
			return headingTail(headingLine.ReplaceAllString(line, ""))
		}
	}
	return ""
}

// firstParagraph collects the first run of prose lines. With stopAtHeading
// the search ends at the next heading.
func firstParagraph(lines []string, stopAtHeading bool) string {
	var para []string
	inFence := false
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, "```") || strings.HasPrefix(line, "~~~") {
			inFence = !inFence
			if len(para) > 0 {
				break
			}
			continue
		}
		if inFence {
			continue
		}
		if line == "" || strings.HasPrefix(line, "#") || isDecoration(line) {
			if len(para) > 0 {
				break
			}
			if stopAtHeading && strings.HasPrefix(line, "#") {
				return ""
			}
			continue
		}
		para = append(para, line)
	}
	return strings.TrimSpace(spaceRun.ReplaceAllString(strings.Join(para, " "), " "))
}

// isDecoration matches badges, images, html and rules that are not prose
func isDecoration(line string) bool {
	switch {
	case strings.HasPrefix(line, "[!["), strings.HasPrefix(line, "!["):
		return true
	case strings.HasPrefix(line, "<"):
		return true
	case strings.Trim(line, "-=*_ ") == "":
		return true
	case strings.HasPrefix(line, "===") || strings.HasPrefix(line, "---"):
		return true
	}
	return false
}

// headingTail keeps the part after a title separator, if any
func headingTail(heading string) string {
	for _, sep := range []string{" - ", " – ", " — ", ": "} {
		if _, tail, ok := strings.Cut(heading, sep); ok && strings.TrimSpace(tail) != "" {
			return strings.TrimSpace(tail)
		}
	}
	return strings.TrimSpace(heading)
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func packageJSONDescription(data []byte) string {
	var pkg struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return ""
	}
	return pkg.Description
}

func cargoDescription(data []byte) string {
	var cargo struct {
		Package struct {
			Description string `toml:"description"`
		} `toml:"package"`
	}
	if err := toml.Unmarshal(data, &cargo); err != nil {
		return ""
	}
	return cargo.Package.Description
}

func pyprojectDescription(data []byte) string {
	var py struct {
		Project struct {
			Description string `toml:"description"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Description string `toml:"description"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &py); err != nil {
		return ""
	}
	if py.Project.Description != "" {
		return py.Project.Description
	}
	return py.Tool.Poetry.Description
}

func pubspecDescription(data []byte) string {
	var ps struct {
		Description string `yaml:"description"`
	}
	if err := yaml.Unmarshal(data, &ps); err != nil {
		return ""
	}
	return ps.Description
}
