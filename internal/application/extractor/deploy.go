package extractor

import (
	"encoding/json"
	"strings"
)

type deployIndicator struct {
	Pattern string
	Reason  string
}

// DeployIndicators are files and directories that suggest a deployment target
var DeployIndicators = []deployIndicator{
	{"Dockerfile", "Dockerfile"},
	{"docker-compose*.y*ml", "docker compose"},
	{"compose.y*ml", "docker compose"},
	{"fly.toml", "Fly.io config"},
	{"vercel.json", "Vercel config"},
	{"netlify.toml", "Netlify config"},
	{"Procfile", "Procfile"},
	{"app.yaml", "App Engine config"},
	{"render.yaml", "Render config"},
	{"railway.json", "Railway config"},
	{"serverless.yml", "Serverless config"},
	{"k8s", "Kubernetes manifests"},
	{"kubernetes", "Kubernetes manifests"},
	{"helm", "Helm chart"},
	{".github/workflows/*deploy*", "deploy workflow"},
	{"deploy.sh", "deploy script"},
}

var readmeDeployPhrases = []string{"deployed at", "deployed to", "live at", "in production", "production url"}

// readmeNegations cancel a deploy phrase when they appear just before it
var readmeNegations = []string{"not ", "n't ", "never ", "before "}

// deploymentStatus returns "likely deployed (<reasons>)" or "unknown"
func deploymentStatus(fc *fileCache) string {
	var reasons []string
	add := func(r string) {
		for _, existing := range reasons {
			if existing == r {
				return
			}
		}
		reasons = append(reasons, r)
	}

	for _, ind := range DeployIndicators {
		if fc.Has(ind.Pattern) {
			add(ind.Reason)
		}
	}

	if data, err := fc.Read("package.json"); err == nil {
		var pkg struct {
			Scripts map[string]string `json:"scripts"`
		}
		if json.Unmarshal(data, &pkg) == nil && pkg.Scripts["deploy"] != "" {
			add("deploy script")
		}
	}

	readme := strings.ToLower(readmeText(fc))
	if mentionsDeployment(readme) {
		add("README mentions deployment")
	}
	if strings.Contains(readme, "https://") && strings.Contains(readme, "demo") {
		add("README links a demo")
	}

	if len(reasons) == 0 {
		return stateUnknown
	}
	return "likely deployed (" + strings.Join(reasons, ", ") + ")"
}

// mentionsDeployment reports an unnegated deploy phrase in lowercased text
func mentionsDeployment(readme string) bool {
	for _, phrase := range readmeDeployPhrases {
		for from := 0; ; {
			i := strings.Index(readme[from:], phrase)
			if i < 0 {
				break
			}
			i += from
			lead := readme[max(0, i-24):i]
			if !containsAny(lead, readmeNegations) {
				return true
			}
			from = i + len(phrase)
		}
	}
	return false
}
