package injectable

import (
	"github.com/bravo68web/repolens/internal/application/extractor"
	"github.com/bravo68web/repolens/internal/application/service"
	"github.com/bravo68web/repolens/internal/config"
	domainservice "github.com/bravo68web/repolens/internal/domain/service"
	"github.com/bravo68web/repolens/internal/infrastructure/ai"
	"github.com/bravo68web/repolens/internal/infrastructure/database"
	"github.com/bravo68web/repolens/internal/infrastructure/git"
	"github.com/bravo68web/repolens/internal/infrastructure/repository"
	"github.com/bravo68web/repolens/pkg/logger"
)

// Dependencies holds all the dependencies required by the commands
type Dependencies struct {
	// Infrastructure
	GitService domainservice.GitService
	Describer  domainservice.Describer

	// Services
	Extractor           *extractor.Extractor
	ProjectQueryService *service.ProjectQueryService
	ScanService         *service.ScanService
}

func LoadDependencies(cfg *config.Config, db *database.Database) (Dependencies, error) {
	// Initialize repositories
	projectRepo := repository.NewProjectRepository(db.DB())

	gitService := git.NewGitOperations()

	// The AI describer is optional; without it the probe never runs
	var describer domainservice.Describer
	switch {
	case cfg.AI.IsConfigured():
		d, err := ai.NewDescriber(&cfg.AI)
		if err != nil {
			return Dependencies{}, err
		}
		describer = d
	case cfg.AI.Enabled:
		logger.Warn("AI descriptions enabled without an API key, skipping", logger.Component("injectable"))
	}

	// Initialize services
	ex := extractor.New(gitService, describer, extractor.Options{
		CommitWindowDays: cfg.Scan.CommitWindowDays,
		Ignore:           cfg.Scan.Ignore,
	})

	return Dependencies{
		GitService:          gitService,
		Describer:           describer,
		Extractor:           ex,
		ProjectQueryService: service.NewProjectQueryService(projectRepo),
		ScanService:         service.NewScanService(ex, projectRepo),
	}, nil
}
