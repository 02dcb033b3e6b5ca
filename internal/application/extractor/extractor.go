// Package extractor discovers repositories on disk and derives their metadata
package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bravo68web/repolens/internal/domain/models"
	"github.com/bravo68web/repolens/internal/domain/ownership"
	"github.com/bravo68web/repolens/internal/domain/service"
	"github.com/bravo68web/repolens/internal/infrastructure/otel"
	apperror "github.com/bravo68web/repolens/pkg/errors"
	"github.com/bravo68web/repolens/pkg/logger"
)

// Options tune a single extraction
type Options struct {
	RecentCommits    int
	ContributorLimit int
	CommitWindowDays int
	Ignore           []string
}

// DefaultOptions returns the default extraction options
func DefaultOptions() Options {
	return Options{
		RecentCommits:    10,
		ContributorLimit: 500,
		CommitWindowDays: 30,
	}
}

// Extractor builds a project record from a repository on disk
type Extractor struct {
	git       service.GitService
	describer service.Describer
	opts      Options
	log       *logger.Logger
}

// New creates an Extractor. describer may be nil.
func New(git service.GitService, describer service.Describer, opts Options) *Extractor {
	if opts.RecentCommits <= 0 {
		opts.RecentCommits = DefaultOptions().RecentCommits
	}
	if opts.ContributorLimit <= 0 {
		opts.ContributorLimit = DefaultOptions().ContributorLimit
	}
	if opts.CommitWindowDays <= 0 {
		opts.CommitWindowDays = DefaultOptions().CommitWindowDays
	}
	return &Extractor{
		git:       git,
		describer: describer,
		opts:      opts,
		log:       logger.Get().WithFields(logger.Component("extractor")),
	}
}

// probeErrors collects non-fatal probe failures for one extraction
type probeErrors []string

// runProbe isolates one heuristic: an error or panic is recorded and the
// probe's output keeps its zero value
func (e *Extractor) runProbe(errs *probeErrors, repoPath, name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			*errs = append(*errs, fmt.Sprintf("%s: panic: %v", name, r))
			e.log.Warn("Probe panicked", logger.Repository(repoPath), logger.Probe(name), logger.Any("panic", r))
		}
	}()
	if err := fn(); err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", name, err))
		e.log.Debug("Probe failed", logger.Repository(repoPath), logger.Probe(name), logger.Error(err))
	}
}

// Extract reads one repository. It returns ErrNotRepository or ErrNoCommits
// for directories that must not be recorded; every other failure inside a
// probe lands in the metadata error list. now anchors the commit window.
func (e *Extractor) Extract(ctx context.Context, repoPath string, identity *string, now time.Time) (project *models.Project, err error) {
	ctx, span := otel.StartSpan(ctx, "extractor", "extract", attribute.String("repository", repoPath))
	defer func() { otel.EndSpan(span, err) }()

	// An unreadable repository is still recorded; the history probe reports why.
	if exists, openErr := e.git.RepositoryExists(ctx, repoPath); openErr == nil && !exists {
		return nil, apperror.ErrNotRepository
	}

	history, err := e.git.ReadHistory(ctx, repoPath, service.HistoryOptions{
		Recent:           e.opts.RecentCommits,
		ContributorLimit: e.opts.ContributorLimit,
		Since:            now.Add(-time.Duration(e.opts.CommitWindowDays) * 24 * time.Hour),
	})
	if err != nil {
		if apperror.IsSkip(err) || ctx.Err() != nil {
			return nil, err
		}
	}

	var (
		errs probeErrors
		meta = models.Metadata{CommitWindowDays: e.opts.CommitWindowDays, ProjectType: models.ProjectTypeUnknown}
		fc   = newFileCache(repoPath, e.opts.Ignore)
		name = filepath.Base(repoPath)
	)
	project = &models.Project{Path: repoPath, Name: name}

	var lastCommit time.Time
	e.runProbe(&errs, repoPath, "commit history", func() error {
		if err != nil {
			return err
		}
		lastCommit = history.Last.AuthorDate
		project.LastCommitDate = models.FormatCommitDate(lastCommit)
		subject := strings.TrimSpace(history.Last.Subject())
		project.LastCommitMessage = &subject

		meta.LastCommitAuthor = history.Last.Author
		meta.Contributors = history.Contributors
		meta.CommitsInWindow = history.CommitsInWindow
		for _, c := range history.Recent {
			meta.RecentCommits = append(meta.RecentCommits, models.CommitSummary{
				Date:    models.FormatCommitDate(c.AuthorDate),
				Message: strings.TrimSpace(c.Subject()),
			})
		}
		return nil
	})

	e.runProbe(&errs, repoPath, "remote", func() error {
		url, ok, err := e.git.RemoteURL(ctx, repoPath)
		if err != nil {
			return err
		}
		if ok {
			meta.RemoteURL = &url
		}
		return nil
	})

	e.runProbe(&errs, repoPath, "tech stack", func() error {
		for _, tag := range detectTechStack(fc) {
			meta.AddTech(tag)
		}
		return nil
	})

	e.runProbe(&errs, repoPath, "project type", func() error {
		meta.ProjectType = inferProjectType(meta.TechStack, fc)
		return nil
	})

	e.runProbe(&errs, repoPath, "description", func() error {
		d := describe(fc, name)
		meta.Description = &d
		return nil
	})

	e.runProbe(&errs, repoPath, "work state", func() error {
		s := workState(fc, project.Message(), lastCommit, now)
		meta.CurrentState = &s
		return nil
	})

	e.runProbe(&errs, repoPath, "deployment", func() error {
		s := deploymentStatus(fc)
		meta.DeploymentStatus = &s
		return nil
	})

	e.runProbe(&errs, repoPath, "reference files", func() error {
		meta.ReferenceFiles = referenceFiles(fc)
		return nil
	})

	e.runProbe(&errs, repoPath, "nested repos", func() error {
		meta.NestedRepos = fc.Nested()
		return nil
	})

	e.runProbe(&errs, repoPath, "doc counts", func() error {
		meta.DocCounts = countDocs(fc)
		return nil
	})

	if e.describer != nil {
		e.runProbe(&errs, repoPath, "ai description", func() error {
			d, err := e.describer.Describe(ctx, service.DescribeInput{
				Name:        name,
				Readme:      readmeText(fc),
				TechStack:   meta.TechStack,
				ProjectType: meta.ProjectType,
			})
			if err != nil {
				return err
			}
			if d != "" {
				meta.AIDescription = &d
			}
			return nil
		})
	}

	meta.Errors = errs
	project.SetMeta(meta)
	project.IsFork = ownership.IsFork(meta.RemoteURL, identity)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return project, nil
}
