package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/bravo68web/repolens/internal/application/dto"
	"github.com/bravo68web/repolens/internal/application/extractor"
	"github.com/bravo68web/repolens/internal/config"
	"github.com/bravo68web/repolens/internal/domain/models"
	"github.com/bravo68web/repolens/internal/domain/repository"
	"github.com/bravo68web/repolens/internal/infrastructure/otel"
	apperror "github.com/bravo68web/repolens/pkg/errors"
	"github.com/bravo68web/repolens/pkg/logger"
)

// summaryRecent is how many of the most recently committed projects the summary lists
const summaryRecent = 5

// ScanService sequences discovery, extraction, cutoff filtering and upsert
type ScanService struct {
	extractor *extractor.Extractor
	projects  repository.ProjectRepository
	now       func() time.Time
	log       *logger.Logger
}

// NewScanService creates a new ScanService instance
func NewScanService(ex *extractor.Extractor, projects repository.ProjectRepository) *ScanService {
	return &ScanService{
		extractor: ex,
		projects:  projects,
		now:       time.Now,
		log:       logger.Get().WithFields(logger.Component("scan")),
	}
}

// extraction is the outcome for one discovered path
type extraction struct {
	path    string
	project *models.Project
	err     error
	done    bool
}

// Run performs one scan. Invalid options fail with a field-level validation
// error; past validation a result with a summary is always returned, and the
// error is only set when discovery fails or the run is cancelled.
func (s *ScanService) Run(ctx context.Context, opts dto.ScanOptions) (result *dto.ScanResult, err error) {
	defaults := config.DefaultScanConfig()
	if opts.Workers == 0 {
		opts.Workers = defaults.Workers
	}
	if opts.RepoTimeout == 0 {
		opts.RepoTimeout = defaults.RepoTimeout()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ctx, span := otel.StartSpan(ctx, "scan", "run",
		attribute.String("root", opts.Root),
		attribute.Bool("dry_run", opts.DryRun),
	)
	defer func() { otel.EndSpan(span, err) }()
	log := s.log.WithContext(ctx)

	// One clock reading anchors every repository in this run.
	now := s.now()
	var cutoff string
	if opts.CutoffDays > 0 {
		cutoff = models.FormatCommitDate(now.AddDate(0, 0, -opts.CutoffDays))
	}
	var identity *string
	if opts.Identity != "" {
		identity = &opts.Identity
	}

	result = &dto.ScanResult{}
	defer func() { result.Summary = summarize(result, opts.DryRun, err) }()

	paths, err := extractor.Discover(ctx, extractor.DiscoverOptions{
		Root:     opts.Root,
		MaxDepth: opts.MaxDepth,
		Ignore:   opts.Ignore,
	})
	if err != nil {
		log.Error("Discovery failed", logger.String("root", opts.Root), logger.Error(err))
		return result, apperror.Wrap(err, "discover repositories")
	}
	result.Discovered = len(paths)
	log.Info("Discovered repositories",
		logger.String("root", opts.Root),
		logger.Int("count", len(paths)),
		logger.Bool("dry_run", opts.DryRun),
		logger.Time("now", now),
	)

	outcomes := s.extractAll(ctx, paths, identity, now, opts)

	for _, o := range outcomes {
		switch {
		case !o.done:
			continue
		case o.err != nil && apperror.IsSkip(o.err):
			result.Skipped++
			log.Info("Skipping repository", logger.Repository(o.path), logger.String("reason", o.err.Error()))
		case o.err != nil:
			result.Errored++
			log.Warn("Extraction failed", logger.Repository(o.path), logger.Error(o.err))
		case cutoff != "" && o.project.LastCommitDate != "" && o.project.LastCommitDate < cutoff:
			result.Filtered++
			log.Debug("Older than cutoff", logger.Repository(o.path), logger.String("last_commit", o.project.LastCommitDate))
		default:
			result.Projects = append(result.Projects, o.project)
		}
	}

	if !opts.DryRun {
		for _, p := range result.Projects {
			if ctx.Err() != nil {
				break
			}
			if err := s.projects.Upsert(ctx, p); err != nil {
				result.Errored++
				log.Warn("Failed to save project", logger.Repository(p.Path), logger.Error(err))
				continue
			}
			result.Saved++
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Warn("Scan interrupted", logger.Int("saved", result.Saved))
		return result, ctxErr
	}

	log.Info("Scan finished",
		logger.Int("saved", result.Saved),
		logger.Int("skipped", result.Skipped),
		logger.Int("errored", result.Errored),
		logger.Int("filtered", result.Filtered),
	)
	return result, nil
}

// extractAll runs the extractor over paths on a bounded pool. Outcomes keep
// the discovery order. Paths not started before cancellation, and extractions
// cut short by it, stay undone.
func (s *ScanService) extractAll(ctx context.Context, paths []string, identity *string, now time.Time, opts dto.ScanOptions) []extraction {
	outcomes := make([]extraction, len(paths))

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, path := range paths {
		outcomes[i].path = path
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// Queued behind the pool limit when the run was cancelled
			if ctx.Err() != nil {
				return nil
			}
			rctx, cancel := context.WithTimeout(ctx, opts.RepoTimeout)
			defer cancel()

			p, err := s.extractor.Extract(rctx, path, identity, now)
			if err != nil && ctx.Err() != nil {
				return nil
			}
			outcomes[i] = extraction{path: path, project: p, err: err, done: true}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// summarize renders the human readable run report
func summarize(r *dto.ScanResult, dryRun bool, runErr error) string {
	var b strings.Builder

	if dryRun {
		fmt.Fprintf(&b, "Dry run: discovered %d repositories, %d would be saved, %d skipped, %d errored, %d older than cutoff\n",
			r.Discovered, len(r.Projects), r.Skipped, r.Errored, r.Filtered)
	} else {
		fmt.Fprintf(&b, "Discovered %d repositories: %d saved, %d skipped, %d errored, %d older than cutoff\n",
			r.Discovered, r.Saved, r.Skipped, r.Errored, r.Filtered)
	}
	if runErr != nil {
		fmt.Fprintf(&b, "Stopped early: %v\n", runErr)
	}
	if len(r.Projects) == 0 {
		return b.String()
	}

	forks := 0
	types := make(map[string]int)
	for _, p := range r.Projects {
		if p.IsFork {
			forks++
		}
		t := p.Meta().ProjectType
		if t == "" {
			t = models.ProjectTypeUnknown
		}
		types[t]++
	}
	fmt.Fprintf(&b, "Ownership: %d owned, %d forks\n", len(r.Projects)-forks, forks)

	names := make([]string, 0, len(types))
	for t := range types {
		names = append(names, t)
	}
	sort.Slice(names, func(i, j int) bool {
		if types[names[i]] != types[names[j]] {
			return types[names[i]] > types[names[j]]
		}
		return names[i] < names[j]
	})
	parts := make([]string, len(names))
	for i, t := range names {
		parts[i] = fmt.Sprintf("%s %d", t, types[t])
	}
	fmt.Fprintf(&b, "Types: %s\n", strings.Join(parts, ", "))

	recent := make([]*models.Project, len(r.Projects))
	copy(recent, r.Projects)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].LastCommitDate > recent[j].LastCommitDate
	})
	if len(recent) > summaryRecent {
		recent = recent[:summaryRecent]
	}
	b.WriteString("Most recent:\n")
	for _, p := range recent {
		date := "unknown"
		if t, ok := p.LastCommitTime(); ok {
			date = t.Format("2006-01-02")
		}
		fmt.Fprintf(&b, "  %s  %s (%s)\n", date, p.Name, p.Path)
	}
	return b.String()
}
