package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bravo68web/repolens/internal/application/dto"
	"github.com/bravo68web/repolens/internal/domain/models"
	"github.com/bravo68web/repolens/internal/domain/repository"
	"github.com/bravo68web/repolens/internal/domain/status"
	"github.com/bravo68web/repolens/pkg/logger"
)

// RecentlyViewedLimit bounds the sidebar's recently viewed list
const RecentlyViewedLimit = 10

// ProjectQueryService answers read-side questions about scanned projects
type ProjectQueryService struct {
	projects repository.ProjectRepository
	now      func() time.Time
	log      *logger.Logger
}

// NewProjectQueryService creates a new ProjectQueryService instance
func NewProjectQueryService(projects repository.ProjectRepository) *ProjectQueryService {
	return &ProjectQueryService{
		projects: projects,
		now:      time.Now,
		log:      logger.Get().WithFields(logger.Component("project_query")),
	}
}

// QueryProjects runs the page query and the count query concurrently
// against the same predicate
func (s *ProjectQueryService) QueryProjects(ctx context.Context, params dto.FilterParams) (*dto.ProjectPage, error) {
	filter, sort, normalized := s.normalize(ctx, params)
	offset := (normalized.Page - 1) * dto.PageSize

	var (
		projects []*models.Project
		total    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		projects, err = s.projects.Find(gctx, filter, sort, dto.PageSize, offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.projects.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Debug("Projects queried",
		logger.Operation("query_projects"),
		logger.Query(filter.Search),
		logger.Int64("total", total),
	)

	return &dto.ProjectPage{
		Projects:   projects,
		TotalCount: total,
		Page:       normalized.Page,
		PageSize:   dto.PageSize,
		TotalPages: int((total + dto.PageSize - 1) / dto.PageSize),
		Filter:     normalized,
	}, nil
}

// LoadSidebar gathers the sidebar lists and counts concurrently
func (s *ProjectQueryService) LoadSidebar(ctx context.Context) (*dto.SidebarAggregates, error) {
	now := s.now()
	out := &dto.SidebarAggregates{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.Pinned, err = s.projects.Pinned(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.RecentlyViewed, err = s.projects.RecentlyViewed(gctx, RecentlyViewedLimit)
		return err
	})
	g.Go(func() error {
		var err error
		out.ActiveThisWeekCount, err = s.projects.Count(gctx, repository.ProjectFilter{Status: status.ActiveThisWeek, Now: now})
		return err
	})
	g.Go(func() error {
		var err error
		out.StalledCount, err = s.projects.Count(gctx, repository.ProjectFilter{Status: status.Stalled, Now: now})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// DistinctTechStacks lists every tech tag present, sorted
func (s *ProjectQueryService) DistinctTechStacks(ctx context.Context) ([]string, error) {
	return s.projects.DistinctTechStacks(ctx)
}

// DistinctTypes lists every project type present, sorted
func (s *ProjectQueryService) DistinctTypes(ctx context.Context) ([]string, error) {
	return s.projects.DistinctTypes(ctx)
}

// ComputeStatus classifies p as of now
func (s *ProjectQueryService) ComputeStatus(p *models.Project) status.Status {
	return status.Compute(p, s.now())
}

// FindAdjacent returns the neighbors of path in the full listing ordered by
// sortKey and order. Either neighbor is nil at the ends.
func (s *ProjectQueryService) FindAdjacent(ctx context.Context, path, sortKey, order string) (*models.Project, *models.Project, error) {
	sort, _, _ := s.parseSort(ctx, sortKey, order)
	return s.projects.Adjacent(ctx, path, sort)
}

// Get finds a project by its path
func (s *ProjectQueryService) Get(ctx context.Context, path string) (*models.Project, error) {
	return s.projects.Get(ctx, path)
}

// SetPinned pins or unpins the project at path
func (s *ProjectQueryService) SetPinned(ctx context.Context, path string, pinned bool) error {
	return s.projects.SetPinned(ctx, path, pinned)
}

// MarkViewed records a view of the project at path
func (s *ProjectQueryService) MarkViewed(ctx context.Context, path string) error {
	return s.projects.MarkViewed(ctx, path, s.now())
}

// normalize maps raw parameters onto a filter and sort. Unrecognized
// optional values leave their dimension unconstrained.
func (s *ProjectQueryService) normalize(ctx context.Context, p dto.FilterParams) (repository.ProjectFilter, repository.ProjectSort, dto.FilterParams) {
	log := s.log.WithContext(ctx)
	filter := repository.ProjectFilter{
		Search: strings.TrimSpace(p.Search),
		Tech:   strings.ToLower(strings.TrimSpace(p.Tech)),
		Type:   strings.ToLower(strings.TrimSpace(p.Type)),
		Now:    s.now(),
	}

	if raw := strings.TrimSpace(p.Status); raw != "" {
		if st, ok := status.Parse(raw); ok {
			filter.Status = st
		} else {
			log.Debug("Ignoring unknown status filter", logger.String("status", raw))
		}
	}

	switch raw := strings.ToLower(strings.TrimSpace(p.Ownership)); raw {
	case "":
	case string(repository.OwnershipOwned), string(repository.OwnershipFork):
		filter.Ownership = repository.Ownership(raw)
	default:
		log.Debug("Ignoring unknown ownership filter", logger.String("ownership", raw))
	}

	sort, sortKey, order := s.parseSort(ctx, p.Sort, p.Order)

	page := p.Page
	if page < 1 {
		page = 1
	}

	return filter, sort, dto.FilterParams{
		Search:    filter.Search,
		Status:    string(filter.Status),
		Tech:      filter.Tech,
		Type:      filter.Type,
		Ownership: string(filter.Ownership),
		Sort:      sortKey,
		Order:     order,
		Page:      page,
	}
}

// parseSort defaults to name, ascending for name and descending otherwise
func (s *ProjectQueryService) parseSort(ctx context.Context, rawKey, rawOrder string) (repository.ProjectSort, string, string) {
	key := repository.SortKey(strings.ToLower(strings.TrimSpace(rawKey)))
	switch key {
	case repository.SortName, repository.SortLastCommit, repository.SortCommits:
	default:
		if key != "" {
			s.log.WithContext(ctx).Debug("Ignoring unknown sort key", logger.String("sort", string(key)))
		}
		key = repository.SortName
	}

	desc := key != repository.SortName
	switch strings.ToLower(strings.TrimSpace(rawOrder)) {
	case "asc":
		desc = false
	case "desc":
		desc = true
	}

	order := "asc"
	if desc {
		order = "desc"
	}
	return repository.ProjectSort{Key: key, Desc: desc}, string(key), order
}
