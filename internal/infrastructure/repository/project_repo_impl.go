package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bravo68web/repolens/internal/domain/models"
	"github.com/bravo68web/repolens/internal/domain/repository"
	apperror "github.com/bravo68web/repolens/pkg/errors"
)

// scanColumns are the columns a rescan may overwrite
var scanColumns = []string{
	"name",
	"last_commit_date",
	"last_commit_message",
	"metadata",
	"is_fork",
	"search_text",
	"updated_at",
}

// ProjectRepoImpl implements the ProjectRepository interface using GORM
type ProjectRepoImpl struct {
	db *gorm.DB
	d  dialect
}

// NewProjectRepository creates a new instance of ProjectRepoImpl
func NewProjectRepository(db *gorm.DB) repository.ProjectRepository {
	return &ProjectRepoImpl{db: db, d: dialectOf(db)}
}

// Upsert is a single INSERT ... ON CONFLICT (path) DO UPDATE statement
func (r *ProjectRepoImpl) Upsert(ctx context.Context, p *models.Project) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "path"}},
			DoUpdates: clause.AssignmentColumns(scanColumns),
		}).
		Create(p).Error
	if err != nil {
		return apperror.DatabaseError("upsert", err)
	}
	return nil
}

// Get finds a project by its path
func (r *ProjectRepoImpl) Get(ctx context.Context, path string) (*models.Project, error) {
	var p models.Project
	err := r.db.WithContext(ctx).Where("path = ?", path).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("project", apperror.ErrNotFound)
		}
		return nil, apperror.DatabaseError("find", err)
	}
	return &p, nil
}

// Find returns one ordered page of projects matching filter
func (r *ProjectRepoImpl) Find(ctx context.Context, filter repository.ProjectFilter, sort repository.ProjectSort, limit, offset int) ([]*models.Project, error) {
	var projects []*models.Project
	err := r.where(r.db.WithContext(ctx), filter).
		Order(r.orderBy(sort)).
		Limit(limit).
		Offset(offset).
		Find(&projects).Error
	if err != nil {
		return nil, apperror.DatabaseError("list", err)
	}
	return projects, nil
}

// Count returns the number of projects matching filter
func (r *ProjectRepoImpl) Count(ctx context.Context, filter repository.ProjectFilter) (int64, error) {
	var count int64
	err := r.where(r.db.WithContext(ctx).Model(&models.Project{}), filter).
		Count(&count).Error
	if err != nil {
		return 0, apperror.DatabaseError("count", err)
	}
	return count, nil
}

// Pinned lists pinned projects by name
func (r *ProjectRepoImpl) Pinned(ctx context.Context) ([]*models.Project, error) {
	var projects []*models.Project
	err := r.db.WithContext(ctx).
		Where("is_pinned = ?", true).
		Order(r.orderBy(repository.ProjectSort{Key: repository.SortName})).
		Find(&projects).Error
	if err != nil {
		return nil, apperror.DatabaseError("list pinned", err)
	}
	return projects, nil
}

// RecentlyViewed lists the most recently viewed projects
func (r *ProjectRepoImpl) RecentlyViewed(ctx context.Context, limit int) ([]*models.Project, error) {
	var projects []*models.Project
	err := r.db.WithContext(ctx).
		Where("last_viewed_at IS NOT NULL").
		Order("last_viewed_at DESC, path ASC").
		Limit(limit).
		Find(&projects).Error
	if err != nil {
		return nil, apperror.DatabaseError("list recently viewed", err)
	}
	return projects, nil
}

// DistinctTechStacks returns every tech tag in use, sorted
func (r *ProjectRepoImpl) DistinctTechStacks(ctx context.Context) ([]string, error) {
	var tags []string
	if err := r.db.WithContext(ctx).Raw(r.d.distinctTechQuery()).Scan(&tags).Error; err != nil {
		return nil, apperror.DatabaseError("distinct tech stacks", err)
	}
	sort.Strings(tags)
	return tags, nil
}

// DistinctTypes returns every project type in use, sorted
func (r *ProjectRepoImpl) DistinctTypes(ctx context.Context) ([]string, error) {
	expr := r.d.jsonText(models.MetaKeyProjectType)
	var types []string
	err := r.db.WithContext(ctx).
		Raw("SELECT DISTINCT " + expr + " FROM projects WHERE COALESCE(" + expr + ", '') <> ''").
		Scan(&types).Error
	if err != nil {
		return nil, apperror.DatabaseError("distinct types", err)
	}
	sort.Strings(types)
	return types, nil
}

// Adjacent returns the neighbors of path in the full listing under sort.
// The ordering is the listing's own ORDER BY.
func (r *ProjectRepoImpl) Adjacent(ctx context.Context, path string, sort repository.ProjectSort) (*models.Project, *models.Project, error) {
	var paths []string
	err := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Order(r.orderBy(sort)).
		Pluck("path", &paths).Error
	if err != nil {
		return nil, nil, apperror.DatabaseError("list paths", err)
	}

	idx := -1
	for i, p := range paths {
		if p == path {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, apperror.NotFound("project", apperror.ErrNotFound)
	}

	var prev, next *models.Project
	if idx > 0 {
		if prev, err = r.Get(ctx, paths[idx-1]); err != nil {
			return nil, nil, err
		}
	}
	if idx < len(paths)-1 {
		if next, err = r.Get(ctx, paths[idx+1]); err != nil {
			return nil, nil, err
		}
	}
	return prev, next, nil
}

// SetPinned sets the pinned flag of the project at path
func (r *ProjectRepoImpl) SetPinned(ctx context.Context, path string, pinned bool) error {
	return r.updateColumn(ctx, path, "is_pinned", pinned)
}

// MarkViewed records that the project at path was viewed at the given time
func (r *ProjectRepoImpl) MarkViewed(ctx context.Context, path string, at time.Time) error {
	return r.updateColumn(ctx, path, "last_viewed_at", at.UTC())
}

// updateColumn leaves updated_at alone; it tracks scans, not browsing
func (r *ProjectRepoImpl) updateColumn(ctx context.Context, path, column string, value interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("path = ?", path).
		UpdateColumn(column, value)
	if result.Error != nil {
		return apperror.DatabaseError("update", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("project", apperror.ErrNotFound)
	}
	return nil
}

// where applies every constrained dimension of filter
func (r *ProjectRepoImpl) where(db *gorm.DB, filter repository.ProjectFilter) *gorm.DB {
	if q := strings.TrimSpace(filter.Search); q != "" {
		db = db.Where(`projects.search_text LIKE ? ESCAPE '\'`, searchPattern(q))
	}

	if filter.Status != "" {
		now := filter.Now
		if now.IsZero() {
			now = time.Now()
		}
		if expr, ok := compileStatus(r.d, filter.Status, now); ok {
			db = db.Where(expr.SQL, expr.Vars...)
		}
	}

	if filter.Tech != "" {
		db = db.Where(r.d.techMember(), filter.Tech)
	}

	if filter.Type != "" {
		db = db.Where(r.d.jsonText(models.MetaKeyProjectType)+" = ?", filter.Type)
	}

	switch filter.Ownership {
	case repository.OwnershipOwned:
		db = db.Where("projects.is_fork = ?", false)
	case repository.OwnershipFork:
		db = db.Where("projects.is_fork = ?", true)
	}

	return db
}

// orderBy renders the listing comparator, path breaking ties
func (r *ProjectRepoImpl) orderBy(s repository.ProjectSort) string {
	dir := " ASC"
	if s.Desc {
		dir = " DESC"
	}

	var key string
	switch s.Key {
	case repository.SortLastCommit:
		key = r.d.commitDate()
	case repository.SortCommits:
		key = "CAST(COALESCE(" + r.d.jsonText(models.MetaKeyCommitsInWindow) + ", '0') AS INTEGER)"
	default:
		key = "LOWER(projects.name)"
	}
	return key + dir + ", projects.path ASC"
}
