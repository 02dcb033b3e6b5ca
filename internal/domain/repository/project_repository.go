package repository

import (
	"context"
	"time"

	"github.com/bravo68web/repolens/internal/domain/models"
	"github.com/bravo68web/repolens/internal/domain/status"
)

// SortKey names a listing order
type SortKey string

const (
	SortName       SortKey = "name"
	SortLastCommit SortKey = "last_commit"
	SortCommits    SortKey = "commits"
)

// Ownership restricts a listing to owned projects or forks
type Ownership string

const (
	OwnershipOwned Ownership = "owned"
	OwnershipFork  Ownership = "fork"
)

// ProjectFilter is a set of optional, AND-composed constraints.
// A zero value field leaves that dimension unconstrained.
type ProjectFilter struct {
	Search    string
	Status    status.Status
	Tech      string
	Type      string
	Ownership Ownership

	// Now anchors status thresholds; required when Status is set
	Now time.Time
}

// ProjectSort is a listing order. Path always breaks ties.
type ProjectSort struct {
	Key  SortKey
	Desc bool
}

// ProjectRepository defines the interface for project record access
type ProjectRepository interface {
	// Upsert inserts p or updates the scan-owned columns of the record with the same path.
	// Pinned and last-viewed state is never touched.
	Upsert(ctx context.Context, p *models.Project) error

	// Get finds a project by its path
	Get(ctx context.Context, path string) (*models.Project, error)

	// Find returns one ordered page of projects matching filter
	Find(ctx context.Context, filter ProjectFilter, sort ProjectSort, limit, offset int) ([]*models.Project, error)

	// Count returns the number of projects matching filter
	Count(ctx context.Context, filter ProjectFilter) (int64, error)

	// Pinned lists pinned projects by name
	Pinned(ctx context.Context) ([]*models.Project, error)

	// RecentlyViewed lists the most recently viewed projects
	RecentlyViewed(ctx context.Context, limit int) ([]*models.Project, error)

	// DistinctTechStacks returns every tech tag in use, sorted
	DistinctTechStacks(ctx context.Context) ([]string, error)

	// DistinctTypes returns every project type in use, sorted
	DistinctTypes(ctx context.Context) ([]string, error)

	// Adjacent returns the neighbors of path in the full listing under sort
	Adjacent(ctx context.Context, path string, sort ProjectSort) (prev, next *models.Project, err error)

	// SetPinned sets the pinned flag of the project at path
	SetPinned(ctx context.Context, path string, pinned bool) error

	// MarkViewed records that the project at path was viewed at the given time
	MarkViewed(ctx context.Context, path string, at time.Time) error
}
