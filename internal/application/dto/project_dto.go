package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bravo68web/repolens/internal/domain/models"
	apperror "github.com/bravo68web/repolens/pkg/errors"
)

// PageSize is the fixed listing page size
const PageSize = 25

// FilterParams are raw listing parameters as a caller supplies them.
// Empty or unrecognized values leave a dimension unconstrained.
type FilterParams struct {
	Search    string `json:"search,omitempty"`
	Status    string `json:"status,omitempty"`
	Tech      string `json:"tech,omitempty"`
	Type      string `json:"type,omitempty"`
	Ownership string `json:"ownership,omitempty"`
	Sort      string `json:"sort,omitempty"`
	Order     string `json:"order,omitempty"`
	Page      int    `json:"page,omitempty"`
}

// ProjectPage is one page of a project listing
type ProjectPage struct {
	Projects   []*models.Project `json:"projects"`
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`

	// Filter holds the parameters after normalization
	Filter FilterParams `json:"filter"`
}

// SidebarAggregates feed the browsing sidebar
type SidebarAggregates struct {
	Pinned              []*models.Project `json:"pinned"`
	RecentlyViewed      []*models.Project `json:"recently_viewed"`
	ActiveThisWeekCount int64             `json:"active_this_week_count"`
	StalledCount        int64             `json:"stalled_count"`
}

// ScanOptions configure one scan run
type ScanOptions struct {
	Root        string        `json:"root" validate:"required,dir"`
	CutoffDays  int           `json:"cutoff_days" validate:"min=0"`
	DryRun      bool          `json:"dry_run"`
	Identity    string        `json:"identity,omitempty" validate:"omitempty,max=100"`
	MaxDepth    int           `json:"max_depth" validate:"min=1,max=32"`
	Ignore      []string      `json:"ignore,omitempty" validate:"dive,required"`
	Workers     int           `json:"workers" validate:"min=1,max=64"`
	RepoTimeout time.Duration `json:"repo_timeout" validate:"min=0"`
}

// ScanResult reports a scan run. A run always produces a result.
type ScanResult struct {
	Saved      int `json:"saved"`
	Skipped    int `json:"skipped"`
	Errored    int `json:"errored"`
	Discovered int `json:"discovered"`
	Filtered   int `json:"filtered"`

	Summary string `json:"summary"`

	// Projects are the extracted records that passed the cutoff, in path order
	Projects []*models.Project `json:"-"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate returns a field-level validation error for rejected options
func (o *ScanOptions) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.BadRequest("invalid scan options", err)
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return apperror.ValidationFailed(fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "dir":
		return "must be an existing directory"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
