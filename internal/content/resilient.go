package content

import (
	"context"
	"errors"
	"log/slog"

	"github.com/BTreeMap/Brenda/internal/models"
)

// ResilientCatalog serves from primary and degrades to fallback on errors or
// empty results.
type ResilientCatalog struct {
	primary  Catalog
	fallback Catalog
	logger   *slog.Logger
}

// NewResilientCatalog wraps primary. A nil primary always serves the fallback.
func NewResilientCatalog(primary, fallback Catalog, logger *slog.Logger) *ResilientCatalog {
	if fallback == nil {
		fallback = NewStaticCatalog(nil, nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResilientCatalog{primary: primary, fallback: fallback, logger: logger}
}

func (r *ResilientCatalog) AllCourses(ctx context.Context) ([]models.Course, error) {
	if r.primary != nil {
		courses, err := r.primary.AllCourses(ctx)
		if err == nil && len(courses) > 0 {
			return courses, nil
		}
		r.logger.Warn("ResilientCatalog.AllCourses: using fallback courses", "error", err)
	}
	return r.fallback.AllCourses(ctx)
}

func (r *ResilientCatalog) CourseByID(ctx context.Context, id string) (models.Course, error) {
	if r.primary != nil {
		c, err := r.primary.CourseByID(ctx, id)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, models.ErrCourseNotFound) {
			r.logger.Warn("ResilientCatalog.CourseByID: using fallback course", "error", err, "courseID", id)
		}
	}
	return r.fallback.CourseByID(ctx, id)
}

func (r *ResilientCatalog) SearchCourses(ctx context.Context, keyword string) ([]models.Course, error) {
	if r.primary != nil {
		courses, err := r.primary.SearchCourses(ctx, keyword)
		if err == nil {
			return courses, nil
		}
		r.logger.Warn("ResilientCatalog.SearchCourses: using fallback search", "error", err)
	}
	return r.fallback.SearchCourses(ctx, keyword)
}

func (r *ResilientCatalog) BonusesForCourse(ctx context.Context, courseID string) ([]models.Bonus, error) {
	if r.primary != nil {
		bonuses, err := r.primary.BonusesForCourse(ctx, courseID)
		if err == nil && len(bonuses) > 0 {
			return bonuses, nil
		}
		r.logger.Warn("ResilientCatalog.BonusesForCourse: using fallback bonuses", "error", err, "courseID", courseID)
	}
	return r.fallback.BonusesForCourse(ctx, courseID)
}
