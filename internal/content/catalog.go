// Package content provides read-only access to the course and bonus catalog.
//
// The catalog normally lives in Postgres; a static fallback keeps the
// conversation going when the database is unreachable.
package content

import (
	"context"

	"github.com/BTreeMap/Brenda/internal/models"
)

// Catalog is the read-only course content store.
type Catalog interface {
	AllCourses(ctx context.Context) ([]models.Course, error)
	CourseByID(ctx context.Context, id string) (models.Course, error)
	SearchCourses(ctx context.Context, keyword string) ([]models.Course, error)
	BonusesForCourse(ctx context.Context, courseID string) ([]models.Bonus, error)
}

// FindCourses resolves ids against all, keeping the order of ids and skipping unknown ids.
func FindCourses(all []models.Course, ids []string) []models.Course {
	byID := make(map[string]models.Course, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	out := make([]models.Course, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// CourseIDs returns the ids of courses in order.
func CourseIDs(courses []models.Course) []string {
	ids := make([]string, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}
	return ids
}
