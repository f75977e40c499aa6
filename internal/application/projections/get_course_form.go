package projections

import (
	"context"

	"vacademy/internal/domain/course"
)

// GetCourseFormQuery carries query parameters.
type GetCourseFormQuery struct {
	CourseID string
}

// GetCourseFormDeps holds dependencies for GetCourseForm.
type GetCourseFormDeps struct {
	CourseStore CourseStore
}

// QueryGetCourseForm hydrates an edit form for a stored course.
// PRE: CourseID is non-empty
// POST: Returns the course wrapped in a Form with derived state computed
func QueryGetCourseForm(ctx context.Context, query GetCourseFormQuery, deps GetCourseFormDeps) (*course.Form, error) {
	c, err := deps.CourseStore.GetByID(ctx, query.CourseID)
	if err != nil {
		return nil, err
	}
	return course.NewForm(c), nil
}

// ListCoursesQuery carries query parameters.
type ListCoursesQuery struct {
	InstituteID string
}

// CourseSummary is one row of the course list.
type CourseSummary struct {
	ID            string `json:"id"`
	CourseName    string `json:"course_name"`
	Status        string `json:"status"`
	ContainLevels bool   `json:"contain_levels"`
	SessionCount  int    `json:"session_count"`
	LevelCount    int    `json:"level_count"`
}

// QueryListCourses summarises an institute's courses.
// PRE: InstituteID is non-empty
// POST: Returns one summary per course, never nil
func QueryListCourses(ctx context.Context, query ListCoursesQuery, deps GetCourseFormDeps) ([]CourseSummary, error) {
	courses, err := deps.CourseStore.ListByInstitute(ctx, query.InstituteID)
	if err != nil {
		return nil, err
	}
	out := make([]CourseSummary, 0, len(courses))
	for _, c := range courses {
		out = append(out, CourseSummary{
			ID:            c.ID,
			CourseName:    c.CourseName,
			Status:        c.Status,
			ContainLevels: c.ContainLevels,
			SessionCount:  len(c.Sessions),
			LevelCount:    c.LevelCount(),
		})
	}
	return out, nil
}
