package orchestrators

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vacademy/internal/domain/course"
)

// SubmitCourseInput carries the course form as it left the browser.
type SubmitCourseInput struct {
	InstituteID string
	Course      course.Course
}

// SubmitCourseDeps holds dependencies for SubmitCourse.
type SubmitCourseDeps struct {
	CourseStore CourseStoreForOrchestrator
	GenerateID  func() string
}

// ExecuteSubmitCourse filters, activates and stores a course.
// PRE: InstituteID is non-empty; Course.CourseName is non-blank; a set Course.ID names a course of the institute
// POST: Sessions without levels are dropped, status is ACTIVE, every entity has an id
func ExecuteSubmitCourse(ctx context.Context, input SubmitCourseInput, deps SubmitCourseDeps) (course.Course, error) {
	if strings.TrimSpace(input.InstituteID) == "" {
		return course.Course{}, course.ErrEmptyInstituteID
	}
	c := input.Course
	c.InstituteID = input.InstituteID
	if err := c.Validate(); err != nil {
		return course.Course{}, err
	}
	if c.ID != "" {
		existing, err := deps.CourseStore.GetByID(ctx, c.ID)
		if err != nil {
			return course.Course{}, err
		}
		if existing.InstituteID != input.InstituteID {
			return course.Course{}, course.ErrNotFound
		}
	}

	dropped := len(c.Sessions)
	c = course.PrepareSubmission(c)
	dropped -= len(c.Sessions)
	c = course.AssignIDs(c, deps.GenerateID)

	if err := deps.CourseStore.Save(ctx, c); err != nil {
		return course.Course{}, errors.Wrap(err, "save course")
	}

	zap.S().Infow("course_submitted",
		"course_id", c.ID,
		"institute_id", c.InstituteID,
		"sessions", len(c.Sessions),
		"levels", c.LevelCount(),
		"dropped_sessions", dropped,
	)
	return c, nil
}
