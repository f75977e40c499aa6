package web

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"vacademy/internal/application/orchestrators"
	"vacademy/internal/application/projections"
	"vacademy/internal/domain/course"
)

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type toggleRequest struct {
	Form    course.Course  `json:"form"`
	Session course.Session `json:"session"`
	Level   course.Level   `json:"level"`
	Checked bool           `json:"checked"`
}

// handleToggleCourseForm applies one checkbox change to a form value and
// returns the new value with its derived state. The server keeps nothing.
func (s *server) handleToggleCourseForm(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := strictDecode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Session.ID == "" && strings.TrimSpace(req.Session.SessionName) == "" {
		s.fail(w, r, errors.Wrap(errBadBody, "session needs an id or a session_name"))
		return
	}
	if req.Level.ID == "" && strings.TrimSpace(req.Level.LevelName) == "" {
		s.fail(w, r, errors.Wrap(errBadBody, "level needs an id or a level_name"))
		return
	}

	form := course.NewForm(req.Form)
	form.Toggle(req.Session, req.Level, req.Checked)
	if form.Value.Sessions == nil {
		form.Value.Sessions = []course.Session{}
	}
	writeJSON(w, http.StatusOK, form)
}

// submitCourseRequest is the course form body. institute_id is accepted
// but the path decides the owner.
type submitCourseRequest struct {
	ID              string           `json:"id"`
	InstituteID     string           `json:"institute_id"`
	CourseName      string           `json:"course_name" validate:"required"`
	ThumbnailFileID string           `json:"thumbnail_file_id"`
	ContainLevels   bool             `json:"contain_levels"`
	Status          string           `json:"status"`
	Sessions        []course.Session `json:"sessions"`
}

func (req submitCourseRequest) course() course.Course {
	return course.Course{
		ID:              req.ID,
		CourseName:      req.CourseName,
		ThumbnailFileID: req.ThumbnailFileID,
		ContainLevels:   req.ContainLevels,
		Status:          req.Status,
		Sessions:        req.Sessions,
	}
}

func (s *server) handleSubmitCourse(w http.ResponseWriter, r *http.Request) {
	var req submitCourseRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	saved, err := orchestrators.ExecuteSubmitCourse(r.Context(), orchestrators.SubmitCourseInput{
		InstituteID: r.PathValue("inst"),
		Course:      req.course(),
	}, orchestrators.SubmitCourseDeps{
		CourseStore: s.stores.CourseStore,
		GenerateID:  s.genID,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	list, err := projections.QueryListCourses(r.Context(),
		projections.ListCoursesQuery{InstituteID: r.PathValue("inst")},
		projections.GetCourseFormDeps{CourseStore: s.stores.CourseStore})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	form, err := projections.QueryGetCourseForm(r.Context(),
		projections.GetCourseFormQuery{CourseID: r.PathValue("id")},
		projections.GetCourseFormDeps{CourseStore: s.stores.CourseStore})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if form.Value.InstituteID != r.PathValue("inst") {
		s.fail(w, r, course.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, form)
}
