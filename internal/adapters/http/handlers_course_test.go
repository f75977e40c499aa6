package web

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacademy/internal/domain/course"
)

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, testStores(t), nil)
	rr := ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestToggleCourseForm(t *testing.T) {
	ts := newTestServer(t, testStores(t), nil)

	rr := ts.do(t, http.MethodPost, "/api/course-forms/toggle", `{
		"form": {"id":"","course_name":"Maths","thumbnail_file_id":"","contain_levels":true,"status":"DRAFT","sessions":[]},
		"session": {"id":"s1","session_name":"2026","status":"ACTIVE","levels":[]},
		"level": {"id":"l1","level_name":"Grade 9","duration_in_days":30,"thumbnail_id":""},
		"checked": true}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	form := decode[course.Form](t, rr)
	require.Len(t, form.Value.Sessions, 1)
	assert.Equal(t, "l1", form.Value.Sessions[0].Levels[0].ID)
	assert.False(t, form.Derived.SubmitDisabled)
	assert.Equal(t, 1, form.Derived.SelectedLevelCount)

	rr = ts.do(t, http.MethodPost, "/api/course-forms/toggle", `{
		"form": {"course_name":"Maths","contain_levels":true,"sessions":[{"id":"s1","session_name":"2026","levels":[{"id":"l1","level_name":"Grade 9"}]}]},
		"session": {"id":"s1"}, "level": {"id":"l1"}, "checked": false}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	form = decode[course.Form](t, rr)
	require.Len(t, form.Value.Sessions, 1, "the emptied session stays until submit")
	assert.Empty(t, form.Value.Sessions[0].Levels)
	assert.True(t, form.Derived.SubmitDisabled)
	assert.Equal(t, 1, form.Derived.EmptySessionCount)

	rr = ts.do(t, http.MethodPost, "/api/course-forms/toggle", `{"form":{},"session":{},"level":{"id":"l1"},"checked":true}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/course-forms/toggle", `{"form":{},"bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "unknown fields are rejected")
}

func TestCourseLifecycle(t *testing.T) {
	ts := newTestServer(t, testStores(t), nil)

	rr := ts.do(t, http.MethodPost, "/api/institutes/inst-1/courses", `{
		"id":"","course_name":"Physics","thumbnail_file_id":"f1","contain_levels":true,"status":"DRAFT",
		"sessions":[
			{"id":"","session_name":"2026","status":"ACTIVE","new_session":true,
			 "levels":[{"id":"","level_name":"Grade 9","duration_in_days":-3,"thumbnail_id":"","new_level":true}]},
			{"id":"","session_name":"2027","status":"ACTIVE","new_session":true,"levels":[]}
		]}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[course.Course](t, rr)
	assert.Equal(t, course.StatusActive, created.Status)
	require.Len(t, created.Sessions, 1)
	assert.Equal(t, -3, created.Sessions[0].Levels[0].DurationInDays)

	rr = ts.do(t, http.MethodGet, "/api/institutes/inst-1/courses/"+created.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	form := decode[course.Form](t, rr)
	assert.Equal(t, "Physics", form.Value.CourseName)
	assert.Equal(t, 1, form.Derived.SelectedLevelCount)

	rr = ts.do(t, http.MethodGet, "/api/institutes/inst-1/courses", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"level_count":1`)

	rr = ts.do(t, http.MethodGet, "/api/institutes/inst-2/courses/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code, "courses are scoped to their institute")

	rr = ts.do(t, http.MethodGet, "/api/institutes/inst-1/courses/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/institutes/inst-1/courses", `{"course_name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, course.ErrEmptyName.Error(), errorOf(t, rr))

	rr = ts.do(t, http.MethodPost, "/api/institutes/inst-1/courses", `{"thumbnail_file_id":"f1"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "course_name failed required", errorOf(t, rr))
}

func TestSubmitCourseCannotTakeAnotherInstitutesCourse(t *testing.T) {
	ts := newTestServer(t, testStores(t), nil)

	rr := ts.do(t, http.MethodPost, "/api/institutes/inst-a/courses", `{"course_name":"Physics"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	id := decode[course.Course](t, rr).ID

	rr = ts.do(t, http.MethodPost, "/api/institutes/inst-b/courses", `{"id":"`+id+`","course_name":"hijacked"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/institutes/inst-a/courses", `{"id":"never-stored","course_name":"Ghost"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(t, http.MethodGet, "/api/institutes/inst-a/courses/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Physics", decode[course.Form](t, rr).Value.CourseName)
	rr = ts.do(t, http.MethodGet, "/api/institutes/inst-b/courses/"+id, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/institutes/inst-a/courses", `{"id":"`+id+`","course_name":"Physics II"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "Physics II", decode[course.Course](t, rr).CourseName)
}

func TestSubmitCourseRejectsDuplicateSessionIDs(t *testing.T) {
	ts := newTestServer(t, testStores(t), nil)

	rr := ts.do(t, http.MethodPost, "/api/institutes/inst-1/courses", `{"course_name":"Physics","sessions":[
		{"id":"s1","session_name":"2026","levels":[{"id":"l1","level_name":"Grade 9"}]},
		{"id":"s1","session_name":"2027","levels":[{"id":"l2","level_name":"Grade 10"}]}]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, errorOf(t, rr), course.ErrDuplicateID.Error())

	rr = ts.do(t, http.MethodPost, "/api/institutes/inst-1/courses", `{"course_name":"Physics","sessions":[
		{"id":"s1","session_name":"2026","levels":[{"id":"l1","level_name":"A"},{"id":"l1","level_name":"B"}]}]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
