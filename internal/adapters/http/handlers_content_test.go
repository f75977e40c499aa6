package web

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"vacademy/internal/adapters/http/perf"
	"vacademy/internal/domain/asset"
	"vacademy/internal/domain/course"
)

func TestRenderRichText(t *testing.T) {
	ts := newTestServer(t, testStores(t), nil)

	rr := ts.do(t, http.MethodPost, "/api/rich-text/render", `{"document":[
		{"type":"math","latex":"x^2","display":true},
		{"type":"text","markdown":"**bold** <script>alert(1)</script>"},
		{"type":"drawing","scene":{}}]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	html := decode[map[string]string](t, rr)["html"]
	assert.Contains(t, html, `data-latex="x^2"`)
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "data:image/svg+xml")

	rr = ts.do(t, http.MethodPost, "/api/rich-text/render", `{"document":[{"type":"hologram"}]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = ts.do(t, http.MethodPost, "/api/rich-text/render", `{"document":[{"type":"audio","src":""}]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAssets(t *testing.T) {
	ts := newTestServer(t, testStores(t), nil)

	rr := ts.do(t, http.MethodPost, "/api/institutes/i1/assets",
		`{"folder":"logos","file_name":"crest.png","url":"https://cdn.example.com/crest.png","mime_type":"image/png","size":10}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[assetView](t, rr)
	assert.Equal(t, "https://cdn.example.com/crest.png", created.PreviewURL)

	rr = ts.do(t, http.MethodPost, "/api/institutes/i1/assets",
		`{"file_name":"notes.pdf","url":"https://cdn.example.com/notes.pdf","mime_type":"application/pdf"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, asset.PlaceholderDataURI, decode[assetView](t, rr).PreviewURL)

	rr = ts.do(t, http.MethodPost, "/api/institutes/i1/assets", `{"file_name":"x","url":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, errorOf(t, rr), "url")

	rr = ts.do(t, http.MethodGet, "/api/institutes/i1/assets?folder=logos&q=CREST", "")
	require.Equal(t, http.StatusOK, rr.Code)
	found := decode[[]assetView](t, rr)
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)

	rr = ts.do(t, http.MethodGet, "/api/institutes/i2/assets", "")
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestAdminPerf(t *testing.T) {
	ts := newTestServer(t, testStores(t), nil)
	ts.do(t, http.MethodGet, "/healthz", "")
	ts.do(t, http.MethodGet, "/healthz", "")

	rr := ts.do(t, http.MethodGet, "/api/admin/perf?since=10m&top=5", "")
	require.Equal(t, http.StatusOK, rr.Code)
	snap := decode[perf.Snapshot](t, rr)
	assert.GreaterOrEqual(t, snap.TotalRequests, int64(2))
	require.NotEmpty(t, snap.SlowestPaths)
	assert.Equal(t, "GET /healthz", snap.SlowestPaths[0].Label)
}

type failingCourseStore struct{}

func (failingCourseStore) GetByID(context.Context, string) (course.Course, error) {
	return course.Course{}, errors.New("disk on fire")
}
func (failingCourseStore) ListByInstitute(context.Context, string) ([]course.Course, error) {
	return nil, errors.New("disk on fire")
}
func (failingCourseStore) Save(context.Context, course.Course) error { return errors.New("disk on fire") }
func (failingCourseStore) Delete(context.Context, string) error      { return errors.New("disk on fire") }

func TestInternalErrorHidesDetails(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	stores := testStores(t)
	stores.CourseStore = failingCourseStore{}
	ts := newTestServer(t, stores, zap.New(core).Sugar())

	rr := ts.do(t, http.MethodGet, "/api/institutes/i1/courses", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal server error", errorOf(t, rr))
	assert.False(t, strings.Contains(rr.Body.String(), "disk"))

	entries := logs.FilterMessage("internal_error").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "disk on fire")
}
