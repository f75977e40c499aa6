package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vacademy/internal/adapters/email"
	"vacademy/internal/adapters/http/perf"
	assetStore "vacademy/internal/adapters/storage/asset"
	campaignStore "vacademy/internal/adapters/storage/campaign"
	courseStore "vacademy/internal/adapters/storage/course"
	customFieldStore "vacademy/internal/adapters/storage/customfield"
	outboxStore "vacademy/internal/adapters/storage/outbox"
	"vacademy/internal/adapters/storage/storagetest"
	templateStore "vacademy/internal/adapters/storage/template"
	"vacademy/internal/application/orchestrators"
)

var testNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type testServer struct {
	handler   http.Handler
	sender    *email.NoopSender
	collector *perf.Collector
	seq       int
}

func testStores(t *testing.T) Stores {
	t.Helper()
	db := storagetest.Open(t)
	templates := templateStore.NewSQLiteStore(db)
	return Stores{
		CourseStore:      courseStore.NewSQLiteStore(db),
		CustomFieldStore: customFieldStore.NewSQLiteStore(db),
		CampaignStore:    campaignStore.NewSQLiteStore(db),
		LeadStore:        campaignStore.NewLeadSQLiteStore(db),
		TemplateStore:    templates,
		MappingStore:     templates,
		EditorStateStore: templateStore.NewEditorStateSQLiteStore(db),
		AssetStore:       assetStore.NewSQLiteStore(db),
		OutboxStore:      outboxStore.NewSQLiteStore(db),
	}
}

func newTestServer(t *testing.T, stores Stores, log *zap.SugaredLogger) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	ts := &testServer{
		sender:    email.NewNoopSender(log),
		collector: perf.NewCollector(1000),
	}
	ts.handler = NewMux(ctx, stores, Options{
		CSRFKey:            bytes.Repeat([]byte("k"), 32),
		RateLimitPerSecond: 10000,
		SlowRequest:        time.Second,
		Collector:          ts.collector,
		EmailSender:        ts.sender,
		Logger:             log,
		GenerateID: func() string {
			ts.seq++
			return fmt.Sprintf("id-%d", ts.seq)
		},
		Now:          func() time.Time { return testNow },
		OutboxConfig: orchestrators.OutboxConfig{Now: func() time.Time { return testNow }},
	})
	return ts
}

// do sends a JSON API request and returns the recorder.
func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rr)["error"]
}
