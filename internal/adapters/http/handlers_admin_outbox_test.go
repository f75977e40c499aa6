package web

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacademy/internal/domain/outbox"
)

func TestAdminOutbox(t *testing.T) {
	stores := testStores(t)
	ts := newTestServer(t, stores, nil)
	ctx := context.Background()
	require.NoError(t, stores.OutboxStore.Save(ctx, outbox.Entry{
		ID: "ob-1", ActionType: outbox.ActionCampaignEmail, Status: outbox.StatusPending, MaxAttempts: 3,
		Payload: `[{"To":["asha@example.com"],"Subject":"Hi Asha","HTML":"<p>Pune</p>"}]`,
		CreatedAt: testNow, ErrorMessage: "provider rate limited",
	}))
	require.NoError(t, stores.OutboxStore.Save(ctx, outbox.Entry{
		ID: "ob-2", ActionType: outbox.ActionCampaignEmail, Status: outbox.StatusPending, MaxAttempts: 3,
		Payload: `[]`, CreatedAt: testNow,
	}))

	rr := ts.do(t, http.MethodGet, "/api/admin/outbox?status=pending", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]outbox.Entry](t, rr), 2)

	rr = ts.do(t, http.MethodPost, "/api/admin/outbox/ob-1/retry", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	e := decode[outbox.Entry](t, rr)
	assert.Equal(t, outbox.StatusDone, e.Status)
	assert.Equal(t, 1, e.Attempts)
	sent := ts.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Hi Asha", sent[0].Subject)

	rr = ts.do(t, http.MethodPost, "/api/admin/outbox/ob-1/retry", "")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/admin/outbox/ob-2/abandon", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, outbox.StatusAbandoned, decode[outbox.Entry](t, rr).Status)

	rr = ts.do(t, http.MethodGet, "/api/admin/outbox?status=pending", "")
	assert.Equal(t, "[]\n", rr.Body.String())
	rr = ts.do(t, http.MethodGet, "/api/admin/outbox", "")
	assert.Equal(t, "[]\n", rr.Body.String(), "nothing ran out of attempts")

	rr = ts.do(t, http.MethodPost, "/api/admin/outbox/nope/abandon", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
