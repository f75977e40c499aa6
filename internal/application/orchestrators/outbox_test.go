package orchestrators

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	emailAdapter "vacademy/internal/adapters/email"
	"vacademy/internal/domain/outbox"
)

type scriptedExecutor struct {
	errs  []error
	calls int
}

func (x *scriptedExecutor) Execute(_ context.Context, payload string) (string, error) {
	x.calls++
	if len(x.errs) > 0 {
		err := x.errs[0]
		x.errs = x.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return "ext-" + payload, nil
}

func saveEntry(t *testing.T, h *harness, id string, maxAttempts int) {
	t.Helper()
	require.NoError(t, h.outbox.Save(context.Background(), outbox.Entry{
		ID: id, ActionType: "test", Payload: id, Status: outbox.StatusPending,
		MaxAttempts: maxAttempts, CreatedAt: fixedNow,
	}))
}

func TestOutboxProcessor_RetriesWithBackoff(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	saveEntry(t, h, "e1", 3)

	clock := fixedNow
	exec := &scriptedExecutor{errs: []error{errors.New("timeout"), nil}}
	p := NewOutboxProcessor(h.outbox, map[string]ActionExecutor{"test": exec},
		OutboxConfig{BaseDelay: time.Minute, MaxDelay: time.Hour, Now: func() time.Time { return clock }})

	n, err := p.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	e, err := h.outbox.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, outbox.StatusRetrying, e.Status)
	assert.Equal(t, "timeout", e.ErrorMessage)

	clock = clock.Add(time.Minute)
	n, err = p.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "backoff after one attempt is two minutes")

	clock = clock.Add(time.Minute)
	n, err = p.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	e, err = h.outbox.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, outbox.StatusDone, e.Status)
	assert.Equal(t, "ext-e1", e.ExternalID)
	assert.Equal(t, 2, exec.calls)
}

func TestOutboxProcessor_ExhaustsAttempts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	saveEntry(t, h, "e1", 1)
	require.NoError(t, h.outbox.Save(ctx, outbox.Entry{ID: "orphan", ActionType: "unknown", Payload: "x",
		Status: outbox.StatusPending, MaxAttempts: 1, CreatedAt: fixedNow}))

	exec := &scriptedExecutor{errs: []error{errors.New("bounced")}}
	p := NewOutboxProcessor(h.outbox, map[string]ActionExecutor{"test": exec}, OutboxConfig{Now: h.now})

	_, err := p.ProcessPending(ctx)
	require.NoError(t, err)
	failed, err := h.outbox.ListFailed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, failed, 2)
	for _, e := range failed {
		assert.True(t, e.IsTerminal())
	}

	_, err = p.ProcessSingle(ctx, "e1")
	assert.ErrorIs(t, err, outbox.ErrTerminal)
	assert.Equal(t, 1, exec.calls)
}

func TestOutboxProcessor_SingleAndAbandon(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	saveEntry(t, h, "e1", 5)
	saveEntry(t, h, "e2", 5)

	p := NewOutboxProcessor(h.outbox, map[string]ActionExecutor{"test": &scriptedExecutor{}}, OutboxConfig{Now: h.now})

	e, err := p.ProcessSingle(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, outbox.StatusDone, e.Status)

	e, err = p.AbandonEntry(ctx, "e2")
	require.NoError(t, err)
	assert.Equal(t, outbox.StatusAbandoned, e.Status)
	pending, err := h.outbox.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = p.ProcessSingle(ctx, "missing")
	assert.ErrorIs(t, err, outbox.ErrNotFound)
}

func TestOutboxProcessor_RunStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))
	h := newHarness(t)
	saveEntry(t, h, "e1", 5)
	exec := &scriptedExecutor{}
	p := NewOutboxProcessor(h.outbox, map[string]ActionExecutor{"test": exec}, OutboxConfig{Now: h.now})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, time.Millisecond)
		close(done)
	}()
	require.Eventually(t, func() bool {
		e, err := h.outbox.GetByID(context.Background(), "e1")
		return err == nil && e.Status == outbox.StatusDone
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestEmailBatchExecutor(t *testing.T) {
	h := newHarness(t)
	raw, err := json.Marshal([]emailAdapter.SendRequest{
		{To: []string{"a@example.com"}, Subject: "A"},
		{To: []string{"b@example.com"}, Subject: "B"},
	})
	require.NoError(t, err)

	id, err := EmailBatchExecutor{Sender: h.sender}.Execute(context.Background(), string(raw))
	require.NoError(t, err)
	assert.Equal(t, "noop-2", id)
	require.Len(t, h.sender.Sent(), 2)
	assert.Equal(t, "B", h.sender.Sent()[1].Subject)

	_, err = EmailBatchExecutor{Sender: h.sender}.Execute(context.Background(), "{")
	assert.ErrorContains(t, err, "decode email batch")
}
