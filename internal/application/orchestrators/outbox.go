package orchestrators

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	emailAdapter "vacademy/internal/adapters/email"
	"vacademy/internal/domain/outbox"
)

// ActionExecutor replays one kind of outbox action.
type ActionExecutor interface {
	// Execute runs the action and returns an external id, e.g. a message id.
	Execute(ctx context.Context, payload string) (string, error)
}

// OutboxConfig tunes an OutboxProcessor. Zero values take the defaults.
type OutboxConfig struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
	BatchSize int
	Now       func() time.Time
}

// OutboxProcessor retries deferred external actions with exponential backoff.
type OutboxProcessor struct {
	store     OutboxStoreForOrchestrator
	executors map[string]ActionExecutor
	cfg       OutboxConfig
}

// NewOutboxProcessor creates a processor dispatching entries by action type.
func NewOutboxProcessor(store OutboxStoreForOrchestrator, executors map[string]ActionExecutor, cfg OutboxConfig) *OutboxProcessor {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 30 * time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &OutboxProcessor{store: store, executors: executors, cfg: cfg}
}

// ProcessPending attempts every pending entry whose backoff has elapsed.
// PRE: none
// POST: attempted entries are saved with their new status; returns how many were attempted
func (p *OutboxProcessor) ProcessPending(ctx context.Context) (int, error) {
	entries, err := p.store.ListPending(ctx, p.cfg.BatchSize)
	if err != nil {
		return 0, errors.Wrap(err, "list pending outbox entries")
	}
	attempted := 0
	for _, e := range entries {
		if !e.Due(p.cfg.Now(), p.cfg.BaseDelay, p.cfg.MaxDelay) {
			continue
		}
		attempted++
		if _, err := p.attempt(ctx, e); err != nil {
			zap.S().Errorw("outbox_save_failed", "entry_id", e.ID, "error", err)
		}
	}
	return attempted, nil
}

// ProcessSingle attempts one entry now, ignoring its backoff.
// PRE: entryID names an entry that is not terminal
// POST: entry saved with its new status
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) (outbox.Entry, error) {
	e, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return outbox.Entry{}, err
	}
	if e.IsTerminal() {
		return e, outbox.ErrTerminal
	}
	return p.attempt(ctx, e)
}

// AbandonEntry marks an entry abandoned so it is never retried.
// POST: entry status is abandoned
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) (outbox.Entry, error) {
	e, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return outbox.Entry{}, err
	}
	e.MarkAbandoned()
	if err := p.store.Save(ctx, e); err != nil {
		return outbox.Entry{}, err
	}
	zap.S().Infow("outbox_entry_abandoned", "entry_id", e.ID, "attempts", e.Attempts)
	return e, nil
}

func (p *OutboxProcessor) attempt(ctx context.Context, e outbox.Entry) (outbox.Entry, error) {
	e.MarkAttempt(p.cfg.Now())
	executor, ok := p.executors[e.ActionType]
	if !ok {
		e.MarkFailed(errors.Errorf("no executor for action type %q", e.ActionType))
	} else if externalID, err := executor.Execute(ctx, e.Payload); err != nil {
		e.MarkFailed(err)
		zap.S().Warnw("outbox_action_failed", "entry_id", e.ID, "action", e.ActionType,
			"attempt", e.Attempts, "status", e.Status, "error", err)
	} else {
		e.MarkSuccess(externalID)
		zap.S().Infow("outbox_action_succeeded", "entry_id", e.ID, "action", e.ActionType,
			"attempt", e.Attempts, "external_id", externalID)
	}
	return e, p.store.Save(ctx, e)
}

// Run processes pending entries every interval until ctx is cancelled.
func (p *OutboxProcessor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			zap.S().Infow("outbox_worker_stopped")
			return
		case <-ticker.C:
			if _, err := p.ProcessPending(ctx); err != nil {
				zap.S().Errorw("outbox_worker_error", "error", err)
			}
		}
	}
}

// EmailBatchExecutor replays a JSON array of send requests through a sender.
type EmailBatchExecutor struct {
	Sender emailAdapter.Sender
}

// Execute sends the batch and returns the id of its last message.
func (x EmailBatchExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var reqs []emailAdapter.SendRequest
	if err := json.Unmarshal([]byte(payload), &reqs); err != nil {
		return "", errors.Wrap(err, "decode email batch")
	}
	results, err := x.Sender.SendBatch(ctx, reqs)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}
	return results[len(results)-1].MessageID, nil
}

// enqueueEmails defers reqs to the outbox, one entry per sender batch, so
// a replay never resends messages of another entry.
func enqueueEmails(ctx context.Context, store OutboxStoreForOrchestrator, genID func() string, now time.Time,
	reference string, reqs []emailAdapter.SendRequest, cause error) (int, error) {
	queued := 0
	for start := 0; start < len(reqs); start += emailAdapter.MaxBatch {
		chunk := reqs[start:min(start+emailAdapter.MaxBatch, len(reqs))]
		raw, err := json.Marshal(chunk)
		if err != nil {
			return queued, errors.Wrap(err, "encode email batch")
		}
		e := outbox.Entry{
			ID:           genID(),
			ActionType:   outbox.ActionCampaignEmail,
			Reference:    reference,
			Payload:      string(raw),
			Status:       outbox.StatusPending,
			CreatedAt:    now,
			ErrorMessage: cause.Error(),
		}
		if err := e.Validate(); err != nil {
			return queued, err
		}
		if err := store.Save(ctx, e); err != nil {
			return queued, errors.Wrap(err, "enqueue email batch")
		}
		queued += len(chunk)
	}
	return queued, nil
}
