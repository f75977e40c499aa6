package outbox

import (
	"time"

	"github.com/pkg/errors"
)

// Status constants for outbox entry lifecycle.
const (
	StatusPending   = "pending"
	StatusRetrying  = "retrying"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// ActionCampaignEmail replays a batch of personalised campaign emails.
const ActionCampaignEmail = "campaign_email"

// DefaultMaxAttempts bounds retries of an entry that does not set its own.
const DefaultMaxAttempts = 5

// Domain errors.
var (
	ErrEmptyActionType = errors.New("action type is required")
	ErrEmptyPayload    = errors.New("payload is required")
	ErrEmptyCreatedAt  = errors.New("created_at must be set")
	ErrNotFound        = errors.New("outbox entry not found")
	ErrTerminal        = errors.New("outbox entry is done, abandoned or out of attempts")
)

// Entry is one deferred external action with its retry bookkeeping.
type Entry struct {
	ID              string    `json:"id"`
	ActionType      string    `json:"action_type"`
	Reference       string    `json:"reference,omitempty"` // e.g. template and campaign ids
	Payload         string    `json:"payload"`             // JSON replayed by the executor
	Status          string    `json:"status"`
	Attempts        int       `json:"attempts"`
	MaxAttempts     int       `json:"max_attempts"`
	LastAttemptedAt time.Time `json:"last_attempted_at,omitzero"`
	CreatedAt       time.Time `json:"created_at"`
	ExternalID      string    `json:"external_id,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
}

// Validate checks that the Entry has valid data and fills MaxAttempts.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Entry) Validate() error {
	if e.ActionType == "" {
		return ErrEmptyActionType
	}
	if e.Payload == "" {
		return ErrEmptyPayload
	}
	if e.CreatedAt.IsZero() {
		return ErrEmptyCreatedAt
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	return nil
}

// CanRetry reports whether the entry may be attempted again.
func (e *Entry) CanRetry() bool {
	return (e.Status == StatusPending || e.Status == StatusRetrying || e.Status == StatusFailed) &&
		e.Attempts < e.MaxAttempts
}

// IsTerminal reports whether the entry will never be attempted again.
func (e *Entry) IsTerminal() bool {
	switch e.Status {
	case StatusDone, StatusAbandoned:
		return true
	case StatusFailed:
		return e.Attempts >= e.MaxAttempts
	}
	return false
}

// MarkAttempt records an attempt starting at now.
// POST: Attempts incremented, status retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess marks the entry done.
func (e *Entry) MarkSuccess(externalID string) {
	e.Status = StatusDone
	e.ExternalID = externalID
	e.ErrorMessage = ""
}

// MarkFailed records err. The entry becomes failed once attempts run out,
// otherwise it stays retrying.
func (e *Entry) MarkFailed(err error) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
	}
}

// MarkAbandoned marks the entry as given up by an operator.
func (e *Entry) MarkAbandoned() {
	e.Status = StatusAbandoned
}

// NextRetryDelay is 2^Attempts * base, capped at ceiling.
func (e *Entry) NextRetryDelay(base, ceiling time.Duration) time.Duration {
	if e.Attempts >= 30 {
		return ceiling
	}
	delay := base * (1 << e.Attempts)
	if delay <= 0 || delay > ceiling {
		return ceiling
	}
	return delay
}

// Due reports whether the backoff since the last attempt has elapsed at now.
func (e *Entry) Due(now time.Time, base, ceiling time.Duration) bool {
	if e.LastAttemptedAt.IsZero() {
		return true
	}
	return !now.Before(e.LastAttemptedAt.Add(e.NextRetryDelay(base, ceiling)))
}
