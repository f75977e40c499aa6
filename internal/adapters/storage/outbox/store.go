package outbox

import (
	"context"

	domain "vacademy/internal/domain/outbox"
)

// Store persists outbox entries.
type Store interface {
	// GetByID returns domain.ErrNotFound for an unknown id.
	GetByID(ctx context.Context, id string) (domain.Entry, error)
	// Save inserts or updates an entry.
	Save(ctx context.Context, e domain.Entry) error
	// ListPending returns pending and retrying entries, oldest first.
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)
	// ListFailed returns entries out of attempts, most recently attempted first.
	ListFailed(ctx context.Context, limit int) ([]domain.Entry, error)
	// Delete removes an entry.
	Delete(ctx context.Context, id string) error
}
