package asset

import (
	"context"

	domain "vacademy/internal/domain/asset"
)

// Store persists asset metadata.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Asset, error)
	Save(ctx context.Context, a domain.Asset) error
	Search(ctx context.Context, q domain.Query) ([]domain.Asset, error)
}
