package campaign

import (
	"context"

	domain "vacademy/internal/domain/campaign"
)

// Store persists campaigns and their declared custom fields.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Campaign, error)
	ListByInstitute(ctx context.Context, instituteID string) ([]domain.Campaign, error)
	Save(ctx context.Context, c domain.Campaign) error
}

// LeadStore persists lead responses.
type LeadStore interface {
	Save(ctx context.Context, l domain.Lead) error
	Search(ctx context.Context, q domain.LeadQuery) (domain.LeadPage, error)
}
