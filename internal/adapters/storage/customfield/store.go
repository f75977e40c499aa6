package customfield

import (
	"context"

	domain "vacademy/internal/domain/customfield"
)

// Store persists an institute's custom-field registry.
type Store interface {
	ListByInstitute(ctx context.Context, instituteID string) ([]domain.Field, error)
	ReplaceAll(ctx context.Context, instituteID string, fields []domain.Field) error
}
