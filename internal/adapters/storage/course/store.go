package course

import (
	"context"

	domain "vacademy/internal/domain/course"
)

// Store persists courses with their session/level selection.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Course, error)
	ListByInstitute(ctx context.Context, instituteID string) ([]domain.Course, error)
	Save(ctx context.Context, c domain.Course) error
	Delete(ctx context.Context, id string) error
}
