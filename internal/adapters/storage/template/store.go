package template

import (
	"context"

	domain "vacademy/internal/domain/template"
)

// Store persists message templates.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Template, error)
	ListByInstitute(ctx context.Context, instituteID string) ([]domain.Template, error)
	Save(ctx context.Context, t domain.Template) error
	Delete(ctx context.Context, id string) error
}

// MappingStore persists placeholder mappings per template.
type MappingStore interface {
	ListByTemplate(ctx context.Context, templateID string) ([]domain.Mapping, error)
	ReplaceForTemplate(ctx context.Context, templateID string, ms []domain.Mapping) error
}

// EditorStateStore is a key/value store for block-editor JSON.
type EditorStateStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
