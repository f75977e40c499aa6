package orchestrators

import (
	"context"

	"vacademy/internal/domain/asset"
	"vacademy/internal/domain/campaign"
	"vacademy/internal/domain/course"
	"vacademy/internal/domain/customfield"
	"vacademy/internal/domain/outbox"
	"vacademy/internal/domain/template"
)

// CourseStoreForOrchestrator defines the store interface needed by course orchestrators.
type CourseStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (course.Course, error)
	Save(ctx context.Context, c course.Course) error
}

// CustomFieldStoreForOrchestrator defines the registry store interface.
type CustomFieldStoreForOrchestrator interface {
	ListByInstitute(ctx context.Context, instituteID string) ([]customfield.Field, error)
	ReplaceAll(ctx context.Context, instituteID string, fields []customfield.Field) error
}

// CampaignStoreForOrchestrator defines the campaign store interface.
type CampaignStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (campaign.Campaign, error)
	Save(ctx context.Context, c campaign.Campaign) error
}

// LeadStoreForOrchestrator defines the lead store interface.
type LeadStoreForOrchestrator interface {
	Save(ctx context.Context, l campaign.Lead) error
	Search(ctx context.Context, q campaign.LeadQuery) (campaign.LeadPage, error)
}

// TemplateStoreForOrchestrator defines the template store interface.
type TemplateStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (template.Template, error)
	Save(ctx context.Context, t template.Template) error
	Delete(ctx context.Context, id string) error
}

// MappingStoreForOrchestrator defines the mapping store interface.
type MappingStoreForOrchestrator interface {
	ListByTemplate(ctx context.Context, templateID string) ([]template.Mapping, error)
	ReplaceForTemplate(ctx context.Context, templateID string, ms []template.Mapping) error
}

// EditorStateStoreForOrchestrator defines the editor-state key/value store interface.
type EditorStateStoreForOrchestrator interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// AssetStoreForOrchestrator defines the asset store interface.
type AssetStoreForOrchestrator interface {
	Save(ctx context.Context, a asset.Asset) error
}

// OutboxStoreForOrchestrator defines the outbox store interface.
type OutboxStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (outbox.Entry, error)
	Save(ctx context.Context, e outbox.Entry) error
	ListPending(ctx context.Context, limit int) ([]outbox.Entry, error)
}
