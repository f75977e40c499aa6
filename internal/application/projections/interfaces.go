package projections

import (
	"context"

	"vacademy/internal/domain/campaign"
	"vacademy/internal/domain/course"
	"vacademy/internal/domain/customfield"
)

// CampaignStore interface for campaign queries.
type CampaignStore interface {
	GetByID(ctx context.Context, id string) (campaign.Campaign, error)
}

// LeadStore interface for lead queries.
type LeadStore interface {
	Search(ctx context.Context, q campaign.LeadQuery) (campaign.LeadPage, error)
}

// CustomFieldStore interface for registry queries.
type CustomFieldStore interface {
	ListByInstitute(ctx context.Context, instituteID string) ([]customfield.Field, error)
}

// CourseStore interface for course queries.
type CourseStore interface {
	GetByID(ctx context.Context, id string) (course.Course, error)
	ListByInstitute(ctx context.Context, instituteID string) ([]course.Course, error)
}
