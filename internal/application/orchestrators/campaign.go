package orchestrators

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vacademy/internal/domain/campaign"
)

// --- Create Campaign ---

// CreateCampaignInput carries input for the create campaign orchestrator.
type CreateCampaignInput struct {
	InstituteID  string
	Name         string
	AudienceID   string
	Status       string
	CustomFields []campaign.FieldRef
}

// CreateCampaignDeps holds dependencies for CreateCampaign.
type CreateCampaignDeps struct {
	CampaignStore CampaignStoreForOrchestrator
	GenerateID    func() string
	Now           func() time.Time
}

// ErrInvalidStatus is returned for a campaign status outside ACTIVE, INACTIVE and DRAFT.
var ErrInvalidStatus = errors.New("status must be ACTIVE, INACTIVE or DRAFT")

// ExecuteCreateCampaign creates a campaign with its declared custom fields.
// PRE: InstituteID, Name and AudienceID are non-empty
// POST: Campaign stored with a generated id; status defaults to DRAFT
func ExecuteCreateCampaign(ctx context.Context, input CreateCampaignInput, deps CreateCampaignDeps) (campaign.Campaign, error) {
	status := input.Status
	switch status {
	case "":
		status = campaign.StatusDraft
	case campaign.StatusActive, campaign.StatusInactive, campaign.StatusDraft:
	default:
		return campaign.Campaign{}, ErrInvalidStatus
	}

	c := campaign.Campaign{
		ID:           deps.GenerateID(),
		InstituteID:  input.InstituteID,
		Name:         input.Name,
		AudienceID:   input.AudienceID,
		Status:       status,
		CustomFields: input.CustomFields,
		CreatedAt:    deps.Now(),
	}
	if c.CustomFields == nil {
		c.CustomFields = []campaign.FieldRef{}
	}
	if err := c.Validate(); err != nil {
		return campaign.Campaign{}, err
	}
	if err := deps.CampaignStore.Save(ctx, c); err != nil {
		return campaign.Campaign{}, errors.Wrap(err, "save campaign")
	}

	zap.S().Infow("campaign_created", "campaign_id", c.ID, "institute_id", c.InstituteID,
		"audience_id", c.AudienceID, "declared_fields", len(c.DeclaredFieldIDs()))
	return c, nil
}

// --- Record Lead ---

// RecordLeadInput carries one audience response.
type RecordLeadInput struct {
	CampaignID        string
	User              campaign.User
	CustomFieldValues map[string]string
}

// RecordLeadDeps holds dependencies for RecordLead.
type RecordLeadDeps struct {
	CampaignStore CampaignStoreForOrchestrator
	LeadStore     LeadStoreForOrchestrator
	GenerateID    func() string
	Now           func() time.Time
}

// ErrCampaignInactive is returned when a lead is recorded against an inactive campaign.
var ErrCampaignInactive = errors.New("campaign is not accepting responses")

// ExecuteRecordLead stores a response against the campaign's audience.
// PRE: CampaignID names an existing campaign that is not INACTIVE
// POST: Lead stored with a generated response id and the current time
func ExecuteRecordLead(ctx context.Context, input RecordLeadInput, deps RecordLeadDeps) (campaign.Lead, error) {
	c, err := deps.CampaignStore.GetByID(ctx, input.CampaignID)
	if err != nil {
		return campaign.Lead{}, err
	}
	if c.Status == campaign.StatusInactive {
		return campaign.Lead{}, ErrCampaignInactive
	}

	values := make(map[string]string, len(input.CustomFieldValues))
	for k, v := range input.CustomFieldValues {
		if k != "" {
			values[k] = v
		}
	}
	lead := campaign.Lead{
		ResponseID:        deps.GenerateID(),
		AudienceID:        c.AudienceID,
		User:              input.User,
		CustomFieldValues: values,
		SubmittedAtLocal:  deps.Now(),
	}
	if err := lead.Validate(); err != nil {
		return campaign.Lead{}, err
	}
	if err := deps.LeadStore.Save(ctx, lead); err != nil {
		return campaign.Lead{}, errors.Wrap(err, "save lead")
	}

	zap.S().Infow("lead_recorded", "campaign_id", c.ID, "response_id", lead.ResponseID, "values", len(values))
	return lead, nil
}
