package orchestrators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacademy/internal/domain/campaign"
)

func TestExecuteCreateCampaign(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	deps := CreateCampaignDeps{CampaignStore: h.campaigns, GenerateID: h.genID, Now: h.now}

	c, err := ExecuteCreateCampaign(ctx, CreateCampaignInput{InstituteID: "i1", Name: "Open day", AudienceID: "aud-1",
		CustomFields: []campaign.FieldRef{{CustomFieldID: "f1"}}}, deps)
	require.NoError(t, err)
	assert.Equal(t, campaign.StatusDraft, c.Status)
	assert.True(t, fixedNow.Equal(c.CreatedAt))

	stored, err := h.campaigns.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, stored.DeclaredFieldIDs())

	_, err = ExecuteCreateCampaign(ctx, CreateCampaignInput{InstituteID: "i1", Name: "X", AudienceID: "a", Status: "LIVE"}, deps)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = ExecuteCreateCampaign(ctx, CreateCampaignInput{InstituteID: "i1", Name: "X"}, deps)
	assert.ErrorIs(t, err, campaign.ErrEmptyAudienceID)
}

func TestExecuteRecordLead(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.mustCampaign(t, CreateCampaignInput{InstituteID: "i1", Name: "Open day", AudienceID: "aud-1", Status: campaign.StatusActive})
	deps := RecordLeadDeps{CampaignStore: h.campaigns, LeadStore: h.leads, GenerateID: h.genID, Now: h.now}

	lead, err := ExecuteRecordLead(ctx, RecordLeadInput{
		CampaignID:        id,
		User:              campaign.User{FullName: "Asha", Email: "asha@example.com"},
		CustomFieldValues: map[string]string{"f1": "Pune", "": "dropped"},
	}, deps)
	require.NoError(t, err)
	assert.Equal(t, "aud-1", lead.AudienceID)
	assert.Equal(t, map[string]string{"f1": "Pune"}, lead.CustomFieldValues)

	page, err := h.leads.Search(ctx, campaign.LeadQuery{AudienceID: "aud-1"})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, lead.ResponseID, page.Content[0].ResponseID)

	_, err = ExecuteRecordLead(ctx, RecordLeadInput{CampaignID: "missing"}, deps)
	assert.ErrorIs(t, err, campaign.ErrNotFound)

	closed := h.mustCampaign(t, CreateCampaignInput{InstituteID: "i1", Name: "Old", AudienceID: "aud-2", Status: campaign.StatusInactive})
	_, err = ExecuteRecordLead(ctx, RecordLeadInput{CampaignID: closed}, deps)
	assert.ErrorIs(t, err, ErrCampaignInactive)
}
