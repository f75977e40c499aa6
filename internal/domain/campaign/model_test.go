package campaign_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"vacademy/internal/domain/campaign"
)

// TestCampaign_Validate tests validation of Campaign.
func TestCampaign_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       campaign.Campaign
		wantErr error
	}{
		{name: "valid", c: campaign.Campaign{InstituteID: "i1", Name: "Open day", AudienceID: "a1"}},
		{name: "no institute", c: campaign.Campaign{Name: "Open day", AudienceID: "a1"}, wantErr: campaign.ErrEmptyInstituteID},
		{name: "no name", c: campaign.Campaign{InstituteID: "i1", AudienceID: "a1"}, wantErr: campaign.ErrEmptyName},
		{name: "no audience", c: campaign.Campaign{InstituteID: "i1", Name: "x"}, wantErr: campaign.ErrEmptyAudienceID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestCampaign_DeclaredFieldIDs(t *testing.T) {
	c := campaign.Campaign{CustomFields: []campaign.FieldRef{
		{CustomFieldID: "b"}, {CustomFieldID: ""}, {CustomFieldID: "a"}, {CustomFieldID: "b"},
	}}
	assert.Equal(t, []string{"b", "a"}, c.DeclaredFieldIDs())
}

func TestLeadQuery_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   campaign.LeadQuery
		want campaign.LeadQuery
	}{
		{
			name: "defaults",
			in:   campaign.LeadQuery{AudienceID: "a"},
			want: campaign.LeadQuery{AudienceID: "a", Size: 20, SortBy: "submitted_at", SortDirection: "DESC"},
		},
		{
			name: "clamps and whitelists",
			in:   campaign.LeadQuery{AudienceID: "a", Page: -3, Size: 5000, SortBy: "password", SortDirection: "sideways"},
			want: campaign.LeadQuery{AudienceID: "a", Size: 200, SortBy: "submitted_at", SortDirection: "DESC"},
		},
		{
			name: "keeps valid values",
			in:   campaign.LeadQuery{AudienceID: "a", Page: 2, Size: 50, SortBy: "email", SortDirection: "asc"},
			want: campaign.LeadQuery{AudienceID: "a", Page: 2, Size: 50, SortBy: "email", SortDirection: "ASC"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestLeadQuery_Validate(t *testing.T) {
	early := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(48 * time.Hour)

	assert.ErrorIs(t, campaign.LeadQuery{}.Validate(), campaign.ErrEmptyAudienceID)
	assert.ErrorIs(t, campaign.LeadQuery{AudienceID: "a", SubmittedFrom: &late, SubmittedTo: &early}.Validate(), campaign.ErrInvalidRange)
	assert.NoError(t, campaign.LeadQuery{AudienceID: "a", SubmittedFrom: &early, SubmittedTo: &late}.Validate())
}

func TestNewLeadPage(t *testing.T) {
	tests := []struct {
		name                string
		number, size, total int
		wantPages           int
		wantLast            bool
	}{
		{name: "empty", number: 0, size: 20, total: 0, wantPages: 0, wantLast: true},
		{name: "first of three", number: 0, size: 10, total: 25, wantPages: 3, wantLast: false},
		{name: "last of three", number: 2, size: 10, total: 25, wantPages: 3, wantLast: true},
		{name: "exact fit", number: 1, size: 10, total: 20, wantPages: 2, wantLast: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := campaign.NewLeadPage(nil, tt.number, tt.size, tt.total)
			assert.NotNil(t, p.Content)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.wantLast, p.Last)
			assert.Equal(t, tt.total, p.TotalElements)
		})
	}
}

func TestLeadPage_ObservedFieldIDs(t *testing.T) {
	p := campaign.LeadPage{Content: []campaign.Lead{
		{CustomFieldValues: map[string]string{"z": "1", "a": "2"}},
		{CustomFieldValues: map[string]string{"a": "3", "m": "4"}},
		{},
	}}
	assert.Equal(t, []string{"a", "z", "m"}, p.ObservedFieldIDs())
}
