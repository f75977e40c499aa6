package loader

import (
	"context"

	"go.uber.org/zap"

	"vacademy/internal/domain/asset"
	"vacademy/internal/domain/campaign"
)

// AssetSearcher lists an institute's assets.
type AssetSearcher interface {
	Search(ctx context.Context, q asset.Query) ([]asset.Asset, error)
}

// LeadSearcher returns one page of campaign leads.
type LeadSearcher interface {
	Search(ctx context.Context, q campaign.LeadQuery) (campaign.LeadPage, error)
}

// AssetPicker holds the asset list for the latest search.
type AssetPicker struct {
	*Loader[asset.Query, []asset.Asset]
}

// NewAssetPicker builds a picker over store.
func NewAssetPicker(store AssetSearcher, logger *zap.SugaredLogger) *AssetPicker {
	return &AssetPicker{Loader: New("asset_picker", store.Search, logger)}
}

// Assets returns the asset list of the latest committed search.
func (p *AssetPicker) Assets() []asset.Asset {
	return p.Snapshot().Value
}

// CampaignUserLoader holds the lead page for the latest query.
type CampaignUserLoader struct {
	*Loader[campaign.LeadQuery, campaign.LeadPage]
}

// NewCampaignUserLoader builds a loader over store. Queries are normalised
// before they are issued.
func NewCampaignUserLoader(store LeadSearcher, logger *zap.SugaredLogger) *CampaignUserLoader {
	fetch := func(ctx context.Context, q campaign.LeadQuery) (campaign.LeadPage, error) {
		return store.Search(ctx, q.Normalize())
	}
	return &CampaignUserLoader{Loader: New("campaign_users", fetch, logger)}
}

// Page returns the lead page of the latest committed query.
func (l *CampaignUserLoader) Page() campaign.LeadPage {
	return l.Snapshot().Value
}
