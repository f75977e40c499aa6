package orchestrators

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vacademy/internal/domain/asset"
)

// RegisterAssetInput carries metadata of a file already uploaded to object storage.
type RegisterAssetInput struct {
	InstituteID string
	Folder      string
	FileName    string
	URL         string
	MimeType    string
	Size        int64
}

// RegisterAssetDeps holds dependencies for RegisterAsset.
type RegisterAssetDeps struct {
	AssetStore AssetStoreForOrchestrator
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteRegisterAsset records an uploaded file so pickers can find it.
// PRE: InstituteID, FileName and URL are non-empty; Size >= 0
// POST: Asset stored with a generated id; Folder is cleaned of surrounding slashes
func ExecuteRegisterAsset(ctx context.Context, input RegisterAssetInput, deps RegisterAssetDeps) (asset.Asset, error) {
	a := asset.Asset{
		ID:          deps.GenerateID(),
		InstituteID: input.InstituteID,
		Folder:      cleanFolder(input.Folder),
		FileName:    strings.TrimSpace(input.FileName),
		URL:         strings.TrimSpace(input.URL),
		MimeType:    strings.ToLower(strings.TrimSpace(input.MimeType)),
		Size:        input.Size,
		CreatedAt:   deps.Now(),
	}
	if err := a.Validate(); err != nil {
		return asset.Asset{}, err
	}
	if err := deps.AssetStore.Save(ctx, a); err != nil {
		return asset.Asset{}, errors.Wrap(err, "save asset")
	}
	zap.S().Infow("asset_registered", "asset_id", a.ID, "institute_id", a.InstituteID,
		"folder", a.Folder, "mime_type", a.MimeType, "size", a.Size)
	return a, nil
}

func cleanFolder(f string) string {
	f = strings.TrimSpace(f)
	if f == "" {
		return ""
	}
	return strings.Trim(path.Clean("/"+f), "/")
}
