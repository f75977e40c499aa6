package web

import (
	"net/http"
	"time"

	"vacademy/internal/application/orchestrators"
	"vacademy/internal/domain/asset"
	"vacademy/internal/domain/richtext"
)

type renderRequest struct {
	Document richtext.Document `json:"document"`
}

func (s *server) handleRenderRichText(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := strictDecode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	html, err := richtext.RenderString(req.Document)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": html})
}

type assetView struct {
	asset.Asset
	PreviewURL string `json:"preview_url"`
}

func viewOfAsset(a asset.Asset) assetView {
	return assetView{Asset: a, PreviewURL: a.PreviewURL()}
}

type registerAssetRequest struct {
	Folder   string `json:"folder"`
	FileName string `json:"file_name" validate:"required"`
	URL      string `json:"url" validate:"required,url"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size" validate:"gte=0"`
}

func (s *server) handleRegisterAsset(w http.ResponseWriter, r *http.Request) {
	var req registerAssetRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	a, err := orchestrators.ExecuteRegisterAsset(r.Context(), orchestrators.RegisterAssetInput{
		InstituteID: r.PathValue("inst"),
		Folder:      req.Folder,
		FileName:    req.FileName,
		URL:         req.URL,
		MimeType:    req.MimeType,
		Size:        req.Size,
	}, orchestrators.RegisterAssetDeps{
		AssetStore: s.stores.AssetStore,
		GenerateID: s.genID,
		Now:        s.now,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOfAsset(a))
}

func (s *server) handleSearchAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	assets, err := s.stores.AssetStore.Search(r.Context(), asset.Query{
		InstituteID: r.PathValue("inst"),
		Folder:      q.Get("folder"),
		Search:      q.Get("q"),
		Limit:       min(queryInt(r, "limit", asset.DefaultLimit), 500),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	views := make([]assetView, 0, len(assets))
	for _, a := range assets {
		views = append(views, viewOfAsset(a))
	}
	writeJSON(w, http.StatusOK, views)
}

// handleAdminPerf returns the collector snapshot. ?since=15m bounds the
// window (default 1h); ?top=N bounds the slowest lists.
func (s *server) handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "perf collection disabled"})
		return
	}
	window := time.Hour
	if d, err := time.ParseDuration(r.URL.Query().Get("since")); err == nil && d > 0 {
		window = d
	}
	writeJSON(w, http.StatusOK, s.collector.Snapshot(time.Now().Add(-window), queryInt(r, "top", 0)))
}
