package asset

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// PlaceholderSVG is shown wherever an image URL is missing.
const PlaceholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="160" height="120" viewBox="0 0 160 120">` +
	`<rect width="160" height="120" fill="#e5e7eb"/>` +
	`<path d="M40 88l24-30 18 22 12-14 26 22z" fill="#9ca3af"/>` +
	`<circle cx="108" cy="44" r="10" fill="#9ca3af"/></svg>`

// PlaceholderDataURI is PlaceholderSVG as an inline data URI.
const PlaceholderDataURI = "data:image/svg+xml;utf8," +
	`%3Csvg xmlns='http://www.w3.org/2000/svg' width='160' height='120' viewBox='0 0 160 120'%3E` +
	`%3Crect width='160' height='120' fill='%23e5e7eb'/%3E` +
	`%3Cpath d='M40 88l24-30 18 22 12-14 26 22z' fill='%239ca3af'/%3E` +
	`%3Ccircle cx='108' cy='44' r='10' fill='%239ca3af'/%3E%3C/svg%3E`

// Domain errors
var (
	ErrEmptyInstituteID = errors.New("institute id cannot be empty")
	ErrEmptyFileName    = errors.New("file name cannot be empty")
	ErrEmptyURL         = errors.New("asset url cannot be empty")
	ErrNegativeSize     = errors.New("asset size cannot be negative")
	ErrNotFound         = errors.New("asset not found")
)

// Asset is an uploaded file registered for an institute.
// The bytes live in object storage; only metadata is kept here.
type Asset struct {
	ID          string    `json:"id"`
	InstituteID string    `json:"institute_id"`
	Folder      string    `json:"folder"`
	FileName    string    `json:"file_name"`
	URL         string    `json:"url"`
	MimeType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks if the Asset has valid data.
// PRE: Asset struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Asset) Validate() error {
	if strings.TrimSpace(a.InstituteID) == "" {
		return ErrEmptyInstituteID
	}
	if strings.TrimSpace(a.FileName) == "" {
		return ErrEmptyFileName
	}
	if strings.TrimSpace(a.URL) == "" {
		return ErrEmptyURL
	}
	if a.Size < 0 {
		return ErrNegativeSize
	}
	return nil
}

// IsImage reports whether the asset has an image mime type.
func (a *Asset) IsImage() bool {
	return strings.HasPrefix(a.MimeType, "image/")
}

// PreviewURL returns the URL to preview the asset, or the placeholder image
// for images without a URL and for non-image assets.
func (a *Asset) PreviewURL() string {
	if a.IsImage() && strings.TrimSpace(a.URL) != "" {
		return a.URL
	}
	return PlaceholderDataURI
}

// Query filters an institute's assets.
type Query struct {
	InstituteID string `json:"institute_id"`
	Folder      string `json:"folder,omitempty"`
	Search      string `json:"search,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

// DefaultLimit bounds asset searches without an explicit limit.
const DefaultLimit = 50
