package asset

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacademy/internal/adapters/storage/storagetest"
	domain "vacademy/internal/domain/asset"
)

func TestSQLiteStore_SaveGetSearch(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, a := range []domain.Asset{
		{ID: "a1", InstituteID: "i1", Folder: "logos", FileName: "Logo.png", URL: "https://cdn/logo.png", MimeType: "image/png", Size: 100},
		{ID: "a2", InstituteID: "i1", Folder: "logos", FileName: "banner_100%.png", URL: "https://cdn/b.png", MimeType: "image/png"},
		{ID: "a3", InstituteID: "i1", Folder: "docs", FileName: "syllabus.pdf", URL: "https://cdn/s.pdf", MimeType: "application/pdf"},
		{ID: "a4", InstituteID: "i2", Folder: "logos", FileName: "logo.png", URL: "https://cdn/x.png"},
	} {
		a.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Save(ctx, a))
	}

	got, err := store.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Size)
	assert.True(t, base.Equal(got.CreatedAt))

	_, err = store.GetByID(ctx, "zz")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	tests := []struct {
		name string
		q    domain.Query
		want []string
	}{
		{"institute only, newest first", domain.Query{InstituteID: "i1"}, []string{"a3", "a2", "a1"}},
		{"folder", domain.Query{InstituteID: "i1", Folder: "logos"}, []string{"a2", "a1"}},
		{"case-insensitive search", domain.Query{InstituteID: "i1", Search: "LOGO"}, []string{"a1"}},
		{"like wildcards are literal", domain.Query{InstituteID: "i1", Search: "100%"}, []string{"a2"}},
		{"underscore is literal", domain.Query{InstituteID: "i1", Search: "o_"}, []string{}},
		{"limit", domain.Query{InstituteID: "i1", Limit: 1}, []string{"a3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assets, err := store.Search(ctx, tt.q)
			require.NoError(t, err)
			ids := []string{}
			for _, a := range assets {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
