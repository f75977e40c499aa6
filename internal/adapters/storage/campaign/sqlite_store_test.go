package campaign

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacademy/internal/adapters/storage/storagetest"
	domain "vacademy/internal/domain/campaign"
)

func TestSQLiteStore_SaveGetList(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	c := domain.Campaign{
		ID: "c1", InstituteID: "i1", Name: "Spring intake", AudienceID: "aud-1",
		Status: domain.StatusActive, CreatedAt: created,
		CustomFields: []domain.FieldRef{
			{CustomFieldID: "f2", FieldName: "School"},
			{CustomFieldID: "f1", FieldKey: "city", FormOrder: 3},
			{CustomFieldID: "f2"},
		},
	}
	require.NoError(t, store.Save(ctx, c))

	got, err := store.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Spring intake", got.Name)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, []domain.FieldRef{
		{CustomFieldID: "f2", FieldName: "School"},
		{CustomFieldID: "f1", FieldKey: "city", FormOrder: 3},
	}, got.CustomFields, "duplicate declarations collapse to the first")

	_, err = store.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Save(ctx, domain.Campaign{ID: "c2", InstituteID: "i1", Name: "Later", AudienceID: "aud-2",
		Status: domain.StatusDraft, CreatedAt: created.Add(time.Hour)}))
	list, err := store.ListByInstitute(ctx, "i1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c2", list[0].ID)
	assert.Len(t, list[1].CustomFields, 2)
}

func seedLeads(t *testing.T, store *LeadSQLiteStore) time.Time {
	t.Helper()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	names := []string{"Chitra", "Arun", "Bela", "Dev", "Esha"}
	for i, name := range names {
		require.NoError(t, store.Save(context.Background(), domain.Lead{
			ResponseID:        fmt.Sprintf("r%d", i),
			AudienceID:        "aud-1",
			User:              domain.User{FullName: name, Email: fmt.Sprintf("%s@example.com", name)},
			CustomFieldValues: map[string]string{"city": fmt.Sprintf("City %d", i)},
			SubmittedAtLocal:  base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, store.Save(context.Background(), domain.Lead{ResponseID: "other", AudienceID: "aud-2", SubmittedAtLocal: base}))
	return base
}

func TestLeadSQLiteStore_SearchPagingAndSort(t *testing.T) {
	store := NewLeadSQLiteStore(storagetest.Open(t))
	seedLeads(t, store)
	ctx := context.Background()

	page, err := store.Search(ctx, domain.LeadQuery{AudienceID: "aud-1", Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.False(t, page.Last)
	require.Len(t, page.Content, 2)
	assert.Equal(t, "r2", page.Content[0].ResponseID, "default sort is newest first")
	assert.Equal(t, "City 2", page.Content[0].CustomFieldValues["city"])

	page, err = store.Search(ctx, domain.LeadQuery{AudienceID: "aud-1", SortBy: domain.SortFullName, SortDirection: "asc"})
	require.NoError(t, err)
	require.Len(t, page.Content, 5)
	assert.Equal(t, "Arun", page.Content[0].User.FullName)
	assert.True(t, page.Last)

	page, err = store.Search(ctx, domain.LeadQuery{AudienceID: "aud-1", SortBy: "password; DROP TABLE lead_response"})
	require.NoError(t, err, "unknown sort keys fall back")
	assert.Len(t, page.Content, 5)
}

func TestLeadSQLiteStore_SearchDateRange(t *testing.T) {
	store := NewLeadSQLiteStore(storagetest.Open(t))
	base := seedLeads(t, store)
	ctx := context.Background()

	from, to := base.Add(time.Hour), base.Add(3*time.Hour)
	page, err := store.Search(ctx, domain.LeadQuery{AudienceID: "aud-1", SubmittedFrom: &from, SubmittedTo: &to})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalElements)

	_, err = store.Search(ctx, domain.LeadQuery{AudienceID: "aud-1", SubmittedFrom: &to, SubmittedTo: &from})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	empty, err := store.Search(ctx, domain.LeadQuery{AudienceID: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, empty.Content)
	assert.Zero(t, empty.TotalElements)
}
