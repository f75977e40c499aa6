package customfield

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacademy/internal/adapters/storage/storagetest"
	domain "vacademy/internal/domain/customfield"
)

func TestSQLiteStore_ReplaceAllAndList(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()

	require.NoError(t, store.ReplaceAll(ctx, "i1", []domain.Field{
		{ID: "b", FieldKey: "school", FieldName: "School", FieldType: domain.TypeText, FormOrder: 2},
		{ID: "a", FieldKey: "city", FieldName: "City", FieldType: domain.TypeText, FormOrder: 1},
		{ID: "a", FieldKey: "city", FieldName: "Town", FieldType: domain.TypeText, FormOrder: 1},
	}))
	require.NoError(t, store.ReplaceAll(ctx, "i2", []domain.Field{{ID: "z", FieldKey: "zip"}}))

	got, err := store.ListByInstitute(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Field{
		{ID: "a", FieldKey: "city", FieldName: "Town", FieldType: domain.TypeText, FormOrder: 1},
		{ID: "b", FieldKey: "school", FieldName: "School", FieldType: domain.TypeText, FormOrder: 2},
	}, got)

	require.NoError(t, store.ReplaceAll(ctx, "i1", nil))
	got, err = store.ListByInstitute(ctx, "i1")
	require.NoError(t, err)
	assert.Empty(t, got)

	other, err := store.ListByInstitute(ctx, "i2")
	require.NoError(t, err)
	assert.Len(t, other, 1, "other institutes untouched")
}
