package course

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacademy/internal/adapters/storage/storagetest"
	domain "vacademy/internal/domain/course"
)

func sampleCourse() domain.Course {
	return domain.Course{
		ID: "c1", InstituteID: "i1", CourseName: "Physics", ThumbnailFileID: "thumb-1",
		ContainLevels: true, Status: domain.StatusActive,
		Sessions: []domain.Session{
			{ID: "s2", SessionName: "2026", Status: domain.StatusActive, StartDate: "2026-04-01", Levels: []domain.Level{
				{ID: "l9", LevelName: "Grade 9", DurationInDays: 180},
				{ID: "l10", LevelName: "Grade 10", DurationInDays: 200, ThumbnailID: "t10"},
			}},
			{ID: "s1", SessionName: "2025", Status: domain.StatusActive, Levels: []domain.Level{
				{ID: "l9", LevelName: "Grade 9", DurationInDays: 180},
			}},
		},
	}
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()
	want := sampleCourse()

	require.NoError(t, store.Save(ctx, want))

	got, err := store.GetByID(ctx, "c1")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("course mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteStore_SaveReplacesSelection(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()
	c := sampleCourse()
	require.NoError(t, store.Save(ctx, c))

	c.CourseName = "Physics II"
	c.Sessions = c.Sessions[1:]
	require.NoError(t, store.Save(ctx, c))

	got, err := store.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Physics II", got.CourseName)
	require.Len(t, got.Sessions, 1)
	assert.Equal(t, "s1", got.Sessions[0].ID)
	assert.Equal(t, 1, got.LevelCount())
}

func TestSQLiteStore_EmptySessionKeepsEmptyLevels(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()
	c := domain.Course{ID: "c2", InstituteID: "i1", CourseName: "Art", Status: domain.StatusDraft,
		Sessions: []domain.Session{{ID: "s1", SessionName: "2025", Status: domain.StatusActive}}}
	require.NoError(t, store.Save(ctx, c))

	got, err := store.GetByID(ctx, "c2")
	require.NoError(t, err)
	require.Len(t, got.Sessions, 1)
	assert.NotNil(t, got.Sessions[0].Levels)
	assert.Empty(t, got.Sessions[0].Levels)
}

func TestSQLiteStore_NotFoundListDelete(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()

	_, err := store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := store.ListByInstitute(ctx, "i1")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, store.Save(ctx, sampleCourse()))
	other := domain.Course{ID: "c0", InstituteID: "i1", CourseName: "Algebra", Status: domain.StatusActive}
	require.NoError(t, store.Save(ctx, other))
	require.NoError(t, store.Save(ctx, domain.Course{ID: "x", InstituteID: "i2", CourseName: "Elsewhere", Status: domain.StatusActive}))

	list, err = store.ListByInstitute(ctx, "i1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Algebra", list[0].CourseName)
	assert.Len(t, list[1].Sessions, 2)

	require.NoError(t, store.Delete(ctx, "c1"))
	_, err = store.GetByID(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
