package store

import (
	"context"
	"testing"
	"time"

	"civicsync-issues/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stepClock returns a clock that advances one second per call.
func stepClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func pothole() *models.IssueRecord {
	return &models.IssueRecord{
		Title:       "Pothole",
		Category:    "infrastructure",
		Location:    "Main St",
		Priority:    models.PriorityHigh,
		Description: "Large pothole",
		Image:       models.PlaceholderImageURL,
	}
}

func newSQLiteIssueStore(t *testing.T) *SQLiteIssueStore {
	t.Helper()
	return NewSQLiteIssueStore(NewTestDB(t), WithClock(stepClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))))
}

func TestSQLiteCreateAndGet(t *testing.T) {
	s := newSQLiteIssueStore(t)
	ctx := context.Background()

	in := pothole()
	ref := "civicsync/issues/abc"
	in.ImageRef = &ref
	in.Image = "https://res.cloudinary.com/demo/image/upload/abc.jpg"
	in.City = "Springfield"
	in.Coordinates = &models.Coordinates{Lat: 39.78, Lng: -89.65}

	created, err := s.Create(ctx, in)
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.True(t, in.ID.IsZero(), "input record must not be modified")

	got, err := s.Get(ctx, created.ID.Hex())
	require.NoError(t, err)
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("stored record mismatch (-created +got):\n%s", diff)
	}

	want := *in
	want.ID, want.CreatedAt, want.UpdatedAt = got.ID, got.CreatedAt, got.UpdatedAt
	if diff := cmp.Diff(&want, got); diff != "" {
		t.Errorf("record differs from input (-want +got):\n%s", diff)
	}
}

func TestSQLiteCreateWithoutCoordinates(t *testing.T) {
	s := newSQLiteIssueStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, pothole())
	require.NoError(t, err)

	got, err := s.Get(ctx, created.ID.Hex())
	require.NoError(t, err)
	assert.Nil(t, got.Coordinates)
	assert.Nil(t, got.ImageRef)
}

func TestSQLiteGetNotFound(t *testing.T) {
	s := newSQLiteIssueStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = s.Get(ctx, "not-an-id")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSQLiteListAll(t *testing.T) {
	s := newSQLiteIssueStore(t)
	ctx := context.Background()

	empty, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, title := range []string{"a", "b", "c"} {
		rec := pothole()
		rec.Title = title
		_, err := s.Create(ctx, rec)
		require.NoError(t, err)
	}

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	titles := []string{all[0].Title, all[1].Title, all[2].Title}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, titles)
}

func TestSQLiteUpdate(t *testing.T) {
	s := newSQLiteIssueStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, pothole())
	require.NoError(t, err)

	low := models.PriorityLow
	city := "Shelbyville"
	updated, err := s.Update(ctx, created.ID.Hex(), models.IssuePatch{
		Priority:    &low,
		City:        &city,
		Coordinates: &models.Coordinates{Lat: 1, Lng: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityLow, updated.Priority)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	got, err := s.Get(ctx, created.ID.Hex())
	require.NoError(t, err)
	if diff := cmp.Diff(updated, got); diff != "" {
		t.Errorf("update not persisted (-updated +got):\n%s", diff)
	}
	assert.Equal(t, "Pothole", got.Title)
	assert.Equal(t, "Shelbyville", got.City)
	assert.Equal(t, &models.Coordinates{Lat: 1, Lng: 2}, got.Coordinates)
}

func TestSQLiteUpdateWithinSameMillisecond(t *testing.T) {
	frozen := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewSQLiteIssueStore(NewTestDB(t), WithClock(func() time.Time { return frozen }))
	ctx := context.Background()

	created, err := s.Create(ctx, pothole())
	require.NoError(t, err)

	title := "Deep pothole"
	first, err := s.Update(ctx, created.ID.Hex(), models.IssuePatch{Title: &title})
	require.NoError(t, err)
	assert.True(t, first.UpdatedAt.After(created.UpdatedAt))

	second, err := s.Update(ctx, created.ID.Hex(), models.IssuePatch{Title: &title})
	require.NoError(t, err)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestSQLiteUpdateNotFound(t *testing.T) {
	s := newSQLiteIssueStore(t)
	title := "x"
	_, err := s.Update(context.Background(), primitive.NewObjectID().Hex(), models.IssuePatch{Title: &title})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSQLiteDelete(t *testing.T) {
	s := newSQLiteIssueStore(t)
	ctx := context.Background()

	in := pothole()
	ref := "civicsync/issues/xyz"
	in.ImageRef = &ref
	created, err := s.Create(ctx, in)
	require.NoError(t, err)

	deleted, err := s.Delete(ctx, created.ID.Hex())
	require.NoError(t, err)
	require.NotNil(t, deleted.ImageRef)
	assert.Equal(t, ref, *deleted.ImageRef)

	_, err = s.Get(ctx, created.ID.Hex())
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = s.Delete(ctx, created.ID.Hex())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSQLiteStorageError(t *testing.T) {
	db := NewTestDB(t)
	s := NewSQLiteIssueStore(db)
	require.NoError(t, db.Close())

	_, err := s.Create(context.Background(), pothole())
	var storageErr *models.StorageError
	assert.ErrorAs(t, err, &storageErr)

	_, err = s.ListAll(context.Background())
	assert.ErrorAs(t, err, &storageErr)
}
