package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityWeight(t *testing.T) {
	assert.Equal(t, 4, PriorityCritical.Weight())
	assert.Equal(t, 3, PriorityHigh.Weight())
	assert.Equal(t, 2, PriorityMedium.Weight())
	assert.Equal(t, 1, PriorityLow.Weight())
	assert.Equal(t, 0, Priority("").Weight())
	assert.Equal(t, 0, Priority("urgent").Weight())

	assert.True(t, PriorityHigh.Valid())
	assert.False(t, Priority("High").Valid())
}

func TestIssuePatchApply(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := IssueRecord{
		Title:       "Pothole",
		Category:    "infrastructure",
		Location:    "Main St",
		Priority:    PriorityLow,
		Description: "Large pothole",
		Image:       PlaceholderImageURL,
		City:        "Springfield",
		CreatedAt:   created,
		UpdatedAt:   created,
	}

	high := PriorityHigh
	later := created.Add(time.Hour)
	IssuePatch{Priority: &high, Coordinates: &Coordinates{Lat: 1.5, Lng: -2}}.Apply(&rec, later)

	assert.Equal(t, PriorityHigh, rec.Priority)
	require.True(t, rec.HasCoordinates())
	assert.Equal(t, Coordinates{Lat: 1.5, Lng: -2}, *rec.Coordinates)
	assert.Equal(t, "Pothole", rec.Title)
	assert.Equal(t, "Springfield", rec.City)
	assert.Equal(t, created, rec.CreatedAt)
	assert.Equal(t, later, rec.UpdatedAt)
}

func TestIssuePatchApplyAdvancesUpdatedAt(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := IssueRecord{Title: "Pothole", CreatedAt: created, UpdatedAt: created}

	title := "Deep pothole"
	IssuePatch{Title: &title}.Apply(&rec, created)
	assert.Equal(t, created.Add(time.Millisecond), rec.UpdatedAt)

	IssuePatch{Title: &title}.Apply(&rec, created.Add(-time.Second))
	assert.Equal(t, created.Add(2*time.Millisecond), rec.UpdatedAt)
}

func TestErrorTaxonomyUnwraps(t *testing.T) {
	cause := errors.New("connection refused")

	var storageErr error = &StorageError{Op: "insert", Err: cause}
	assert.ErrorIs(t, storageErr, cause)

	var extErr error = &ExternalServiceError{Service: "cloudinary", Err: cause}
	assert.ErrorIs(t, extErr, cause)

	verr := &ValidationError{Fields: []string{"title", "priority"}}
	assert.Equal(t, "invalid or missing fields: title, priority", verr.Error())
}

func TestComparePasswordWithoutHash(t *testing.T) {
	u := User{Password: "secret1"}
	require.NoError(t, u.HashPassword())
	assert.True(t, u.ComparePassword("secret1"))
	assert.False(t, u.ComparePassword("secret2"))

	google := User{}
	assert.False(t, google.ComparePassword(""))
}
