package validation

import (
	"math"
	"testing"

	"civicsync-issues/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() IssueInput {
	return IssueInput{
		Title:       "Pothole",
		Category:    "infrastructure",
		Location:    "Main St",
		Priority:    "high",
		Description: "Large pothole",
	}
}

func ptr[T any](v T) *T { return &v }

func TestNormalizeIssueAppliesDefaults(t *testing.T) {
	res := NormalizeIssue(validInput())
	require.True(t, res.Valid())
	require.NoError(t, res.Err())

	draft := res.Draft()
	assert.Equal(t, "Pothole", draft.Title)
	assert.Equal(t, models.PriorityHigh, draft.Priority)
	assert.Equal(t, models.PlaceholderImageURL, draft.Image)
	assert.Nil(t, draft.ImageRef)
	assert.Nil(t, draft.Coordinates)
	assert.False(t, draft.HasCoordinates())
	assert.True(t, draft.ID.IsZero())
}

func TestNormalizeIssueTrims(t *testing.T) {
	in := validInput()
	in.Title = "  Broken light  "
	in.Priority = " CRITICAL "
	in.City = " Springfield\t"

	res := NormalizeIssue(in)
	require.True(t, res.Valid())
	assert.Equal(t, "Broken light", res.Draft().Title)
	assert.Equal(t, models.PriorityCritical, res.Draft().Priority)
	assert.Equal(t, "Springfield", res.Draft().City)
}

func TestNormalizeIssueMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*IssueInput)
		field string
	}{
		{"title", func(in *IssueInput) { in.Title = "" }, "title"},
		{"category", func(in *IssueInput) { in.Category = "   " }, "category"},
		{"location", func(in *IssueInput) { in.Location = "" }, "location"},
		{"priority", func(in *IssueInput) { in.Priority = "" }, "priority"},
		{"description", func(in *IssueInput) { in.Description = "\n" }, "description"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.edit(&in)

			res := NormalizeIssue(in)
			assert.False(t, res.Valid())
			assert.Nil(t, res.Draft())
			assert.Equal(t, []string{tt.field}, res.Fields())

			var verr *models.ValidationError
			require.ErrorAs(t, res.Err(), &verr)
			assert.Equal(t, []string{tt.field}, verr.Fields)
		})
	}
}

func TestNormalizeIssueReportsEveryMissingField(t *testing.T) {
	res := NormalizeIssue(IssueInput{})
	assert.Equal(t, []string{"title", "category", "location", "priority", "description"}, res.Fields())
}

func TestNormalizeIssueRejectsUnknownPriority(t *testing.T) {
	in := validInput()
	in.Priority = "urgent"
	res := NormalizeIssue(in)
	assert.Equal(t, []string{"priority"}, res.Fields())
}

func TestNormalizeIssueCoordinates(t *testing.T) {
	in := validInput()
	in.Coordinates = &CoordinatesInput{Lat: ptr(40.7128), Lng: ptr(-74.006)}
	res := NormalizeIssue(in)
	require.True(t, res.Valid())
	assert.Equal(t, &models.Coordinates{Lat: 40.7128, Lng: -74.006}, res.Draft().Coordinates)

	in.Coordinates = &CoordinatesInput{Lat: ptr(40.7128)}
	assert.Equal(t, []string{"coordinates"}, NormalizeIssue(in).Fields())

	in.Coordinates = &CoordinatesInput{Lat: ptr(math.NaN()), Lng: ptr(1.0)}
	assert.Equal(t, []string{"coordinates"}, NormalizeIssue(in).Fields())

	in.Coordinates = &CoordinatesInput{Lat: ptr(math.Inf(1)), Lng: ptr(1.0)}
	assert.Equal(t, []string{"coordinates"}, NormalizeIssue(in).Fields())
}

func TestNormalizePatch(t *testing.T) {
	patch, err := NormalizePatch(PatchInput{Priority: ptr("HIGH"), City: ptr(" Austin ")})
	require.NoError(t, err)
	require.NotNil(t, patch.Priority)
	assert.Equal(t, models.PriorityHigh, *patch.Priority)
	assert.Equal(t, "Austin", *patch.City)
	assert.Nil(t, patch.Title)
	assert.Nil(t, patch.Coordinates)
}

func TestNormalizePatchRejectsBlankingAndBadValues(t *testing.T) {
	_, err := NormalizePatch(PatchInput{
		Title:       ptr("  "),
		Priority:    ptr("someday"),
		Coordinates: &CoordinatesInput{Lng: ptr(3.0)},
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"title", "priority", "coordinates"}, verr.Fields)
}

func TestNormalizePatchAllowsClearingOptionalFields(t *testing.T) {
	patch, err := NormalizePatch(PatchInput{Address: ptr("")})
	require.NoError(t, err)
	require.NotNil(t, patch.Address)
	assert.Equal(t, "", *patch.Address)
}
