// Package validation turns loosely shaped issue submissions into canonical
// records, or into the list of fields that made them unacceptable.
package validation

import (
	"errors"
	"math"
	"reflect"
	"strings"

	"civicsync-issues/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

const priorityRule = "oneof=low medium high critical"

// CoordinatesInput keeps lat and lng optional so half-filled pairs can be rejected.
type CoordinatesInput struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// IssueInput is a raw create submission, bound from JSON or multipart form fields.
type IssueInput struct {
	Title       string            `json:"title" form:"title" validate:"required"`
	Category    string            `json:"category" form:"category" validate:"required"`
	Location    string            `json:"location" form:"location" validate:"required"`
	Priority    string            `json:"priority" form:"priority" validate:"required,oneof=low medium high critical"`
	Description string            `json:"description" form:"description" validate:"required"`
	Address     string            `json:"address" form:"address"`
	City        string            `json:"city" form:"city"`
	State       string            `json:"state" form:"state"`
	ZipCode     string            `json:"zipCode" form:"zipCode"`
	Country     string            `json:"country" form:"country"`
	Coordinates *CoordinatesInput `json:"coordinates" form:"-" validate:"-"`
}

// PatchInput is a raw partial update. Image fields are not accepted.
type PatchInput struct {
	Title       *string           `json:"title"`
	Category    *string           `json:"category"`
	Location    *string           `json:"location"`
	Priority    *string           `json:"priority"`
	Description *string           `json:"description"`
	Address     *string           `json:"address"`
	City        *string           `json:"city"`
	State       *string           `json:"state"`
	ZipCode     *string           `json:"zipCode"`
	Country     *string           `json:"country"`
	Coordinates *CoordinatesInput `json:"coordinates"`
}

// Result is either a normalised draft or the offending field names, never both.
type Result struct {
	draft  *models.IssueRecord
	fields []string
}

func ok(draft *models.IssueRecord) Result { return Result{draft: draft} }

func invalid(fields []string) Result { return Result{fields: fields} }

// Valid reports whether the submission produced a draft.
func (r Result) Valid() bool { return len(r.fields) == 0 }

// Draft returns the normalised record, nil for an invalid result.
func (r Result) Draft() *models.IssueRecord { return r.draft }

// Fields returns the names of the rejected fields in declaration order.
func (r Result) Fields() []string { return r.fields }

// Err converts an invalid result into a *models.ValidationError.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &models.ValidationError{Fields: r.fields}
}

// NormalizeIssue trims every string field, lowercases priority, checks the
// required fields and applies the placeholder image. It has no side effects.
func NormalizeIssue(in IssueInput) Result {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.Location = strings.TrimSpace(in.Location)
	in.Priority = strings.ToLower(strings.TrimSpace(in.Priority))
	in.Description = strings.TrimSpace(in.Description)

	fields := structErrors(validate.Struct(in))

	coords, coordsOK := normalizeCoordinates(in.Coordinates)
	if !coordsOK {
		fields = append(fields, "coordinates")
	}
	if len(fields) > 0 {
		return invalid(fields)
	}

	return ok(&models.IssueRecord{
		Title:       in.Title,
		Category:    in.Category,
		Location:    in.Location,
		Priority:    models.Priority(in.Priority),
		Description: in.Description,
		Image:       models.PlaceholderImageURL,
		Address:     strings.TrimSpace(in.Address),
		City:        strings.TrimSpace(in.City),
		State:       strings.TrimSpace(in.State),
		ZipCode:     strings.TrimSpace(in.ZipCode),
		Country:     strings.TrimSpace(in.Country),
		Coordinates: coords,
	})
}

// NormalizePatch checks the provided fields of an update. Required fields may
// not be blanked, priority must be known and coordinates must be complete.
func NormalizePatch(in PatchInput) (models.IssuePatch, error) {
	var (
		patch  models.IssuePatch
		fields []string
	)

	required := []struct {
		name string
		src  *string
		dst  **string
	}{
		{"title", in.Title, &patch.Title},
		{"category", in.Category, &patch.Category},
		{"location", in.Location, &patch.Location},
		{"description", in.Description, &patch.Description},
	}
	for _, f := range required {
		if f.src == nil {
			continue
		}
		v := strings.TrimSpace(*f.src)
		if validate.Var(v, "required") != nil {
			fields = append(fields, f.name)
			continue
		}
		*f.dst = &v
	}

	if in.Priority != nil {
		p := strings.ToLower(strings.TrimSpace(*in.Priority))
		if validate.Var(p, "required,"+priorityRule) != nil {
			fields = append(fields, "priority")
		} else {
			priority := models.Priority(p)
			patch.Priority = &priority
		}
	}

	patch.Address = trimmed(in.Address)
	patch.City = trimmed(in.City)
	patch.State = trimmed(in.State)
	patch.ZipCode = trimmed(in.ZipCode)
	patch.Country = trimmed(in.Country)

	coords, coordsOK := normalizeCoordinates(in.Coordinates)
	if !coordsOK {
		fields = append(fields, "coordinates")
	}
	patch.Coordinates = coords

	if len(fields) > 0 {
		return models.IssuePatch{}, &models.ValidationError{Fields: fields}
	}
	return patch, nil
}

func normalizeCoordinates(in *CoordinatesInput) (*models.Coordinates, bool) {
	if in == nil {
		return nil, true
	}
	if in.Lat == nil || in.Lng == nil || !finite(*in.Lat) || !finite(*in.Lng) {
		return nil, false
	}
	return &models.Coordinates{Lat: *in.Lat, Lng: *in.Lng}, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func structErrors(err error) []string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"payload"}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}
