package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlaceholderImageURL is stored on issues reported without a photo.
const PlaceholderImageURL = "https://via.placeholder.com/400x300?text=No+Image"

// Priority enum
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var priorityWeights = map[Priority]int{
	PriorityCritical: 4,
	PriorityHigh:     3,
	PriorityMedium:   2,
	PriorityLow:      1,
}

// Weight ranks a priority for sorting. Unknown or empty priorities weigh 0.
func (p Priority) Weight() int {
	return priorityWeights[p]
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	_, ok := priorityWeights[p]
	return ok
}

// Coordinates is a map position. Both fields are always set together.
type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// IssueRecord represents a civic issue reported by a user
type IssueRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Category    string             `bson:"category" json:"category"`
	Location    string             `bson:"location" json:"location"`
	Priority    Priority           `bson:"priority" json:"priority"`
	Description string             `bson:"description" json:"description"`
	Image       string             `bson:"image" json:"image"`
	// ImageRef is the provider handle of the uploaded image, only used to delete it.
	ImageRef    *string      `bson:"imagePublicId,omitempty" json:"-"`
	Address     string       `bson:"address,omitempty" json:"address,omitempty"`
	City        string       `bson:"city,omitempty" json:"city,omitempty"`
	State       string       `bson:"state,omitempty" json:"state,omitempty"`
	ZipCode     string       `bson:"zipCode,omitempty" json:"zipCode,omitempty"`
	Country     string       `bson:"country,omitempty" json:"country,omitempty"`
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	CreatedAt   time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// HasCoordinates reports whether the issue can be placed on a map.
func (r *IssueRecord) HasCoordinates() bool {
	return r.Coordinates != nil
}

// IssuePatch holds the fields of a partial update. Nil fields are left untouched.
type IssuePatch struct {
	Title       *string
	Category    *string
	Location    *string
	Priority    *Priority
	Description *string
	Address     *string
	City        *string
	State       *string
	ZipCode     *string
	Country     *string
	Coordinates *Coordinates
}

// Apply overwrites r with every field set in p and stamps UpdatedAt. The
// stamp always moves forward, by at least a millisecond when now does not.
func (p IssuePatch) Apply(r *IssueRecord, now time.Time) {
	setString(&r.Title, p.Title)
	setString(&r.Category, p.Category)
	setString(&r.Location, p.Location)
	setString(&r.Description, p.Description)
	setString(&r.Address, p.Address)
	setString(&r.City, p.City)
	setString(&r.State, p.State)
	setString(&r.ZipCode, p.ZipCode)
	setString(&r.Country, p.Country)
	if p.Priority != nil {
		r.Priority = *p.Priority
	}
	if p.Coordinates != nil {
		c := *p.Coordinates
		r.Coordinates = &c
	}
	if !now.After(r.UpdatedAt) {
		now = r.UpdatedAt.Add(time.Millisecond)
	}
	r.UpdatedAt = now
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
