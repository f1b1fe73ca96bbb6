// Package store persists issue records and user accounts. MongoDB is the
// primary backend; SQLite serves single-node deployments and tests.
package store

import (
	"context"
	"errors"
	"time"

	"civicsync-issues/models"
)

//go:generate mockgen -destination=../mocks/mock_store.go -package=mocks civicsync-issues/store IssueStore,UserStore

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("user with this email already exists")
)

// IssueStore is durable storage of issue records keyed by id.
//
// Get, Update and Delete return models.ErrNotFound for unknown or malformed
// ids. Any other failure is a *models.StorageError.
type IssueStore interface {
	// Create assigns the id and timestamps and returns the stored record.
	Create(ctx context.Context, rec *models.IssueRecord) (*models.IssueRecord, error)
	Get(ctx context.Context, id string) (*models.IssueRecord, error)
	// ListAll returns a snapshot of every record in no particular order.
	ListAll(ctx context.Context) ([]models.IssueRecord, error)
	// Update merges patch into the record and re-stamps UpdatedAt.
	Update(ctx context.Context, id string, patch models.IssuePatch) (*models.IssueRecord, error)
	// Delete removes the record and returns it as it was before removal.
	Delete(ctx context.Context, id string) (*models.IssueRecord, error)
}

// UserStore holds accounts for the authentication endpoints.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

type options struct {
	now func() time.Time
}

// Option configures a store.
type Option func(*options)

// WithClock replaces time.Now for timestamping.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// stamp returns the current time at the precision both backends can keep.
func (o options) stamp() time.Time {
	return o.now().UTC().Truncate(time.Millisecond)
}

func storageErr(op string, err error) error {
	return &models.StorageError{Op: op, Err: err}
}
