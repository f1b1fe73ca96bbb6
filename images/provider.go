// Package images stores issue photos with an external provider.
package images

import (
	"context"
	"errors"
	"io"
)

//go:generate mockgen -destination=../mocks/mock_provider.go -package=mocks civicsync-issues/images Provider

// ErrDisabled is returned by Disabled for every upload.
var ErrDisabled = errors.New("image storage is not configured")

// Attachment is a stored image: the public URL and the handle needed to delete it.
type Attachment struct {
	URL string
	Ref string
}

// Provider is an external image store.
type Provider interface {
	Upload(ctx context.Context, name string, r io.Reader) (Attachment, error)
	Delete(ctx context.Context, ref string) error
}

// Disabled is used when no provider is configured. Issues keep the placeholder image.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, io.Reader) (Attachment, error) {
	return Attachment{}, ErrDisabled
}

func (Disabled) Delete(context.Context, string) error {
	return ErrDisabled
}
