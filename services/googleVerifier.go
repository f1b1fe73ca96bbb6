package services

import (
	"context"
	"fmt"
	"strings"

	"civicsync-issues/models"

	"google.golang.org/api/idtoken"
)

// GoogleProfile is the part of a Google ID token used to sign a user in.
type GoogleProfile struct {
	Subject string
	Email   string
	Name    string
}

// GoogleVerifier checks a Google ID token issued to this application.
type GoogleVerifier interface {
	Verify(ctx context.Context, token string) (GoogleProfile, error)
}

// IDTokenVerifier verifies tokens against Google's published keys.
type IDTokenVerifier struct {
	audience string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewIDTokenVerifier(clientID string) *IDTokenVerifier {
	return &IDTokenVerifier{audience: clientID, validate: idtoken.Validate}
}

func (v *IDTokenVerifier) Verify(ctx context.Context, token string) (GoogleProfile, error) {
	if token == "" {
		return GoogleProfile{}, models.ErrUnauthorized
	}

	payload, err := v.validate(ctx, token, v.audience)
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return GoogleProfile{}, fmt.Errorf("%w: token has no email", models.ErrUnauthorized)
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return GoogleProfile{}, fmt.Errorf("%w: email not verified", models.ErrUnauthorized)
	}

	name, _ := payload.Claims["name"].(string)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	return GoogleProfile{Subject: payload.Subject, Email: strings.ToLower(email), Name: name}, nil
}
