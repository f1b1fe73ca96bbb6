package services

import (
	"context"
	"errors"
	"time"

	"civicsync-issues/models"
	authUtils "civicsync-issues/utils"

	"github.com/redis/go-redis/v9"
)

// Identity is the authenticated caller of a write operation.
type Identity struct {
	UserID  string
	TokenID string
	// ExpiresAt is when the presented credential stops being valid.
	ExpiresAt time.Time
}

// Authenticated reports whether the identity names a user.
func (id Identity) Authenticated() bool {
	return id.UserID != ""
}

// Gate turns a credential into an identity or models.ErrUnauthorized.
type Gate interface {
	Authenticate(ctx context.Context, credential string) (Identity, error)
}

// Revocations records tokens that were logged out before they expired.
type Revocations interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// TokenGate validates JWTs signed with the application secret.
type TokenGate struct {
	secret      []byte
	revocations Revocations
}

// NewTokenGate builds a gate; revocations may be nil when Redis is not configured.
func NewTokenGate(secret []byte, revocations Revocations) *TokenGate {
	return &TokenGate{secret: secret, revocations: revocations}
}

func (g *TokenGate) Authenticate(ctx context.Context, credential string) (Identity, error) {
	if credential == "" {
		return Identity{}, models.ErrUnauthorized
	}

	claims, err := authUtils.ParseToken(g.secret, credential)
	if err != nil {
		return Identity{}, models.ErrUnauthorized
	}

	if g.revocations != nil && claims.Id != "" {
		revoked, err := g.revocations.IsRevoked(ctx, claims.Id)
		if err != nil {
			return Identity{}, err
		}
		if revoked {
			return Identity{}, models.ErrUnauthorized
		}
	}

	return Identity{
		UserID:    claims.UserID,
		TokenID:   claims.Id,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0),
	}, nil
}

// RedisRevocations keeps revoked token ids as expiring Redis keys.
type RedisRevocations struct {
	client *redis.Client
	prefix string
}

func NewRedisRevocations(client *redis.Client, prefix string) *RedisRevocations {
	return &RedisRevocations{client: client, prefix: prefix}
}

func (r *RedisRevocations) key(tokenID string) string {
	return r.prefix + ":" + tokenID
}

func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.key(tokenID), 1, ttl).Err(); err != nil {
		return &models.StorageError{Op: "revoke token", Err: err}
	}
	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := r.client.Get(ctx, r.key(tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, &models.StorageError{Op: "check token revocation", Err: err}
	}
	return true, nil
}
