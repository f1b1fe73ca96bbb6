package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"civicsync-issues/models"
	"civicsync-issues/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenCookie is the name of the session cookie set on login.
const TokenCookie = "token"

const (
	UserIDKey   = "user_id"
	identityKey = "identity"
)

// Credentials returns the session tokens the request carries: the cookie
// first, then an "Authorization: Bearer <token>" header.
func Credentials(c *gin.Context) []string {
	var out []string
	if token, err := c.Cookie(TokenCookie); err == nil && token != "" {
		out = append(out, token)
	}
	if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		if token = strings.TrimSpace(token); token != "" {
			out = append(out, token)
		}
	}
	return out
}

// Authenticate resolves the first credential the gate accepts, so a stale
// cookie does not shadow a valid bearer token. Errors other than
// ErrUnauthorized stop the search.
func Authenticate(c *gin.Context, gate services.Gate) (services.Identity, error) {
	err := models.ErrUnauthorized
	for _, credential := range Credentials(c) {
		var id services.Identity
		id, err = gate.Authenticate(c.Request.Context(), credential)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, models.ErrUnauthorized) {
			return services.Identity{}, err
		}
	}
	return services.Identity{}, err
}

// AuthMiddleware rejects requests without a valid credential and stores the
// caller's identity on the context.
func AuthMiddleware(gate services.Gate, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := Authenticate(c, gate)
		if err != nil {
			if errors.Is(err, models.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized, please log in"})
				return
			}
			log.Error("authentication lookup failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Something went wrong"})
			return
		}

		c.Set(identityKey, id)
		c.Set(UserIDKey, id.UserID)
		c.Next()
	}
}

// CurrentIdentity returns the identity set by AuthMiddleware, or the zero
// Identity on routes without it.
func CurrentIdentity(c *gin.Context) services.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(services.Identity); ok {
			return id
		}
	}
	return services.Identity{}
}
