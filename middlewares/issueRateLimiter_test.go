package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLimitedRouter(client *redis.Client, limit int) *gin.Engine {
	r := gin.New()
	withUser := func(c *gin.Context) {
		if user := c.GetHeader("X-User"); user != "" {
			c.Set(UserIDKey, user)
		}
		c.Next()
	}
	r.POST("/issues", withUser, IssueRateLimiter(client, "issue-limit", limit, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return r
}

func submit(r *gin.Engine, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/issues", nil)
	if user != "" {
		req.Header.Set("X-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIssueRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	r := newLimitedRouter(client, 2)

	assert.Equal(t, http.StatusCreated, submit(r, "alice").Code)
	assert.Equal(t, http.StatusCreated, submit(r, "alice").Code)

	w := submit(r, "alice")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"retry_after"`)
	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.InDelta(t, (24 * time.Hour).Seconds(), retry, 5)

	assert.Equal(t, http.StatusCreated, submit(r, "bob").Code, "limits are per user")

	ttl := mr.TTL("issue-limit:alice")
	assert.Equal(t, 24*time.Hour, ttl)

	mr.FastForward(25 * time.Hour)
	assert.Equal(t, http.StatusCreated, submit(r, "alice").Code, "window resets")
}

func TestIssueRateLimiterRequiresUser(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	assert.Equal(t, http.StatusUnauthorized, submit(newLimitedRouter(client, 1), "").Code)
}

func TestIssueRateLimiterRedisFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	mr.SetError("ERR server unavailable")

	assert.Equal(t, http.StatusInternalServerError, submit(newLimitedRouter(client, 1), "alice").Code)
}

func TestIssueRateLimiterDisabledWithoutRedis(t *testing.T) {
	r := newLimitedRouter(nil, 1)
	for range 5 {
		assert.Equal(t, http.StatusCreated, submit(r, "alice").Code)
	}
}
