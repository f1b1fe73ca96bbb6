package routes

import (
	"net/http"
	"time"

	"civicsync-issues/controllers"
	"civicsync-issues/middlewares"
	"civicsync-issues/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies is everything the router wires into handlers.
type Dependencies struct {
	Issues *controllers.IssueController
	Auth   *controllers.AuthController
	Gate   services.Gate

	// Redis may be nil, which disables the issue rate limit.
	Redis            *redis.Client
	IssueLimitPrefix string
	IssueDailyLimit  int

	CORSOrigins    []string
	MaxUploadBytes int64
	Log            *zap.Logger
}

// NewRouter builds the gin engine with CORS, request logging and all routes.
func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestLogger(deps.Log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if deps.MaxUploadBytes > 0 {
		// room for the form fields next to the image
		r.MaxMultipartMemory = deps.MaxUploadBytes + 1<<20
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	requireAuth := middlewares.AuthMiddleware(deps.Gate, deps.Log)
	limitCreate := middlewares.IssueRateLimiter(deps.Redis, deps.IssueLimitPrefix, deps.IssueDailyLimit, deps.Log)

	IssueRoutes(r, deps.Issues, requireAuth, limitCreate)
	AuthRoutes(r, deps.Auth)

	return r
}
