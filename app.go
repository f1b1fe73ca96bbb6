package main

import (
	"context"
	"database/sql"
	"fmt"

	"civicsync-issues/config"
	"civicsync-issues/controllers"
	"civicsync-issues/images"
	"civicsync-issues/routes"
	"civicsync-issues/services"
	"civicsync-issues/store"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// backend is the storage selected by STORE_DRIVER.
type backend struct {
	issues store.IssueStore
	users  store.UserStore

	ensureIndexes func(ctx context.Context) error
	close         func()
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := config.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &backend{
			issues:        store.NewSQLiteIssueStore(db),
			users:         store.NewSQLiteUserStore(db),
			ensureIndexes: func(context.Context) error { return store.EnsureSQLiteSchema(db) },
			close:         func() { closeSQL(db) },
		}, nil

	default:
		client, db, err := config.ConnectDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		issues := store.NewMongoIssueStore(db)
		users := store.NewMongoUserStore(db)
		return &backend{
			issues: issues,
			users:  users,
			ensureIndexes: func(ctx context.Context) error {
				if err := issues.EnsureIndexes(ctx); err != nil {
					return err
				}
				return users.EnsureIndexes(ctx)
			},
			close: func() { disconnectMongo(client) },
		}, nil
	}
}

func closeSQL(db *sql.DB) { _ = db.Close() }

func disconnectMongo(client *mongo.Client) { _ = client.Disconnect(context.Background()) }

// app holds the wired HTTP handler and everything that must be closed on exit.
type app struct {
	handler *gin.Engine
	issues  *services.IssueService
	backend *backend
	redis   *redis.Client
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	be, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := be.ensureIndexes(ctx); err != nil {
		be.close()
		return nil, fmt.Errorf("ensuring indexes: %w", err)
	}

	redisClient, err := config.ConnectRedis(ctx, cfg.RedisAddress, cfg.RedisPassword)
	if err != nil {
		be.close()
		return nil, err
	}
	if redisClient == nil {
		log.Warn("REDIS_ADDRESS not set: issue rate limiting and logout revocation are disabled")
	}

	provider, err := imageProvider(cfg, log)
	if err != nil {
		be.close()
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, err
	}

	secret := []byte(cfg.JWTSecret)
	var revocations services.Revocations
	if redisClient != nil {
		revocations = services.NewRedisRevocations(redisClient, "revoked-token")
	}
	gate := services.NewTokenGate(secret, revocations)

	var google services.GoogleVerifier
	if cfg.GoogleClientID != "" {
		google = services.NewIDTokenVerifier(cfg.GoogleClientID)
	}

	issues := services.NewIssueService(be.issues, provider, log, services.IssueServiceOptions{
		MaxUploadBytes:     cfg.MaxUploadBytes,
		ImageDeleteTimeout: cfg.ImageDeleteTimeout,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := routes.NewRouter(routes.Dependencies{
		Issues: controllers.NewIssueController(issues, log),
		Auth: controllers.NewAuthController(be.users, gate, revocations, google, controllers.AuthOptions{
			Secret:       secret,
			TokenTTL:     cfg.TokenTTL,
			Production:   cfg.IsProduction(),
			CookieDomain: cfg.CookieDomain,
		}, log),
		Gate:             gate,
		Redis:            redisClient,
		IssueLimitPrefix: cfg.IssueLimitPrefix,
		IssueDailyLimit:  cfg.IssueDailyLimit,
		CORSOrigins:      cfg.CORSOrigins,
		MaxUploadBytes:   cfg.MaxUploadBytes,
		Log:              log,
	})

	return &app{handler: handler, issues: issues, backend: be, redis: redisClient}, nil
}

func (a *app) close() {
	a.issues.Wait()
	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.backend.close()
}

func imageProvider(cfg *config.Config, log *zap.Logger) (images.Provider, error) {
	if cfg.CloudinaryURL == "" {
		log.Warn("CLOUDINARY_URL not set: uploaded images are discarded and the placeholder is used")
		return images.Disabled{}, nil
	}
	return images.NewCloudinary(cfg.CloudinaryURL, cfg.CloudinaryFolder)
}
