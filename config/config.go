package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Config holds all application configuration
type Config struct {
	Env  string
	Port string

	StoreDriver   string
	MongoURI      string
	MongoDatabase string
	SQLitePath    string

	RedisAddress     string
	RedisPassword    string
	IssueLimitPrefix string
	IssueDailyLimit  int

	JWTSecret    string
	TokenTTL     time.Duration
	CookieDomain string
	CORSOrigins  []string

	CloudinaryURL      string
	CloudinaryFolder   string
	MaxUploadBytes     int64
	ImageDeleteTimeout time.Duration

	GoogleClientID string

	LogLevel string
}

// IsProduction reports whether GO_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads a .env file when one exists, then builds the Config from the
// process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults and checking required keys.
func FromEnv(getenv func(string) string) (*Config, error) {
	r := envReader{getenv: getenv}

	cfg := &Config{
		Env:                r.str("GO_ENV", "development"),
		Port:               r.str("PORT", "5001"),
		StoreDriver:        strings.ToLower(r.str("STORE_DRIVER", DriverMongo)),
		MongoURI:           r.str("MONGODB_URI", ""),
		MongoDatabase:      r.str("MONGODB_DATABASE", "civicsync"),
		SQLitePath:         r.str("SQLITE_PATH", "civicsync.db"),
		RedisAddress:       r.str("REDIS_ADDRESS", ""),
		RedisPassword:      r.str("REDIS_PASSWORD", ""),
		IssueLimitPrefix:   r.str("REDIS_QUEUE_FOR_ISSUE_LIMIT", "issue-limit"),
		IssueDailyLimit:    r.integer("ISSUE_DAILY_LIMIT", 20),
		JWTSecret:          r.str("JWT_SECRET", ""),
		TokenTTL:           r.duration("TOKEN_TTL", 72*time.Hour),
		CookieDomain:       r.str("DOMAIN", ""),
		CORSOrigins:        r.list("CORS_ORIGINS", []string{"http://localhost:5173"}),
		CloudinaryURL:      r.str("CLOUDINARY_URL", ""),
		CloudinaryFolder:   r.str("CLOUDINARY_FOLDER", "civicsync/issues"),
		MaxUploadBytes:     int64(r.integer("MAX_UPLOAD_BYTES", 5<<20)),
		ImageDeleteTimeout: r.duration("IMAGE_DELETE_TIMEOUT", 5*time.Second),
		GoogleClientID:     r.str("GOOGLE_CLIENT_ID", ""),
		LogLevel:           r.str("LOG_LEVEL", "info"),
	}
	if r.err != nil {
		return nil, r.err
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("please define the JWT_SECRET environment variable")
	}
	switch cfg.StoreDriver {
	case DriverMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("please define the MONGODB_URI environment variable")
		}
	case DriverSQLite:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.IssueDailyLimit < 1 {
		return nil, fmt.Errorf("ISSUE_DAILY_LIMIT must be positive")
	}

	return cfg, nil
}

// envReader keeps the first parse error so Load can report it once.
type envReader struct {
	getenv func(string) string
	err    error
}

func (r *envReader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *envReader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return n
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return d
}

func (r *envReader) list(key string, def []string) []string {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
