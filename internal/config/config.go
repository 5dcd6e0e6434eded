// Package config provides centralized configuration management for the catalog service.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Blob drivers.
const (
	BlobDriverLocal = "local"
	BlobDriverGCS   = "gcs"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Import   ImportConfig
	Bulk     BulkConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Blob     BlobConfig
	Catalog  CatalogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including the wait for
	// running imports (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	// Driver is postgres or memory (default: postgres)
	Driver string `env:"STORE_DRIVER" default:"postgres"`

	// URL is the PostgreSQL connection string, required for the postgres driver.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// Watch enables the LISTEN/NOTIFY change feed (default: true)
	Watch bool `env:"STORE_WATCH" default:"true"`
}

// ImportConfig holds file import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 20MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"20971520"`

	// MaxRows caps data rows per file (default: 10000)
	MaxRows int `env:"IMPORT_MAX_ROWS" default:"10000"`

	// MaxConcurrent is the maximum number of parallel imports (default: 2)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"2"`

	// MaxWaitTime is how long to wait for an import slot (default: 30s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`

	// Workers bounds parallel creates within one import (default: 8)
	Workers int `env:"IMPORT_WORKERS" default:"8"`

	// Timeout is the maximum duration for a single import (default: 10m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"10m"`

	// RequireName rejects rows without a name instead of synthesizing one
	RequireName bool `env:"IMPORT_REQUIRE_NAME" default:"false"`
}

// BulkConfig holds bulk operation settings.
type BulkConfig struct {
	// Concurrency bounds parallel store calls per bulk operation (default: 8)
	Concurrency int `env:"BULK_CONCURRENCY" default:"8"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// ImportLimit is requests per minute for import endpoints (default: 10)
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAuth enforces bearer tokens on the API (default: true)
	RequireAuth bool `env:"REQUIRE_AUTH" default:"true"`

	// JWTSecret signs and verifies HS256 session tokens
	JWTSecret string `env:"JWT_SECRET"`

	// JWTIssuer is the expected iss claim (default: catalog)
	JWTIssuer string `env:"JWT_ISSUER" default:"catalog"`

	// TokenTTL is the lifetime of issued tokens (default: 12h)
	TokenTTL time.Duration `env:"JWT_TOKEN_TTL" default:"12h"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// BlobConfig selects where product thumbnails are stored.
type BlobConfig struct {
	// Driver is local or gcs (default: local)
	Driver string `env:"BLOB_DRIVER" default:"local"`

	// Dir is the local driver's root directory (default: ./data/media)
	Dir string `env:"BLOB_DIR" default:"./data/media"`

	// BaseURL prefixes object paths in returned URLs. For the local driver
	// it should point at the /media route (default: http://localhost:8080/media)
	BaseURL string `env:"BLOB_BASE_URL" default:"http://localhost:8080/media"`

	// Bucket is the GCS bucket, required for the gcs driver
	Bucket string `env:"BLOB_BUCKET"`

	// PublicURL prefixes GCS object URLs (default: the bucket's
	// storage.googleapis.com address)
	PublicURL string `env:"BLOB_PUBLIC_URL"`

	// CredentialsFile is a service account key; empty uses application
	// default credentials
	CredentialsFile string `env:"BLOB_CREDENTIALS_FILE"`

	// MaxThumbnailSize is the thumbnail upload limit in bytes (default: 5MB)
	MaxThumbnailSize int64 `env:"BLOB_MAX_THUMBNAIL_SIZE" default:"5242880"`
}

// CatalogConfig holds catalog domain settings.
type CatalogConfig struct {
	// Languages are the name languages, primary first (default: EN,RU,UZ)
	Languages []string `env:"CATALOG_LANGUAGES" default:"EN,RU,UZ"`

	// DefaultLowStockThreshold applies to imported rows without one (default: 5)
	DefaultLowStockThreshold int `env:"CATALOG_DEFAULT_LOW_STOCK_THRESHOLD" default:"5"`

	// ReconcileInterval is how often the full catalog is reloaded (default: 5m)
	ReconcileInterval time.Duration `env:"CATALOG_RECONCILE_INTERVAL" default:"5m"`

	// PageSize is the default page size of product lists (default: 25)
	PageSize int `env:"CATALOG_PAGE_SIZE" default:"25"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
