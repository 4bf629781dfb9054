package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Log       LogConfig
	Stripe    StripeConfig
	Printful  PrintfulConfig
	Email     EmailConfig
	RateLimit RateLimitConfig
	Catalog   CatalogConfig
	Admin     AdminConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
	// ProxyHeader names the header carrying the client IP behind a reverse proxy.
	ProxyHeader string `envconfig:"PROXY_HEADER" default:""`
}

// DBConfig holds database-related configuration.
// URL, when set, takes precedence over the individual fields.
// WARNING: Default password is for local development only.
type DBConfig struct {
	URL      string `envconfig:"DATABASE_URL"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name     string `envconfig:"DB_NAME" default:"storefront"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"` // Use "require" in production
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns int32  `envconfig:"DB_MIN_CONNS" default:"1"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// StripeConfig holds payment processor configuration.
type StripeConfig struct {
	SecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	WebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	Currency      string `envconfig:"STRIPE_CURRENCY" default:"usd"`
}

// PrintfulConfig holds print-on-demand vendor configuration.
type PrintfulConfig struct {
	APIKey  string `envconfig:"PRINTFUL_API_KEY"`
	StoreID string `envconfig:"PRINTFUL_STORE_ID"`
	BaseURL string `envconfig:"PRINTFUL_BASE_URL" default:"https://api.printful.com"`
}

// EmailConfig holds transactional email configuration.
type EmailConfig struct {
	APIKey       string `envconfig:"RESEND_API_KEY"`
	From         string `envconfig:"EMAIL_FROM" default:"Store <orders@example.com>"`
	SupportEmail string `envconfig:"SUPPORT_EMAIL" default:"support@example.com"`
	BaseURL      string `envconfig:"RESEND_BASE_URL" default:"https://api.resend.com"`
}

// RateLimitConfig holds rate limiting configuration.
// With RedisURL set, limits are shared by every instance.
type RateLimitConfig struct {
	RedisURL     string        `envconfig:"REDIS_URL"`
	PromoLimit   int           `envconfig:"PROMO_RATE_LIMIT" default:"5"`
	PromoWindow  time.Duration `envconfig:"PROMO_RATE_WINDOW" default:"1m"`
	ReturnLimit  int           `envconfig:"RETURN_RATE_LIMIT" default:"3"`
	ReturnWindow time.Duration `envconfig:"RETURN_RATE_WINDOW" default:"1h"`
}

// CatalogConfig holds product catalog cache configuration.
type CatalogConfig struct {
	FreshFor        time.Duration `envconfig:"CATALOG_FRESH_FOR" default:"24h"`
	RefreshInterval time.Duration `envconfig:"CATALOG_REFRESH_INTERVAL" default:"24h"`
	PageSize        int           `envconfig:"CATALOG_PAGE_SIZE" default:"50"`
	CustomMarker    string        `envconfig:"CATALOG_CUSTOM_MARKER" default:"Custom"`
}

// AdminConfig holds configuration of the administrative API.
// The admin routes are disabled when APIKey is empty.
type AdminConfig struct {
	APIKey string `envconfig:"ADMIN_API_KEY"`
}

// Load parses environment variables into the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.RateLimit.PromoLimit < 1 || c.RateLimit.ReturnLimit < 1 {
		return fmt.Errorf("rate limits must be at least 1")
	}
	if c.RateLimit.PromoWindow <= 0 || c.RateLimit.ReturnWindow <= 0 {
		return fmt.Errorf("rate limit windows must be positive")
	}
	if c.Catalog.PageSize < 1 {
		return fmt.Errorf("CATALOG_PAGE_SIZE must be at least 1")
	}
	if c.Catalog.FreshFor <= 0 || c.Catalog.RefreshInterval <= 0 {
		return fmt.Errorf("catalog durations must be positive")
	}
	return nil
}
