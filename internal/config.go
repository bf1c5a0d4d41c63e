package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	Port        int    `envconfig:"PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"debug"`
	DatabaseUrl string `envconfig:"DATABASE_URL" required:"true"`

	// Application base URL (served files, webhook endpoint)
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:8080"`

	// Frontend origin used for checkout redirects
	FrontendURL        string   `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	// Bearer tokens are issued by the identity service and signed with this
	// shared secret.
	JWTSecret string `envconfig:"JWT_SECRET"`

	// Admin access control
	AdminEmails []string `envconfig:"ADMIN_EMAILS"`

	// SMTP Configuration
	SMTPHost     string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"noreply@gigwell.app"`
	SMTPFromName string `envconfig:"SMTP_FROM_NAME" default:"Gigwell"`

	// Storage Configuration
	StorageProvider string `envconfig:"STORAGE_PROVIDER" default:"local"` // "local" or "r2"

	// Local Storage (development)
	LocalStoragePath string `envconfig:"LOCAL_STORAGE_PATH" default:"./storage"`
	LocalStorageURL  string `envconfig:"LOCAL_STORAGE_URL" default:"http://localhost:8080/files"`

	// R2 Storage (production)
	R2AccountID       string `envconfig:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `envconfig:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `envconfig:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `envconfig:"R2_BUCKET_NAME"`
	R2PublicURL       string `envconfig:"R2_PUBLIC_URL"` // Optional custom domain URL

	// Worker Configuration
	WorkerEnabled      bool          `envconfig:"WORKER_ENABLED" default:"true"`
	WorkerConcurrency  int           `envconfig:"WORKER_CONCURRENCY" default:"2"`
	WorkerPollInterval time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"5s"`
	WorkerJobTimeout   time.Duration `envconfig:"WORKER_JOB_TIMEOUT" default:"2m"`

	// Stripe Billing Configuration
	// Billing routes report an internal error and webhooks are acknowledged
	// without effect when the secret key is empty.
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	StripeCurrency      string `envconfig:"STRIPE_CURRENCY" default:"usd"`

	// Payment receipts
	InvoiceDownloadTimeout time.Duration `envconfig:"INVOICE_DOWNLOAD_TIMEOUT" default:"20s"`
	BillingDefaultLocation string        `envconfig:"BILLING_DEFAULT_LOCATION" default:"India"`

	// Rate limiting of authenticated API writes
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"60"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string `envconfig:"METRICS_USERNAME"`
	MetricsPassword string `envconfig:"METRICS_PASSWORD"`
}

// IsDevelopment reports whether the server runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// BillingEnabled reports whether Stripe is configured.
func (c *Config) BillingEnabled() bool {
	return c.StripeSecretKey != ""
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate normalizes list values and checks settings that depend on each other.
func (c *Config) validate() error {
	if strings.TrimSpace(c.DatabaseUrl) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	c.AdminEmails = normalizeList(c.AdminEmails, strings.ToLower)
	c.CORSAllowedOrigins = normalizeList(c.CORSAllowedOrigins, nil)
	c.StorageProvider = strings.ToLower(strings.TrimSpace(c.StorageProvider))

	switch c.StorageProvider {
	case "local":
	case "r2":
		missing := map[string]string{
			"R2_ACCOUNT_ID":        c.R2AccountID,
			"R2_ACCESS_KEY_ID":     c.R2AccessKeyID,
			"R2_SECRET_ACCESS_KEY": c.R2SecretAccessKey,
			"R2_BUCKET_NAME":       c.R2BucketName,
		}
		for _, key := range []string{"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "R2_BUCKET_NAME"} {
			if missing[key] == "" {
				return fmt.Errorf("%s is required when STORAGE_PROVIDER is 'r2'", key)
			}
		}
	default:
		return fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 'r2', got: %s", c.StorageProvider)
	}

	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET is required when ENV is %q", c.Env)
		}
		c.JWTSecret = "development-only-secret"
	}

	if c.StripeSecretKey != "" && c.StripeWebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required when STRIPE_SECRET_KEY is set")
	}

	if c.RateLimitRequests < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.RateLimitRequests)
	}
	return nil
}

// normalizeList trims entries, drops empty ones and applies an optional transform.
func normalizeList(values []string, transform func(string) string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if transform != nil {
			v = transform(v)
		}
		out = append(out, v)
	}
	return out
}
