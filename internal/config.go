package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// Application base URL (for billing return links)
	BaseURL string

	// Demo mode meters free usage with per-user counters instead of the
	// billing provider's metered grants.
	DemoMode           bool
	DemoInterviewLimit int
	DemoQuestionLimit  int
	DemoResumeLimit    int

	// Rate limiting
	RateLimitProvider     string // "memory" or "redis"
	RedisURL              string
	InterviewRateCapacity int
	InterviewRateRefill   int
	InterviewRateInterval time.Duration
	WebhookRateCapacity   int
	WebhookRateInterval   time.Duration

	// Read cache. With REDIS_URL set, invalidations are broadcast to every
	// process sharing the database.
	CacheTTL        time.Duration
	CacheMaxEntries int

	// Identity
	IdentityHeader     string // Header carrying the user id from the auth gateway
	ClerkWebhookSecret string // svix signing secret (whsec_...)

	// Storage Configuration
	StorageProvider string // "local" or "r2"

	// Local Storage (development)
	LocalStoragePath string // Base directory for local file storage

	// R2 Storage (production)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string

	// AI Provider Configuration
	AIProvider       string // "gemini" or "mock"
	GeminiAPIKey     string
	GeminiModel      string
	HumeAPIKey       string
	AIMaxRetries     int
	AIRetryBaseDelay time.Duration
	AIRequestTimeout time.Duration

	// Stripe Billing Configuration
	// In development, billing handlers report "not configured" if these are empty.
	StripeSecretKey     string // Stripe API secret key (sk_test_... or sk_live_...)
	StripeWebhookSecret string // Stripe webhook signing secret (whsec_...)

	// Stripe Price IDs for subscription plans
	StripeStarterMonthlyPriceID      string
	StripeStarterYearlyPriceID       string
	StripeProfessionalMonthlyPriceID string
	StripeProfessionalYearlyPriceID  string

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Base URL defaults to the local frontend for development
		BaseURL: getEnv("BASE_URL", "http://localhost:3000"),

		DemoMode:           getEnvBool("DEMO_MODE", false),
		DemoInterviewLimit: getEnvInt("DEMO_INTERVIEW_LIMIT", 2),
		DemoQuestionLimit:  getEnvInt("DEMO_QUESTION_LIMIT", 5),
		DemoResumeLimit:    getEnvInt("DEMO_RESUME_LIMIT", 1),

		// Rate limit defaults: 12 interviews, refilled by 4 a day
		RateLimitProvider:     getEnv("RATE_LIMIT_PROVIDER", "memory"),
		RedisURL:              getEnv("REDIS_URL", ""),
		InterviewRateCapacity: getEnvInt("INTERVIEW_RATE_CAPACITY", 12),
		InterviewRateRefill:   getEnvInt("INTERVIEW_RATE_REFILL", 4),
		InterviewRateInterval: getEnvDuration("INTERVIEW_RATE_INTERVAL", 24*time.Hour),
		WebhookRateCapacity:   getEnvInt("WEBHOOK_RATE_CAPACITY", 120),
		WebhookRateInterval:   getEnvDuration("WEBHOOK_RATE_INTERVAL", time.Minute),

		CacheTTL:        getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheMaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 10000),

		IdentityHeader:     getEnv("IDENTITY_HEADER", "X-User-Id"),
		ClerkWebhookSecret: getEnv("CLERK_WEBHOOK_SECRET", ""),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", "local"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),

		// R2 configuration (production only)
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),

		// AI provider defaults
		AIProvider:       getEnv("AI_PROVIDER", "mock"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		HumeAPIKey:       getEnv("HUME_API_KEY", ""),
		AIMaxRetries:     getEnvInt("AI_MAX_RETRIES", 3),
		AIRetryBaseDelay: getEnvDuration("AI_RETRY_BASE_DELAY", 1*time.Second),
		AIRequestTimeout: getEnvDuration("AI_REQUEST_TIMEOUT", 60*time.Second),

		// Stripe billing (optional)
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),

		// Stripe price IDs (optional, required when billing is enabled)
		StripeStarterMonthlyPriceID:      getEnv("STRIPE_STARTER_MONTHLY_PRICE_ID", ""),
		StripeStarterYearlyPriceID:       getEnv("STRIPE_STARTER_YEARLY_PRICE_ID", ""),
		StripeProfessionalMonthlyPriceID: getEnv("STRIPE_PROFESSIONAL_MONTHLY_PRICE_ID", ""),
		StripeProfessionalYearlyPriceID:  getEnv("STRIPE_PROFESSIONAL_YEARLY_PRICE_ID", ""),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BillingEnabled reports whether Stripe is configured.
func (c *Config) BillingEnabled() bool {
	return c.StripeSecretKey != ""
}

func (c *Config) validate() error {
	// Demo limits
	if c.DemoInterviewLimit < 0 || c.DemoQuestionLimit < 0 || c.DemoResumeLimit < 0 {
		return fmt.Errorf("DEMO_*_LIMIT values cannot be negative")
	}

	// Validate rate limit configuration
	switch c.RateLimitProvider {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when RATE_LIMIT_PROVIDER is 'redis'")
		}
	default:
		return fmt.Errorf("RATE_LIMIT_PROVIDER must be either 'memory' or 'redis', got: %s", c.RateLimitProvider)
	}
	if c.InterviewRateCapacity <= 0 || c.InterviewRateRefill <= 0 || c.InterviewRateInterval <= 0 {
		return fmt.Errorf("INTERVIEW_RATE_CAPACITY, INTERVIEW_RATE_REFILL and INTERVIEW_RATE_INTERVAL must be positive")
	}

	if c.CacheTTL <= 0 || c.CacheMaxEntries <= 0 {
		return fmt.Errorf("CACHE_TTL and CACHE_MAX_ENTRIES must be positive")
	}

	// Validate storage configuration
	if c.StorageProvider == "r2" {
		if c.R2AccountID == "" {
			return fmt.Errorf("R2_ACCOUNT_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if c.R2AccessKeyID == "" {
			return fmt.Errorf("R2_ACCESS_KEY_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if c.R2SecretAccessKey == "" {
			return fmt.Errorf("R2_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is 'r2'")
		}
		if c.R2BucketName == "" {
			return fmt.Errorf("R2_BUCKET_NAME is required when STORAGE_PROVIDER is 'r2'")
		}
	} else if c.StorageProvider != "local" {
		return fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 'r2', got: %s", c.StorageProvider)
	}

	// Validate AI provider configuration
	if c.AIProvider == "gemini" {
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER is 'gemini'")
		}
		if c.HumeAPIKey == "" {
			return fmt.Errorf("HUME_API_KEY is required when AI_PROVIDER is 'gemini'")
		}
	} else if c.AIProvider != "mock" {
		return fmt.Errorf("AI_PROVIDER must be either 'gemini' or 'mock', got: %s", c.AIProvider)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
