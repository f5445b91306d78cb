package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DukeRupert/certum/internal"
	"github.com/DukeRupert/certum/internal/ai"
	"github.com/DukeRupert/certum/internal/ai/gemini"
	"github.com/DukeRupert/certum/internal/ai/hume"
	"github.com/DukeRupert/certum/internal/ai/mock"
	"github.com/DukeRupert/certum/internal/auth"
	"github.com/DukeRupert/certum/internal/billing"
	"github.com/DukeRupert/certum/internal/cache"
	"github.com/DukeRupert/certum/internal/domain"
	"github.com/DukeRupert/certum/internal/handler"
	"github.com/DukeRupert/certum/internal/metrics"
	"github.com/DukeRupert/certum/internal/middleware"
	"github.com/DukeRupert/certum/internal/ratelimit"
	"github.com/DukeRupert/certum/internal/repository"
	"github.com/DukeRupert/certum/internal/service"
	"github.com/DukeRupert/certum/internal/storage"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Shared Redis for the rate limiter and cache invalidation broadcast
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer rdb.Close()
	}

	// Initialize repository and cache
	repo := repository.New(db)
	cacheOpts := []cache.Option{cache.WithTTL(cfg.CacheTTL), cache.WithMaxEntries(cfg.CacheMaxEntries)}
	var bus *cache.RedisBus
	if rdb != nil {
		bus = cache.NewRedisBus(rdb, cache.DefaultChannel, logger)
		cacheOpts = append(cacheOpts, cache.WithPublisher(bus))
	}
	store := cache.New(cacheOpts...)
	if bus != nil {
		stopBus, err := bus.Listen(ctx, store)
		if err != nil {
			return fmt.Errorf("cache invalidation subscribe failed: %w", err)
		}
		defer stopBus()
		logger.Info("Cache invalidations shared over Redis", "channel", cache.DefaultChannel)
	} else {
		logger.Warn("REDIS_URL not set, cache invalidations stay in this process", "ttl", cfg.CacheTTL)
	}

	// ==========================================================================
	// Collaborators
	// ==========================================================================

	interviewLimiter, webhookLimiter, closeLimiters, err := newLimiters(cfg, rdb)
	if err != nil {
		return fmt.Errorf("rate limiter initialization failed: %w", err)
	}
	defer closeLimiters()
	logger.Info("Rate limiter ready", "provider", cfg.RateLimitProvider)

	archive, err := newStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	models, transcripts, err := newAI(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("ai initialization failed: %w", err)
	}
	logger.Info("AI provider ready", "provider", cfg.AIProvider)

	var billingService billing.Service
	if cfg.BillingEnabled() {
		billingService = billing.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, billing.PriceConfig{
			StarterMonthlyPriceID:      cfg.StripeStarterMonthlyPriceID,
			StarterYearlyPriceID:       cfg.StripeStarterYearlyPriceID,
			ProfessionalMonthlyPriceID: cfg.StripeProfessionalMonthlyPriceID,
			ProfessionalYearlyPriceID:  cfg.StripeProfessionalYearlyPriceID,
		})
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, billing endpoints are disabled")
	}

	var clerkVerifier handler.SignatureVerifier
	if cfg.ClerkWebhookSecret != "" {
		v, err := auth.NewWebhookVerifier(cfg.ClerkWebhookSecret)
		if err != nil {
			return fmt.Errorf("clerk webhook secret: %w", err)
		}
		clerkVerifier = v
	} else {
		logger.Warn("CLERK_WEBHOOK_SECRET not set, user sync webhooks will be rejected")
	}

	// ==========================================================================
	// Services
	// ==========================================================================

	demo := service.DemoConfig{
		Enabled: cfg.DemoMode,
		Limits: domain.DemoLimits{
			Interviews: cfg.DemoInterviewLimit,
			Questions:  cfg.DemoQuestionLimit,
			Resumes:    cfg.DemoResumeLimit,
		},
	}

	userService := service.NewUserService(repo, store, logger)
	usageService := service.NewUsageService(repo, store, demo, logger)
	entitlements := service.NewEntitlementService(billing.NewPlanPermissions(userService, demo.Enabled), repo, usageService, demo, logger)
	jobInfoService := service.NewJobInfoService(repo, store, logger)

	gate := service.Gate{Entitlements: entitlements, Usage: usageService, Demo: demo}
	interviewService := service.NewInterviewService(service.InterviewDeps{
		Queries:     repo,
		Cache:       store,
		Gate:        gate,
		Limiter:     interviewLimiter,
		JobInfos:    jobInfoService,
		Users:       userService,
		Transcripts: transcripts,
		Feedback:    models,
		Logger:      logger,
	})
	questionService := service.NewQuestionService(service.QuestionDeps{
		Queries:   repo,
		Cache:     store,
		Gate:      gate,
		JobInfos:  jobInfoService,
		Generator: models,
		Logger:    logger,
	})
	resumeService := service.NewResumeService(service.ResumeDeps{
		Gate:     gate,
		JobInfos: jobInfoService,
		Analyzer: models,
		Archive:  archive,
		Logger:   logger,
	})
	logger.Info("Services ready", "demo_mode", demo.Enabled)

	// ==========================================================================
	// Middleware
	// ==========================================================================

	isSecure := cfg.Env != "development"
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	identityMw := middleware.NewIdentityMiddleware(cfg.IdentityHeader, logger)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	webhookLimitMw := middleware.NewRateLimitMiddleware(webhookLimiter, "webhook", logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics
	if cfg.MetricsUsername == "" && cfg.MetricsPassword == "" {
		logger.Warn("METRICS_USERNAME and METRICS_PASSWORD not set, /metrics is unprotected")
	}
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Webhooks (public - signature verified, rate limited per IP)
	handler.NewClerkWebhookHandler(clerkVerifier, userService, logger).RegisterRoutes(mux, webhookLimitMw.Limit)
	handler.NewWebhookHandler(billingService, userService, logger).RegisterRoutes(mux, webhookLimitMw.Limit)

	// API routes (require a user id from the auth gateway)
	requireUser := identityMw.RequireUser
	handler.NewJobInfoHandler(jobInfoService, logger).RegisterRoutes(mux, requireUser)
	handler.NewInterviewHandler(interviewService, logger).RegisterRoutes(mux, requireUser)
	handler.NewQuestionHandler(questionService, logger).RegisterRoutes(mux, requireUser)
	handler.NewResumeHandler(resumeService, logger).RegisterRoutes(mux, requireUser)
	handler.NewUsageHandler(usageService, logger).RegisterRoutes(mux, requireUser)
	handler.NewBillingHandler(billingService, userService, cfg.BaseURL, logger).RegisterRoutes(mux, requireUser)

	// Outermost first: identity runs before logging so request logs carry
	// the user id.
	root := middleware.Stack(
		securityMw.Handler,
		metrics.Middleware(mux),
		identityMw.WithUser,
		loggingMw.Handler,
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
		// Resume analysis streams for as long as the model writes.
		WriteTimeout: cfg.AIRequestTimeout + 30*time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newLimiters builds the interview and webhook limiters on the configured
// backend. The returned func releases them.
func newLimiters(cfg *internal.Config, rdb *redis.Client) (ratelimit.Limiter, ratelimit.Limiter, func(), error) {
	interviewCfg := ratelimit.Config{
		Capacity: cfg.InterviewRateCapacity,
		Refill:   cfg.InterviewRateRefill,
		Interval: cfg.InterviewRateInterval,
		Prefix:   "interview",
	}
	webhookCfg := ratelimit.Config{
		Capacity: cfg.WebhookRateCapacity,
		Refill:   cfg.WebhookRateCapacity,
		Interval: cfg.WebhookRateInterval,
		Prefix:   "webhook",
	}

	if cfg.RateLimitProvider == "redis" {
		ri, err := ratelimit.NewRedisLimiter(rdb, interviewCfg)
		if err != nil {
			return nil, nil, nil, err
		}
		rw, err := ratelimit.NewRedisLimiter(rdb, webhookCfg)
		if err != nil {
			return nil, nil, nil, err
		}
		return ri, rw, func() {}, nil
	}

	mi, err := ratelimit.NewMemoryLimiter(interviewCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	mw, err := ratelimit.NewMemoryLimiter(webhookCfg)
	if err != nil {
		mi.Stop()
		return nil, nil, nil, err
	}
	return mi, mw, func() { mi.Stop(); mw.Stop() }, nil
}

func newStorage(cfg *internal.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.StorageProvider == storage.ProviderR2 {
		return storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
		}, logger)
	}
	return storage.NewLocalStorage(storage.LocalConfig{BasePath: cfg.LocalStoragePath}, logger)
}

func newAI(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (ai.Provider, ai.TranscriptSource, error) {
	if cfg.AIProvider == "mock" {
		m := mock.New(logger)
		return m, m, nil
	}

	providerCfg := ai.ProviderConfig{
		MaxRetries:     cfg.AIMaxRetries,
		RetryBaseDelay: cfg.AIRetryBaseDelay,
		RequestTimeout: cfg.AIRequestTimeout,
	}

	models, err := gemini.New(ctx, gemini.Config{
		APIKey:         cfg.GeminiAPIKey,
		Model:          cfg.GeminiModel,
		ProviderConfig: providerCfg,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	transcripts, err := hume.New(hume.Config{
		APIKey:         cfg.HumeAPIKey,
		ProviderConfig: providerCfg,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return models, transcripts, nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
