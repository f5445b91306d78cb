// Command certumctl runs operator tasks against the certum database.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/DukeRupert/certum/internal"
	"github.com/DukeRupert/certum/internal/cache"
	"github.com/DukeRupert/certum/internal/domain"
	"github.com/DukeRupert/certum/internal/ratelimit"
	"github.com/DukeRupert/certum/internal/repository"
	"github.com/DukeRupert/certum/internal/service"
)

const app = "certumctl"

// Actual version can be specified in build command.
var version = "unknown"

// backend opens the resources a command needs. Each opener returns a close
// func the command must call.
type backend struct {
	openDB    func(ctx context.Context) (*sql.DB, error)
	openUsage func(ctx context.Context) (service.UsageService, func() error, error)
}

func newRootCmd(b backend) *cobra.Command {
	root := &cobra.Command{
		Use:           app,
		Short:         "certumctl manages certum usage counters and database migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newUsageCmd(b),
		newMigrateCmd(b),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)
			},
		},
	)
	return root
}

// envBackend reads the same environment as the server.
func envBackend() backend {
	openDB := func(ctx context.Context) (*sql.DB, error) {
		cfg, err := internal.NewConfig()
		if err != nil {
			return nil, fmt.Errorf("config initialization failed: %w", err)
		}
		db, err := sql.Open("pgx", cfg.DatabaseUrl)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("database ping failed: %w", err)
		}
		return db, nil
	}

	return backend{
		openDB: openDB,
		openUsage: func(ctx context.Context) (service.UsageService, func() error, error) {
			cfg, err := internal.NewConfig()
			if err != nil {
				return nil, nil, fmt.Errorf("config initialization failed: %w", err)
			}
			db, err := openDB(ctx)
			if err != nil {
				return nil, nil, err
			}
			logger := internal.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel)
			demo := service.DemoConfig{
				Enabled: cfg.DemoMode,
				Limits: domain.DemoLimits{
					Interviews: cfg.DemoInterviewLimit,
					Questions:  cfg.DemoQuestionLimit,
					Resumes:    cfg.DemoResumeLimit,
				},
			}

			// Resets must reach the running servers' caches.
			var opts []cache.Option
			closeFn := db.Close
			if cfg.RedisURL != "" {
				rdb, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
				if err != nil {
					db.Close()
					return nil, nil, fmt.Errorf("redis connection failed: %w", err)
				}
				opts = append(opts, cache.WithPublisher(cache.NewRedisBus(rdb, cache.DefaultChannel, logger)))
				closeFn = func() error {
					rdb.Close()
					return db.Close()
				}
			} else {
				logger.Warn("REDIS_URL not set, running servers keep cached usage until it expires", "ttl", cfg.CacheTTL)
			}

			usage := service.NewUsageService(repository.New(db), cache.New(opts...), demo, logger)
			return usage, closeFn, nil
		},
	}
}

func main() {
	if err := newRootCmd(envBackend()).ExecuteContext(context.Background()); err != nil {
		slog.Error(app+" failed", "error", err)
		os.Exit(1)
	}
}
