// Package service contains the business logic layer.
//
// This file implements the demo usage counters. Each counter records how
// many demo-gated creations a user has made; the entitlement evaluator
// compares them against the configured demo limits.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/DukeRupert/certum/internal/cache"
	"github.com/DukeRupert/certum/internal/domain"
	"github.com/DukeRupert/certum/internal/metrics"
	"github.com/DukeRupert/certum/internal/repository"
)

// DemoConfig controls the demo-mode fallback used when billing is
// simulated. It is passed to constructors, never read from globals.
type DemoConfig struct {
	Enabled bool
	Limits  domain.DemoLimits
}

// =============================================================================
// Interface Definition
// =============================================================================

// UsageService reads and updates a user's demo usage counters.
//
// Every mutation is a single atomic UPDATE and invalidates the user's cache
// tag before returning, so the next GetUsage sees the new value.
type UsageService interface {
	// GetUsage returns the user's counters. A missing user reads as zero.
	GetUsage(ctx context.Context, userID string) (domain.DemoUsage, error)

	// IncrementInterviews adds one to the interview counter.
	IncrementInterviews(ctx context.Context, userID string) error

	// IncrementQuestions adds one to the question counter.
	IncrementQuestions(ctx context.Context, userID string) error

	// IncrementResumes adds one to the resume counter.
	IncrementResumes(ctx context.Context, userID string) error

	// Increment adds one to the counter for r.
	Increment(ctx context.Context, userID string, r domain.Resource) error

	// ResetUsage sets all three counters to zero.
	ResetUsage(ctx context.Context, userID string) error

	// Summary returns used, limit and remaining per resource.
	Summary(ctx context.Context, userID string) (domain.UsageSummary, error)
}

// =============================================================================
// Implementation
// =============================================================================

type usageService struct {
	queries repository.Querier
	cache   *cache.Store
	demo    DemoConfig
	logger  *slog.Logger
}

// NewUsageService creates a new UsageService.
func NewUsageService(queries repository.Querier, store *cache.Store, demo DemoConfig, logger *slog.Logger) UsageService {
	return &usageService{
		queries: queries,
		cache:   store,
		demo:    demo,
		logger:  logger,
	}
}

// GetUsage returns the user's demo counters.
func (s *usageService) GetUsage(ctx context.Context, userID string) (domain.DemoUsage, error) {
	const op = "usage.get"

	if userID == "" {
		return domain.DemoUsage{}, nil
	}

	return cache.Remember(ctx, s.cache, "usage:"+userID, []string{cache.UserTag(userID)},
		func(ctx context.Context) (domain.DemoUsage, error) {
			row, err := s.queries.GetUserDemoUsage(ctx, userID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return domain.DemoUsage{}, nil
				}
				return domain.DemoUsage{}, domain.Internal(err, op, "failed to read demo usage")
			}
			return domain.DemoUsage{
				InterviewsUsed: int(row.DemoInterviewsUsed),
				QuestionsUsed:  int(row.DemoQuestionsUsed),
				ResumesUsed:    int(row.DemoResumesUsed),
			}, nil
		})
}

func (s *usageService) IncrementInterviews(ctx context.Context, userID string) error {
	return s.Increment(ctx, userID, domain.ResourceInterview)
}

func (s *usageService) IncrementQuestions(ctx context.Context, userID string) error {
	return s.Increment(ctx, userID, domain.ResourceQuestion)
}

func (s *usageService) IncrementResumes(ctx context.Context, userID string) error {
	return s.Increment(ctx, userID, domain.ResourceResume)
}

// Increment adds one to the counter for r. Returns domain.ENOTFOUND if the
// user row does not exist.
func (s *usageService) Increment(ctx context.Context, userID string, r domain.Resource) (err error) {
	const op = "usage.increment"

	defer func() { metrics.DemoIncremented(r.String(), err) }()

	var inc func(context.Context, string) (int64, error)
	switch r {
	case domain.ResourceInterview:
		inc = s.queries.IncrementDemoInterviews
	case domain.ResourceQuestion:
		inc = s.queries.IncrementDemoQuestions
	case domain.ResourceResume:
		inc = s.queries.IncrementDemoResumes
	default:
		return domain.Invalid(op, "unknown resource")
	}

	affected, err := inc(ctx, userID)
	// The row may have changed even if the driver reported an error.
	s.cache.Invalidate(cache.UserTag(userID))
	if err != nil {
		return domain.Internal(err, op, "failed to increment demo usage")
	}
	if affected == 0 {
		return domain.NotFound(op, "user", userID)
	}
	return nil
}

// ResetUsage sets every counter back to zero.
func (s *usageService) ResetUsage(ctx context.Context, userID string) error {
	const op = "usage.reset"

	affected, err := s.queries.ResetDemoUsage(ctx, userID)
	s.cache.Invalidate(cache.UserTag(userID))
	if err != nil {
		return domain.Internal(err, op, "failed to reset demo usage")
	}
	if affected == 0 {
		return domain.NotFound(op, "user", userID)
	}

	s.logger.Info("demo usage reset", "user_id", userID)
	return nil
}

// Summary returns the usage overview for the user.
func (s *usageService) Summary(ctx context.Context, userID string) (domain.UsageSummary, error) {
	usage, err := s.GetUsage(ctx, userID)
	if err != nil {
		return domain.UsageSummary{}, err
	}
	return domain.Summarize(usage, s.demo.Limits, s.demo.Enabled), nil
}
