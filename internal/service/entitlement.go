// Package service contains the business logic layer.
//
// This file implements the entitlement evaluator: whether a user may create
// one more interview or question, or run one more resume analysis.
package service

import (
	"context"
	"log/slog"

	"github.com/DukeRupert/certum/internal/billing"
	"github.com/DukeRupert/certum/internal/domain"
	"github.com/DukeRupert/certum/internal/metrics"
	"github.com/DukeRupert/certum/internal/repository"
)

// Entitlement outcomes recorded in metrics.
const (
	outcomeUnlimited = "unlimited"
	outcomeMetered   = "metered"
	outcomeDemo      = "demo"
	outcomeDenied    = "denied"
)

// =============================================================================
// Interface Definition
// =============================================================================

// EntitlementService decides whether a user may perform one more gated
// action. It never returns an error: provider and database failures are
// logged and count as a non-grant.
type EntitlementService interface {
	CanCreateInterview(ctx context.Context, userID string) bool
	CanCreateQuestion(ctx context.Context, userID string) bool
	CanRunResumeAnalysis(ctx context.Context, userID string) bool
}

// UsageCounter counts a user's lifetime usage of metered resources.
type UsageCounter interface {
	CountCompletedInterviewsByUserID(ctx context.Context, userID string) (int64, error)
	CountQuestionsByUserID(ctx context.Context, userID string) (int64, error)
}

// DemoUsageReader reads the demo counters.
type DemoUsageReader interface {
	GetUsage(ctx context.Context, userID string) (domain.DemoUsage, error)
}

var _ UsageCounter = (repository.Querier)(nil)

// =============================================================================
// Implementation
// =============================================================================

type entitlementService struct {
	permissions billing.PermissionProvider
	counts      UsageCounter
	usage       DemoUsageReader
	demo        DemoConfig
	logger      *slog.Logger
}

// NewEntitlementService creates a new EntitlementService.
func NewEntitlementService(
	permissions billing.PermissionProvider,
	counts UsageCounter,
	usage DemoUsageReader,
	demo DemoConfig,
	logger *slog.Logger,
) EntitlementService {
	return &entitlementService{
		permissions: permissions,
		counts:      counts,
		usage:       usage,
		demo:        demo,
		logger:      logger,
	}
}

func (s *entitlementService) CanCreateInterview(ctx context.Context, userID string) bool {
	return s.evaluate(ctx, userID, domain.ResourceInterview)
}

func (s *entitlementService) CanCreateQuestion(ctx context.Context, userID string) bool {
	return s.evaluate(ctx, userID, domain.ResourceQuestion)
}

func (s *entitlementService) CanRunResumeAnalysis(ctx context.Context, userID string) bool {
	return s.evaluate(ctx, userID, domain.ResourceResume)
}

// evaluate grants r if the plan allows it, and otherwise falls back to the
// demo quota when demo mode is on.
func (s *entitlementService) evaluate(ctx context.Context, userID string, r domain.Resource) bool {
	if userID == "" {
		metrics.EntitlementDecided(r.String(), outcomeDenied)
		return false
	}

	perms := domain.PermissionsFor(r)
	checks := []check{s.hasPermission(userID, r, perms.Unlimited)}
	outcomes := []string{outcomeUnlimited}
	if perms.Metered != nil {
		checks = append(checks, s.withinMeteredGrant(userID, r, *perms.Metered))
		outcomes = append(outcomes, outcomeMetered)
	}

	if winner, ok := anySuccess(ctx, checks...); ok {
		metrics.EntitlementDecided(r.String(), outcomes[winner])
		return true
	}

	if !s.demo.Enabled {
		metrics.EntitlementDecided(r.String(), outcomeDenied)
		return false
	}

	usage, err := s.usage.GetUsage(ctx, userID)
	if err != nil {
		s.logger.Warn("demo usage lookup failed",
			"user_id", userID,
			"resource", r,
			"error", err,
		)
		metrics.EntitlementDecided(r.String(), outcomeDenied)
		return false
	}

	if usage.Allows(r, s.demo.Limits) {
		metrics.EntitlementDecided(r.String(), outcomeDemo)
		return true
	}
	metrics.EntitlementDecided(r.String(), outcomeDenied)
	return false
}

func (s *entitlementService) hasPermission(userID string, r domain.Resource, key domain.Permission) check {
	return func(ctx context.Context) (bool, error) {
		ok, err := s.permissions.HasPermission(ctx, userID, key)
		// A branch cancelled because another one already granted is not a
		// lookup failure.
		if err != nil && ctx.Err() == nil {
			metrics.PermissionLookupFailed(r.String())
			s.logger.Warn("permission lookup failed",
				"user_id", userID,
				"resource", r,
				"permission", key,
				"error", err,
			)
		}
		return ok, err
	}
}

// withinMeteredGrant checks the metered permission and the lifetime count
// concurrently; both must pass.
func (s *entitlementService) withinMeteredGrant(userID string, r domain.Resource, grant domain.MeteredGrant) check {
	hasGrant := s.hasPermission(userID, r, grant.Permission)

	return func(ctx context.Context) (bool, error) {
		type result struct {
			ok  bool
			err error
		}
		granted := make(chan result, 1)
		go func() {
			ok, err := hasGrant(ctx)
			granted <- result{ok, err}
		}()

		count, countErr := s.count(ctx, userID, r)
		g := <-granted

		if g.err != nil || !g.ok {
			return false, g.err
		}
		if countErr != nil {
			if ctx.Err() != nil {
				return false, countErr
			}
			s.logger.Warn("usage count failed",
				"user_id", userID,
				"resource", r,
				"error", countErr,
			)
			return false, countErr
		}
		return count < grant.Limit, nil
	}
}

func (s *entitlementService) count(ctx context.Context, userID string, r domain.Resource) (int64, error) {
	switch r {
	case domain.ResourceInterview:
		return s.counts.CountCompletedInterviewsByUserID(ctx, userID)
	case domain.ResourceQuestion:
		return s.counts.CountQuestionsByUserID(ctx, userID)
	}
	return 0, nil
}

// =============================================================================
// anySuccess
// =============================================================================

// check is one branch of an entitlement decision.
type check func(ctx context.Context) (bool, error)

// anySuccess runs checks concurrently and reports the index of the first
// one to return (true, nil). It returns false only once every check has
// returned false or an error. The remaining checks are cancelled as soon as
// one succeeds.
func anySuccess(ctx context.Context, checks ...check) (int, bool) {
	if len(checks) == 0 {
		return -1, false
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		index int
		ok    bool
	}
	// Buffered so losing branches never block after we return.
	results := make(chan result, len(checks))
	for i, c := range checks {
		go func() {
			ok, err := c(ctx)
			results <- result{index: i, ok: ok && err == nil}
		}()
	}

	for range checks {
		if r := <-results; r.ok {
			return r.index, true
		}
	}
	return -1, false
}
