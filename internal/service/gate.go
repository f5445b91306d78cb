package service

import (
	"context"
	"log/slog"

	"github.com/DukeRupert/certum/internal/domain"
)

// Messages shown to users when an action is refused.
const (
	PlanLimitMessage    = "You have reached your plan limit. Upgrade to continue."
	NotLoggedInMessage  = "You are not logged in"
	NotCompletedMessage = "Interview has not been completed yet."
)

// Gate bundles what the action orchestrators need to authorize and meter a
// gated action.
type Gate struct {
	Entitlements EntitlementService
	Usage        UsageService
	Demo         DemoConfig
}

// allowed checks the entitlement for r.
func (g Gate) allowed(ctx context.Context, userID string, r domain.Resource) bool {
	switch r {
	case domain.ResourceInterview:
		return g.Entitlements.CanCreateInterview(ctx, userID)
	case domain.ResourceQuestion:
		return g.Entitlements.CanCreateQuestion(ctx, userID)
	case domain.ResourceResume:
		return g.Entitlements.CanRunResumeAnalysis(ctx, userID)
	}
	return false
}

// recordDemoUse increments the demo counter for r after a successful
// creation. A failure leaves the created entity in place and is logged;
// the user then gets one extra demo use.
func (g Gate) recordDemoUse(ctx context.Context, logger *slog.Logger, userID string, r domain.Resource) {
	if !g.Demo.Enabled {
		return
	}
	// The entity already exists, so count it even if the client went away.
	if err := g.Usage.Increment(context.WithoutCancel(ctx), userID, r); err != nil {
		logger.Error("demo usage increment failed",
			"user_id", userID,
			"resource", r,
			"error", err,
		)
	}
}
