package billing

import (
	"context"

	"github.com/DukeRupert/certum/internal/domain"
)

// PermissionProvider answers whether a user's billing plan grants a feature
// key such as "unlimited_interviews".
type PermissionProvider interface {
	HasPermission(ctx context.Context, userID string, key domain.Permission) (bool, error)
}

// UserReader loads the user whose plan is being checked.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// PlanPermissions derives permissions from the subscription tier stored on
// the user record, which the Stripe webhook keeps current. Users without an
// active subscription get the free tier's keys, except in demo mode where
// the free tier grants nothing and the demo counters cap usage instead.
type PlanPermissions struct {
	users    UserReader
	demoMode bool
}

// NewPlanPermissions creates a PlanPermissions reading users from users.
func NewPlanPermissions(users UserReader, demoMode bool) *PlanPermissions {
	return &PlanPermissions{users: users, demoMode: demoMode}
}

// HasPermission implements PermissionProvider. An unknown user has no
// permissions; other lookup failures are returned to the caller.
func (p *PlanPermissions) HasPermission(ctx context.Context, userID string, key domain.Permission) (bool, error) {
	const op = "billing.has_permission"

	if userID == "" {
		return false, nil
	}

	user, err := p.users.GetByID(ctx, userID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return false, nil
		}
		return false, domain.Upstream(err, op, "failed to load user plan")
	}

	tier := user.EffectiveTier()
	if p.demoMode && tier == domain.SubscriptionTierFree {
		return false, nil
	}
	return domain.TierGrants(tier, key), nil
}
