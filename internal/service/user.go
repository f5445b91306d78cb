// Package service contains the business logic layer.
//
// Services orchestrate interactions between repositories, external APIs,
// and domain logic. They are responsible for:
// - Input validation
// - Ownership and entitlement checks
// - Cache tagging and invalidation
// - Error translation (database errors -> domain errors)
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/DukeRupert/certum/internal/cache"
	"github.com/DukeRupert/certum/internal/domain"
	"github.com/DukeRupert/certum/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// UserService manages the local mirror of identity-provider accounts and the
// billing fields stored on them.
type UserService interface {
	// Upsert creates or refreshes a user from an identity sync event.
	// Returns domain.EINVALID if the event has no primary email.
	Upsert(ctx context.Context, params domain.UpsertUserParams) (*domain.User, error)

	// Delete removes a user and, by cascade, everything they own.
	// Deleting a missing user is not an error.
	Delete(ctx context.Context, id string) error

	// GetByID retrieves a user. The result is cached under the user's tag.
	// Returns domain.ENOTFOUND if the user does not exist.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByStripeCustomerID finds the user linked to a Stripe customer.
	GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.User, error)

	// SetStripeCustomer links a Stripe customer to a user.
	SetStripeCustomer(ctx context.Context, userID, customerID string) error

	// UpdateSubscription applies a subscription change to the user owning
	// the Stripe customer. Returns domain.ENOTFOUND if no user matches.
	UpdateSubscription(ctx context.Context, update domain.SubscriptionUpdate) error
}

// =============================================================================
// Implementation
// =============================================================================

type userService struct {
	queries repository.Querier
	cache   *cache.Store
	logger  *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(queries repository.Querier, store *cache.Store, logger *slog.Logger) UserService {
	return &userService{
		queries: queries,
		cache:   store,
		logger:  logger,
	}
}

// Upsert creates or refreshes a user.
func (s *userService) Upsert(ctx context.Context, params domain.UpsertUserParams) (*domain.User, error) {
	const op = "user.upsert"

	if err := params.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	if params.CreatedAt.IsZero() {
		params.CreatedAt = now
	}
	if params.UpdatedAt.IsZero() {
		params.UpdatedAt = now
	}

	row, err := s.queries.UpsertUser(ctx, repository.UpsertUserParams{
		ID:        params.ID,
		Name:      strings.TrimSpace(params.Name),
		Email:     strings.ToLower(strings.TrimSpace(params.Email)),
		ImageUrl:  params.ImageURL,
		CreatedAt: params.CreatedAt,
		UpdatedAt: params.UpdatedAt,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Conflict(op, "email is already used by another account")
		}
		return nil, domain.Internal(err, op, "failed to save user")
	}

	s.cache.Invalidate(cache.UserTag(params.ID))
	s.logger.Info("user synced", "user_id", params.ID)

	return repoUserToDomain(row), nil
}

// Delete removes a user.
func (s *userService) Delete(ctx context.Context, id string) error {
	const op = "user.delete"

	if id == "" {
		return domain.Invalid(op, "user id is required")
	}
	// The delete cascades to job infos, so their tags go too. Interview and
	// question reads carry their job info's tag.
	jobInfos, err := s.queries.ListJobInfosByUserID(ctx, id)
	if err != nil {
		return domain.Internal(err, op, "failed to list job infos")
	}
	if err := s.queries.DeleteUser(ctx, id); err != nil {
		return domain.Internal(err, op, "failed to delete user")
	}

	tags := []string{cache.UserTag(id), cache.UserJobInfosTag(id)}
	for _, j := range jobInfos {
		tags = append(tags,
			cache.JobInfoTag(j.ID),
			cache.JobInfoInterviewsTag(j.ID),
			cache.JobInfoQuestionsTag(j.ID),
		)
	}
	s.cache.Invalidate(tags...)
	s.logger.Info("user deleted", "user_id", id)
	return nil
}

// GetByID retrieves a user by ID.
func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const op = "user.get_by_id"

	return cache.Remember(ctx, s.cache, "user:"+id, []string{cache.UserTag(id)},
		func(ctx context.Context) (*domain.User, error) {
			row, err := s.queries.GetUserByID(ctx, id)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, domain.NotFound(op, "user", id)
				}
				return nil, domain.Internal(err, op, "failed to get user")
			}
			return repoUserToDomain(row), nil
		})
}

// GetByStripeCustomerID finds a user by Stripe customer.
func (s *userService) GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.User, error) {
	const op = "user.get_by_stripe_customer"

	row, err := s.queries.GetUserByStripeCustomerID(ctx, domain.ToNullString(customerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", customerID)
		}
		return nil, domain.Internal(err, op, "failed to get user")
	}
	return repoUserToDomain(row), nil
}

// SetStripeCustomer links a Stripe customer to a user.
func (s *userService) SetStripeCustomer(ctx context.Context, userID, customerID string) error {
	const op = "user.set_stripe_customer"

	err := s.queries.UpdateUserStripeCustomer(ctx, repository.UpdateUserStripeCustomerParams{
		ID:               userID,
		StripeCustomerID: domain.ToNullString(customerID),
	})
	if err != nil {
		return domain.Internal(err, op, "failed to save stripe customer")
	}

	s.cache.Invalidate(cache.UserTag(userID))
	return nil
}

// UpdateSubscription applies a subscription change.
func (s *userService) UpdateSubscription(ctx context.Context, update domain.SubscriptionUpdate) error {
	const op = "user.update_subscription"

	if update.StripeCustomerID == "" {
		return domain.Invalid(op, "stripe customer id is required")
	}

	user, err := s.GetByStripeCustomerID(ctx, update.StripeCustomerID)
	if err != nil {
		return err
	}

	status := update.Status
	if status == "" {
		status = domain.SubscriptionStatusInactive
	}

	affected, err := s.queries.UpdateUserSubscription(ctx, repository.UpdateUserSubscriptionParams{
		StripeCustomerID:   domain.ToNullString(update.StripeCustomerID),
		SubscriptionStatus: string(status),
		SubscriptionTier:   domain.ToNullString(string(update.Tier)),
		SubscriptionID:     domain.ToNullString(update.SubscriptionID),
	})
	if err != nil {
		return domain.Internal(err, op, "failed to update subscription")
	}
	if affected == 0 {
		return domain.NotFound(op, "user", update.StripeCustomerID)
	}

	s.cache.Invalidate(cache.UserTag(user.ID))
	s.logger.Info("subscription updated",
		"user_id", user.ID,
		"status", status,
		"tier", update.Tier,
	)
	return nil
}

// =============================================================================
// Helper Functions
// =============================================================================

func repoUserToDomain(u repository.User) *domain.User {
	return &domain.User{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		ImageURL:           u.ImageUrl,
		DemoInterviewsUsed: int(u.DemoInterviewsUsed),
		DemoQuestionsUsed:  int(u.DemoQuestionsUsed),
		DemoResumesUsed:    int(u.DemoResumesUsed),
		StripeCustomerID:   domain.NullStringValue(u.StripeCustomerID),
		SubscriptionStatus: domain.SubscriptionStatus(u.SubscriptionStatus),
		SubscriptionTier:   domain.SubscriptionTier(domain.NullStringValue(u.SubscriptionTier)),
		SubscriptionID:     domain.NullStringValue(u.SubscriptionID),
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}
