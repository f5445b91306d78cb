// Package billing provides Stripe billing integration and the plan-based
// permission provider that the entitlement checks consult.
package billing

import (
	"context"
	"fmt"

	"github.com/DukeRupert/certum/internal/domain"

	"github.com/stripe/stripe-go/v79"
	billingportalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/subscription"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Service defines the interface for billing operations.
type Service interface {
	// CreateCustomer creates a new Stripe customer for the given user.
	// The user id is stored in the customer metadata.
	CreateCustomer(ctx context.Context, userID, email, name string) (string, error)

	// CreateCheckoutSession creates a Stripe Checkout session for subscribing.
	// Returns the checkout URL to redirect the user to.
	CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error)

	// CreatePortalSession creates a Stripe Customer Portal session.
	// Returns the portal URL to redirect the user to.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)

	// GetSubscription retrieves a Stripe subscription by ID.
	GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)

	// CancelSubscription sets a subscription to cancel at period end.
	CancelSubscription(ctx context.Context, subscriptionID string) error

	// ReactivateSubscription removes the cancel_at_period_end flag.
	ReactivateSubscription(ctx context.Context, subscriptionID string) error

	// VerifyWebhookSignature verifies the Stripe webhook signature and returns the event.
	VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error)

	// TierForPriceID returns the subscription tier for a given Stripe price ID,
	// or an empty tier if the price is not configured.
	TierForPriceID(priceID string) domain.SubscriptionTier

	// PriceIDForPlan returns the price ID for a tier and billing interval.
	PriceIDForPlan(tier domain.SubscriptionTier, yearly bool) (string, bool)
}

// PriceConfig holds the Stripe price IDs for each plan.
type PriceConfig struct {
	StarterMonthlyPriceID      string
	StarterYearlyPriceID       string
	ProfessionalMonthlyPriceID string
	ProfessionalYearlyPriceID  string
}

// stripeService is the concrete implementation of Service.
type stripeService struct {
	webhookSecret string
	prices        PriceConfig
	priceToTier   map[string]domain.SubscriptionTier
}

// NewStripeService creates a new Stripe billing service.
//
// The secretKey is used to authenticate Stripe API calls.
// The webhookSecret is used to verify incoming webhook signatures.
// The prices configure which Stripe price IDs map to which tiers.
func NewStripeService(secretKey, webhookSecret string, prices PriceConfig) Service {
	stripe.Key = secretKey

	return &stripeService{
		webhookSecret: webhookSecret,
		prices:        prices,
		priceToTier:   prices.tiers(),
	}
}

func (p PriceConfig) tiers() map[string]domain.SubscriptionTier {
	priceToTier := make(map[string]domain.SubscriptionTier)
	if p.StarterMonthlyPriceID != "" {
		priceToTier[p.StarterMonthlyPriceID] = domain.SubscriptionTierStarter
	}
	if p.StarterYearlyPriceID != "" {
		priceToTier[p.StarterYearlyPriceID] = domain.SubscriptionTierStarter
	}
	if p.ProfessionalMonthlyPriceID != "" {
		priceToTier[p.ProfessionalMonthlyPriceID] = domain.SubscriptionTierProfessional
	}
	if p.ProfessionalYearlyPriceID != "" {
		priceToTier[p.ProfessionalYearlyPriceID] = domain.SubscriptionTierProfessional
	}
	return priceToTier
}

// PriceID returns the configured price for a tier and interval.
func (p PriceConfig) PriceID(tier domain.SubscriptionTier, yearly bool) (string, bool) {
	var id string
	switch tier {
	case domain.SubscriptionTierStarter:
		id = p.StarterMonthlyPriceID
		if yearly {
			id = p.StarterYearlyPriceID
		}
	case domain.SubscriptionTierProfessional:
		id = p.ProfessionalMonthlyPriceID
		if yearly {
			id = p.ProfessionalYearlyPriceID
		}
	}
	return id, id != ""
}

func (s *stripeService) CreateCustomer(ctx context.Context, userID, email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	params.AddMetadata("user_id", userID)
	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create customer: %w", err)
	}
	return c.ID, nil
}

func (s *stripeService) CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	params.Context = ctx
	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	sess, err := billingportalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create portal session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get subscription: %w", err)
	}
	return sub, nil
}

func (s *stripeService) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx
	_, err := subscription.Update(subscriptionID, params)
	if err != nil {
		return fmt.Errorf("stripe cancel subscription: %w", err)
	}
	return nil
}

func (s *stripeService) ReactivateSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(false),
	}
	params.Context = ctx
	_, err := subscription.Update(subscriptionID, params)
	if err != nil {
		return fmt.Errorf("stripe reactivate subscription: %w", err)
	}
	return nil
}

func (s *stripeService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("stripe webhook signature verification failed: %w", err)
	}
	return event, nil
}

func (s *stripeService) TierForPriceID(priceID string) domain.SubscriptionTier {
	return s.priceToTier[priceID]
}

func (s *stripeService) PriceIDForPlan(tier domain.SubscriptionTier, yearly bool) (string, bool) {
	return s.prices.PriceID(tier, yearly)
}

// StatusFromStripe maps a Stripe subscription status onto the local status.
// Statuses without a local equivalent read as inactive.
func StatusFromStripe(status stripe.SubscriptionStatus) domain.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive:
		return domain.SubscriptionStatusActive
	case stripe.SubscriptionStatusTrialing:
		return domain.SubscriptionStatusTrialing
	case stripe.SubscriptionStatusPastDue:
		return domain.SubscriptionStatusPastDue
	case stripe.SubscriptionStatusCanceled:
		return domain.SubscriptionStatusCanceled
	case stripe.SubscriptionStatusUnpaid:
		return domain.SubscriptionStatusUnpaid
	}
	return domain.SubscriptionStatusInactive
}
