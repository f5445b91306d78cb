// This file implements the Stripe webhook handler for processing billing events.
//
// Route:
//   - POST /webhooks/stripe -> HandleStripeWebhook
//
// This route is PUBLIC (no identity middleware) because Stripe calls it
// directly. Authentication is via the Stripe webhook signature verification.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v79"

	"github.com/DukeRupert/certum/internal/billing"
	"github.com/DukeRupert/certum/internal/domain"
	"github.com/DukeRupert/certum/internal/service"
)

// WebhookHandler handles incoming webhook events from Stripe.
type WebhookHandler struct {
	billing     billing.Service
	userService service.UserService
	logger      *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
// billingService may be nil when Stripe is not configured.
func NewWebhookHandler(billingService billing.Service, userService service.UserService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		billing:     billingService,
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers webhook routes on the provided mux.
// These routes are PUBLIC; limit wraps them with the per-IP rate limiter.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux, limit func(http.Handler) http.Handler) {
	mux.Handle("POST /webhooks/stripe", limit(http.HandlerFunc(h.HandleStripeWebhook)))
}

// HandleStripeWebhook processes incoming Stripe webhook events.
//
// Events for customers with no local user are acknowledged so Stripe stops
// retrying them. Other processing failures return 500 and are retried.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil {
		h.logger.Warn("stripe webhook received but billing is not configured")
		w.WriteHeader(http.StatusOK)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Verify signature
	signature := r.Header.Get("Stripe-Signature")
	event, err := h.billing.VerifyWebhookSignature(body, signature)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.logger.Info("stripe webhook received", "type", event.Type, "id", event.ID)

	ctx := r.Context()
	switch event.Type {
	case "checkout.session.completed":
		err = h.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.created", "customer.subscription.updated":
		err = h.handleSubscriptionChanged(ctx, event)
	case "customer.subscription.deleted":
		err = h.handleSubscriptionDeleted(ctx, event)
	case "invoice.payment_succeeded":
		err = h.handleInvoice(ctx, event, domain.SubscriptionStatusActive)
	case "invoice.payment_failed":
		err = h.handleInvoice(ctx, event, domain.SubscriptionStatusPastDue)
	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type)
	}

	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			h.logger.Warn("no user for stripe event", "type", event.Type, "id", event.ID, "error", err)
			w.WriteHeader(http.StatusOK)
			return
		}
		h.logger.Error("failed to process stripe event", "type", event.Type, "id", event.ID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleCheckoutCompleted loads the new subscription so the tier is known
// even if the subscription events arrive late.
func (h *WebhookHandler) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		h.logger.Error("failed to parse checkout session", "error", err)
		return nil
	}

	if session.Customer == nil || session.Subscription == nil {
		h.logger.Warn("checkout session missing customer or subscription", "session_id", session.ID)
		return nil
	}

	sub, err := h.billing.GetSubscription(ctx, session.Subscription.ID)
	if err != nil {
		return domain.Upstream(err, "webhook.checkout_completed", "failed to load subscription")
	}
	if sub.Customer == nil {
		sub.Customer = session.Customer
	}
	return h.applySubscription(ctx, sub)
}

func (h *WebhookHandler) handleSubscriptionChanged(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("failed to parse subscription event", "error", err, "type", event.Type)
		return nil
	}
	return h.applySubscription(ctx, &sub)
}

// applySubscription copies status and tier from a Stripe subscription.
func (h *WebhookHandler) applySubscription(ctx context.Context, sub *stripe.Subscription) error {
	if sub.Customer == nil {
		h.logger.Warn("subscription missing customer", "subscription_id", sub.ID)
		return nil
	}

	// Determine tier from price
	var tier domain.SubscriptionTier
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		tier = h.billing.TierForPriceID(sub.Items.Data[0].Price.ID)
	}

	return h.userService.UpdateSubscription(ctx, domain.SubscriptionUpdate{
		StripeCustomerID: sub.Customer.ID,
		SubscriptionID:   sub.ID,
		Status:           billing.StatusFromStripe(sub.Status),
		Tier:             tier,
	})
}

func (h *WebhookHandler) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("failed to parse subscription deleted event", "error", err)
		return nil
	}

	if sub.Customer == nil {
		h.logger.Warn("subscription deleted event missing customer", "subscription_id", sub.ID)
		return nil
	}

	return h.userService.UpdateSubscription(ctx, domain.SubscriptionUpdate{
		StripeCustomerID: sub.Customer.ID,
		Status:           domain.SubscriptionStatusCanceled,
	})
}

// handleInvoice moves the subscription to status after a payment attempt,
// keeping the current tier.
func (h *WebhookHandler) handleInvoice(ctx context.Context, event stripe.Event, status domain.SubscriptionStatus) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("failed to parse invoice event", "error", err, "type", event.Type)
		return nil
	}

	if invoice.Customer == nil {
		return nil
	}

	user, err := h.userService.GetByStripeCustomerID(ctx, invoice.Customer.ID)
	if err != nil {
		return err
	}
	// Nothing to recover and nothing to mark past due without a subscription.
	if user.SubscriptionID == "" || user.SubscriptionStatus == status {
		return nil
	}

	if status == domain.SubscriptionStatusPastDue {
		h.logger.Warn("payment failed", "user_id", user.ID, "customer_id", invoice.Customer.ID)
	}

	return h.userService.UpdateSubscription(ctx, domain.SubscriptionUpdate{
		StripeCustomerID: invoice.Customer.ID,
		SubscriptionID:   user.SubscriptionID,
		Status:           status,
		Tier:             user.SubscriptionTier,
	})
}
