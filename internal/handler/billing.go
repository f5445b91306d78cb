// This file implements subscription management backed by Stripe.
//
// Routes handled:
//   - GET  /api/billing             -> ShowBilling
//   - POST /api/billing/checkout    -> CreateCheckout
//   - POST /api/billing/portal      -> OpenPortal
//   - POST /api/billing/cancel      -> CancelSubscription
//   - POST /api/billing/reactivate  -> ReactivateSubscription
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/certum/internal/auth"
	"github.com/DukeRupert/certum/internal/billing"
	"github.com/DukeRupert/certum/internal/domain"
	"github.com/DukeRupert/certum/internal/service"
)

// BillingHandler handles billing and subscription management HTTP requests.
type BillingHandler struct {
	billing     billing.Service
	userService service.UserService
	baseURL     string
	logger      *slog.Logger
}

// NewBillingHandler creates a new BillingHandler.
// billingService may be nil when Stripe is not configured (development mode).
func NewBillingHandler(billingService billing.Service, userService service.UserService, baseURL string, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		billing:     billingService,
		userService: userService,
		baseURL:     baseURL,
		logger:      logger,
	}
}

// RegisterRoutes registers billing routes on the provided mux.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/billing", requireUser(http.HandlerFunc(h.ShowBilling)))
	mux.Handle("POST /api/billing/checkout", requireUser(http.HandlerFunc(h.CreateCheckout)))
	mux.Handle("POST /api/billing/portal", requireUser(http.HandlerFunc(h.OpenPortal)))
	mux.Handle("POST /api/billing/cancel", requireUser(http.HandlerFunc(h.CancelSubscription)))
	mux.Handle("POST /api/billing/reactivate", requireUser(http.HandlerFunc(h.ReactivateSubscription)))
}

type planView struct {
	Tier          string     `json:"tier"`
	Status        string     `json:"status"`
	EffectiveTier string     `json:"effective_tier"`
	PeriodEnd     *time.Time `json:"period_end,omitempty"`
	CancelAtEnd   bool       `json:"cancel_at_period_end"`
}

// ShowBilling returns the caller's plan, refreshed from Stripe when possible.
func (h *BillingHandler) ShowBilling(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	plan := planView{
		Tier:          string(user.SubscriptionTier),
		Status:        string(user.SubscriptionStatus),
		EffectiveTier: string(user.EffectiveTier()),
	}

	// Fetch live subscription details from Stripe if available
	if h.billing != nil && user.SubscriptionID != "" {
		sub, err := h.billing.GetSubscription(r.Context(), user.SubscriptionID)
		if err != nil {
			h.logger.Warn("failed to fetch stripe subscription", "error", err, "subscription_id", user.SubscriptionID)
		} else {
			end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
			plan.PeriodEnd = &end
			plan.CancelAtEnd = sub.CancelAtPeriodEnd
			plan.Status = string(billing.StatusFromStripe(sub.Status))
		}
	}

	writeJSON(w, http.StatusOK, plan)
}

type checkoutRequest struct {
	Tier   string `json:"tier"`
	Yearly bool   `json:"yearly"`
}

// CreateCheckout creates a Stripe Checkout session and returns its URL.
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	const op = "billing.checkout"

	if h.billing == nil {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.ENOTIMPL, op, "Billing is not configured"))
		return
	}

	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	priceID, ok := h.billing.PriceIDForPlan(domain.SubscriptionTier(req.Tier), req.Yearly)
	if !ok {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "unknown plan"))
		return
	}

	user, err := h.currentUser(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// Ensure user has a Stripe customer
	customerID := user.StripeCustomerID
	if customerID == "" {
		customerID, err = h.billing.CreateCustomer(r.Context(), user.ID, user.Email, user.Name)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.Upstream(err, op, "Failed to initialize billing"))
			return
		}
		if err := h.userService.SetStripeCustomer(r.Context(), user.ID, customerID); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
	}

	successURL := h.baseURL + "/app/upgrade?success=1&session_id={CHECKOUT_SESSION_ID}"
	cancelURL := h.baseURL + "/app/upgrade"

	checkoutURL, err := h.billing.CreateCheckoutSession(r.Context(), customerID, priceID, successURL, cancelURL)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Upstream(err, op, "Failed to create checkout session"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": checkoutURL})
}

// OpenPortal creates a Stripe Customer Portal session and returns its URL.
func (h *BillingHandler) OpenPortal(w http.ResponseWriter, r *http.Request) {
	const op = "billing.portal"

	if h.billing == nil {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.ENOTIMPL, op, "Billing is not configured"))
		return
	}

	user, err := h.currentUser(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if user.StripeCustomerID == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "No billing account found"))
		return
	}

	portalURL, err := h.billing.CreatePortalSession(r.Context(), user.StripeCustomerID, h.baseURL+"/app")
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Upstream(err, op, "Failed to open billing portal"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": portalURL})
}

// CancelSubscription sets the subscription to cancel at period end.
func (h *BillingHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	const op = "billing.cancel"

	user, err := h.subscribedUser(r, op, "No active subscription to cancel")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.billing.CancelSubscription(r.Context(), user.SubscriptionID); err != nil {
		ErrorResponse(w, r, h.logger, domain.Upstream(err, op, "Failed to cancel subscription. Please try again."))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"cancel_at_period_end": true})
}

// ReactivateSubscription removes the cancel-at-period-end flag.
func (h *BillingHandler) ReactivateSubscription(w http.ResponseWriter, r *http.Request) {
	const op = "billing.reactivate"

	user, err := h.subscribedUser(r, op, "No subscription to reactivate")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.billing.ReactivateSubscription(r.Context(), user.SubscriptionID); err != nil {
		ErrorResponse(w, r, h.logger, domain.Upstream(err, op, "Failed to reactivate subscription. Please try again."))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"cancel_at_period_end": false})
}

func (h *BillingHandler) currentUser(r *http.Request) (*domain.User, error) {
	return h.userService.GetByID(r.Context(), auth.UserIDFromRequest(r))
}

// subscribedUser loads the caller and requires a Stripe subscription.
func (h *BillingHandler) subscribedUser(r *http.Request, op, missing string) (*domain.User, error) {
	if h.billing == nil {
		return nil, domain.Errorf(domain.ENOTIMPL, op, "Billing is not configured")
	}
	user, err := h.currentUser(r)
	if err != nil {
		return nil, err
	}
	if user.SubscriptionID == "" {
		return nil, domain.Invalid(op, missing)
	}
	return user, nil
}
