// This file implements the identity-provider webhook that keeps the local
// user table in sync.
//
// Route:
//   - POST /webhooks/clerk -> HandleClerkWebhook
//
// This route is PUBLIC (no identity middleware). Authentication is via the
// svix signature headers.
package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DukeRupert/certum/internal/auth"
	"github.com/DukeRupert/certum/internal/domain"
	"github.com/DukeRupert/certum/internal/service"
)

// maxWebhookBody bounds webhook payloads.
const maxWebhookBody = 1 << 16

// SignatureVerifier checks a signed webhook delivery.
type SignatureVerifier interface {
	Verify(payload []byte, header http.Header) error
}

var _ SignatureVerifier = (*auth.WebhookVerifier)(nil)

// ClerkWebhookHandler applies user lifecycle events.
type ClerkWebhookHandler struct {
	verifier SignatureVerifier
	users    service.UserService
	logger   *slog.Logger
}

// NewClerkWebhookHandler creates a new ClerkWebhookHandler. verifier may be
// nil when no signing secret is configured; deliveries are then rejected.
func NewClerkWebhookHandler(verifier SignatureVerifier, users service.UserService, logger *slog.Logger) *ClerkWebhookHandler {
	return &ClerkWebhookHandler{
		verifier: verifier,
		users:    users,
		logger:   logger,
	}
}

// RegisterRoutes registers the webhook route. limit wraps it with the
// per-IP rate limiter.
func (h *ClerkWebhookHandler) RegisterRoutes(mux *http.ServeMux, limit func(http.Handler) http.Handler) {
	mux.Handle("POST /webhooks/clerk", limit(http.HandlerFunc(h.HandleClerkWebhook)))
}

type clerkEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type clerkUser struct {
	ID                    string `json:"id"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	ImageURL              string `json:"image_url"`
	PrimaryEmailAddressID string `json:"primary_email_address_id"`
	EmailAddresses        []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	// Unix milliseconds.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

func (u clerkUser) primaryEmail() string {
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	return ""
}

func (u clerkUser) params() domain.UpsertUserParams {
	return domain.UpsertUserParams{
		ID:        u.ID,
		Name:      strings.TrimSpace(u.FirstName + " " + u.LastName),
		Email:     u.primaryEmail(),
		ImageURL:  u.ImageURL,
		CreatedAt: time.UnixMilli(u.CreatedAt),
		UpdatedAt: time.UnixMilli(u.UpdatedAt),
	}
}

// HandleClerkWebhook verifies and applies a user event.
func (h *ClerkWebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	const op = "clerk.webhook"

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Invalid webhook"))
		return
	}

	if h.verifier == nil {
		h.logger.Warn("clerk webhook received but no signing secret is configured")
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Invalid webhook"))
		return
	}
	if err := h.verifier.Verify(body, r.Header); err != nil {
		h.logger.Warn("clerk webhook signature verification failed", "error", err)
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Invalid webhook"))
		return
	}

	var event clerkEvent
	if err := json.Unmarshal(body, &event); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Invalid webhook"))
		return
	}

	h.logger.Info("clerk webhook received", "type", event.Type, "id", r.Header.Get(auth.SvixIDHeader))

	switch event.Type {
	case "user.created", "user.updated":
		var u clerkUser
		if err := json.Unmarshal(event.Data, &u); err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid(op, "Invalid webhook"))
			return
		}
		if _, err := h.users.Upsert(r.Context(), u.params()); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}

	case "user.deleted":
		var u struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(event.Data, &u); err != nil || u.ID == "" {
			ErrorResponse(w, r, h.logger, domain.Invalid(op, "No user ID found"))
			return
		}
		if err := h.users.Delete(r.Context(), u.ID); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}

	default:
		h.logger.Debug("unhandled clerk event type", "type", event.Type)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
