package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	svix "github.com/svix/svix-webhooks/go"
)

// Headers carried by svix-signed webhook deliveries.
const (
	SvixIDHeader        = "svix-id"
	SvixTimestampHeader = "svix-timestamp"
	SvixSignatureHeader = "svix-signature"
)

var (
	ErrMissingWebhookHeaders = errors.New("missing webhook signature headers")
	ErrInvalidWebhook        = errors.New("invalid webhook signature")
)

// WebhookVerifier checks svix signatures on identity-provider webhooks.
// Deliveries older or newer than five minutes are rejected.
type WebhookVerifier struct {
	wh *svix.Webhook
}

// NewWebhookVerifier creates a verifier from a "whsec_" prefixed secret.
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	if strings.TrimPrefix(secret, "whsec_") == "" {
		return nil, errors.New("webhook secret is empty")
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("decode webhook secret: %w", err)
	}
	return &WebhookVerifier{wh: wh}, nil
}

// Verify checks the signature headers against the raw payload.
func (v *WebhookVerifier) Verify(payload []byte, header http.Header) error {
	if header.Get(SvixIDHeader) == "" || header.Get(SvixTimestampHeader) == "" || header.Get(SvixSignatureHeader) == "" {
		return ErrMissingWebhookHeaders
	}
	if err := v.wh.Verify(payload, header); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	return nil
}

// Sign returns the "v1,<base64>" signature header value for a payload.
func (v *WebhookVerifier) Sign(msgID string, ts time.Time, payload []byte) (string, error) {
	return v.wh.Sign(msgID, ts, payload)
}
