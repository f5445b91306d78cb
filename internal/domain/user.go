// Package domain contains core business types and interfaces.
//
// This file defines the User domain type. Users are owned by the external
// identity provider; this service only mirrors identity fields and keeps the
// demo-usage counters and subscription state alongside them.
package domain

import (
	"database/sql"
	"strings"
	"time"
)

// SubscriptionStatus represents the possible states of a user's subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid   SubscriptionStatus = "unpaid"
)

// SubscriptionTier represents the pricing tier of a subscription.
type SubscriptionTier string

const (
	SubscriptionTierFree         SubscriptionTier = "free"
	SubscriptionTierStarter      SubscriptionTier = "starter"
	SubscriptionTierProfessional SubscriptionTier = "professional"
)

// User is the local mirror of an identity-provider account.
//
// ID is the provider's opaque identifier and is used verbatim as the primary
// key. The demo counters are only ever changed by the usage store.
type User struct {
	ID                 string
	Name               string
	Email              string
	ImageURL           string
	DemoInterviewsUsed int
	DemoQuestionsUsed  int
	DemoResumesUsed    int
	StripeCustomerID   string
	SubscriptionStatus SubscriptionStatus
	SubscriptionTier   SubscriptionTier
	SubscriptionID     string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsActive returns true if the user has an active subscription or is trialing.
func (u *User) IsActive() bool {
	return u.SubscriptionStatus == SubscriptionStatusActive ||
		u.SubscriptionStatus == SubscriptionStatusTrialing
}

// EffectiveTier is the tier whose permissions apply right now. Lapsed or
// missing subscriptions fall back to the free tier.
func (u *User) EffectiveTier() SubscriptionTier {
	if !u.IsActive() || u.SubscriptionTier == "" {
		return SubscriptionTierFree
	}
	return u.SubscriptionTier
}

// DemoUsage returns the user's demo counters.
func (u *User) DemoUsage() DemoUsage {
	return DemoUsage{
		InterviewsUsed: u.DemoInterviewsUsed,
		QuestionsUsed:  u.DemoQuestionsUsed,
		ResumesUsed:    u.DemoResumesUsed,
	}
}

// DisplayName returns the user's name or email if name is empty.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// UpsertUserParams carries identity fields from a provider sync event.
type UpsertUserParams struct {
	ID        string
	Name      string
	Email     string
	ImageURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the fields the users table requires.
func (p UpsertUserParams) Validate() error {
	const op = "user.validate"

	if strings.TrimSpace(p.ID) == "" {
		return Invalid(op, "user id is required")
	}
	if strings.TrimSpace(p.Email) == "" {
		return Invalid(op, "No primary email found")
	}
	return nil
}

// SubscriptionUpdate carries the billing fields changed by a Stripe event.
type SubscriptionUpdate struct {
	StripeCustomerID string
	SubscriptionID   string
	Status           SubscriptionStatus
	Tier             SubscriptionTier
}

// =============================================================================
// Conversion helpers from repository types
// =============================================================================

// NullStringValue safely extracts a string from sql.NullString.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// ToNullString converts a string to sql.NullString.
func ToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
