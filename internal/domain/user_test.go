package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_EffectiveTier(t *testing.T) {
	tests := []struct {
		name   string
		status SubscriptionStatus
		tier   SubscriptionTier
		want   SubscriptionTier
	}{
		{"active starter", SubscriptionStatusActive, SubscriptionTierStarter, SubscriptionTierStarter},
		{"trialing professional", SubscriptionStatusTrialing, SubscriptionTierProfessional, SubscriptionTierProfessional},
		{"past due falls back", SubscriptionStatusPastDue, SubscriptionTierProfessional, SubscriptionTierFree},
		{"canceled falls back", SubscriptionStatusCanceled, SubscriptionTierStarter, SubscriptionTierFree},
		{"inactive without tier", SubscriptionStatusInactive, "", SubscriptionTierFree},
		{"active without tier", SubscriptionStatusActive, "", SubscriptionTierFree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{SubscriptionStatus: tt.status, SubscriptionTier: tt.tier}
			assert.Equal(t, tt.want, u.EffectiveTier())
		})
	}
}

func TestUpsertUserParams_Validate(t *testing.T) {
	assert.NoError(t, UpsertUserParams{ID: "user_1", Email: "a@example.com"}.Validate())

	err := UpsertUserParams{ID: "user_1"}.Validate()
	assert.Equal(t, EINVALID, ErrorCode(err))
	assert.Equal(t, "No primary email found", ErrorMessage(err))

	err = UpsertUserParams{Email: "a@example.com"}.Validate()
	assert.Equal(t, EINVALID, ErrorCode(err))
}

func TestUser_DisplayName(t *testing.T) {
	assert.Equal(t, "Ada", (&User{Name: "Ada", Email: "ada@example.com"}).DisplayName())
	assert.Equal(t, "ada@example.com", (&User{Email: "ada@example.com"}).DisplayName())
}
