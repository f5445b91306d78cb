package billing

import (
	"testing"

	"github.com/DukeRupert/certum/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v79"
)

func testPrices() PriceConfig {
	return PriceConfig{
		StarterMonthlyPriceID:      "price_starter_m",
		StarterYearlyPriceID:       "price_starter_y",
		ProfessionalMonthlyPriceID: "price_pro_m",
		ProfessionalYearlyPriceID:  "price_pro_y",
	}
}

func TestTierForPriceID(t *testing.T) {
	svc := NewStripeService("sk_test_x", "whsec_x", testPrices())

	assert.Equal(t, domain.SubscriptionTierStarter, svc.TierForPriceID("price_starter_m"))
	assert.Equal(t, domain.SubscriptionTierStarter, svc.TierForPriceID("price_starter_y"))
	assert.Equal(t, domain.SubscriptionTierProfessional, svc.TierForPriceID("price_pro_m"))
	assert.Equal(t, domain.SubscriptionTierProfessional, svc.TierForPriceID("price_pro_y"))
	assert.Equal(t, domain.SubscriptionTier(""), svc.TierForPriceID("price_unknown"))
}

func TestPriceConfig_PriceID(t *testing.T) {
	prices := testPrices()

	id, ok := prices.PriceID(domain.SubscriptionTierProfessional, true)
	assert.True(t, ok)
	assert.Equal(t, "price_pro_y", id)

	id, ok = prices.PriceID(domain.SubscriptionTierStarter, false)
	assert.True(t, ok)
	assert.Equal(t, "price_starter_m", id)

	_, ok = prices.PriceID(domain.SubscriptionTierFree, false)
	assert.False(t, ok)

	_, ok = PriceConfig{}.PriceID(domain.SubscriptionTierStarter, false)
	assert.False(t, ok, "unconfigured prices are not offered")
}

func TestStatusFromStripe(t *testing.T) {
	assert.Equal(t, domain.SubscriptionStatusActive, StatusFromStripe(stripe.SubscriptionStatusActive))
	assert.Equal(t, domain.SubscriptionStatusTrialing, StatusFromStripe(stripe.SubscriptionStatusTrialing))
	assert.Equal(t, domain.SubscriptionStatusPastDue, StatusFromStripe(stripe.SubscriptionStatusPastDue))
	assert.Equal(t, domain.SubscriptionStatusCanceled, StatusFromStripe(stripe.SubscriptionStatusCanceled))
	assert.Equal(t, domain.SubscriptionStatusInactive, StatusFromStripe(stripe.SubscriptionStatusIncompleteExpired))
}
