package router

import (
	"testing"

	"careloop/app/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_Rules(t *testing.T) {
	tests := []struct {
		medical, payment float64
		want             domain.OfferVariant
		rule             int
	}{
		{80, 30, domain.OfferBridgePlusFlexibility, 1},
		{70, 40, domain.OfferBridgePlusFlexibility, 1},
		{49, 30, domain.OfferExtensionOnly, 2},
		{0, 0, domain.OfferExtensionOnly, 2},
		{70, 41, domain.OfferBridgeCritical, 3},
		{100, 100, domain.OfferBridgeCritical, 3},
		{50, 30, domain.OfferFlexiblePayment, 4},
		{49, 31, domain.OfferFlexiblePayment, 4},
		{69, 40, domain.OfferFlexiblePayment, 4},
		{69, 41, domain.OfferStandardRetryDeadline, 5},
		{10, 90, domain.OfferStandardRetryDeadline, 5},
	}

	for _, tt := range tests {
		got := Select(domain.RiskProfile{MedicalUrgencyScore: tt.medical, PaymentRiskScore: tt.payment}, domain.CustomerContext{})
		assert.Equal(t, tt.want, got.Variant, "medical=%v payment=%v", tt.medical, tt.payment)
		assert.Equal(t, tt.rule, got.Rule, "medical=%v payment=%v", tt.medical, tt.payment)
		assert.NotEmpty(t, got.Rationale)
	}
}

func TestSelect_Total(t *testing.T) {
	seen := map[domain.OfferVariant]bool{}

	for m := 0.0; m <= 100; m += 0.5 {
		for p := 0.0; p <= 100; p += 0.5 {
			sel := Select(domain.RiskProfile{MedicalUrgencyScore: m, PaymentRiskScore: p}, domain.CustomerContext{})
			require.True(t, sel.Variant.Valid())

			first := 0
			for i, r := range rules {
				if r.match(m, p) {
					first = i + 1
					break
				}
			}
			require.Equal(t, first, sel.Rule)
			seen[sel.Variant] = true
		}
	}

	for _, v := range domain.OfferVariants() {
		assert.True(t, seen[v], "variant %s never selected", v)
	}
}

func TestSelect_RationaleMentionsPet(t *testing.T) {
	sel := Select(domain.RiskProfile{MedicalUrgencyScore: 100, PaymentRiskScore: 29.6}, domain.CustomerContext{PetName: "Bella"})
	assert.Equal(t, domain.OfferBridgePlusFlexibility, sel.Variant)
	assert.Contains(t, sel.Rationale, "Bella")
}
