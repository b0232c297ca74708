// Package router picks the negotiation offer for a customer.
package router

import (
	"fmt"

	"careloop/app/domain"
)

type rule struct {
	match     func(medical, payment float64) bool
	variant   domain.OfferVariant
	rationale func(medical, payment float64, c domain.CustomerContext) string
}

// rules are evaluated top-down and the first match wins. The predicate
// ranges overlap, so the order is part of the contract.
var rules = []rule{
	{
		match:   func(m, p float64) bool { return m >= 70 && p <= 40 },
		variant: domain.OfferBridgePlusFlexibility,
		rationale: func(m, p float64, c domain.CustomerContext) string {
			return fmt.Sprintf("Critical care need (urgency %.0f) for %s and a reliable payer (risk %.0f): offer the Bridge Plan with payment flexibility.",
				m, petName(c), p)
		},
	},
	{
		match:   func(m, p float64) bool { return m < 50 && p <= 30 },
		variant: domain.OfferExtensionOnly,
		rationale: func(m, p float64, _ domain.CustomerContext) string {
			return fmt.Sprintf("Low medical urgency (%.0f) and low payment risk (%.0f): a payment extension on the current plan is enough.", m, p)
		},
	},
	{
		match:   func(m, _ float64) bool { return m >= 70 },
		variant: domain.OfferBridgeCritical,
		rationale: func(m, p float64, c domain.CustomerContext) string {
			return fmt.Sprintf("Critical care need (urgency %.0f) for %s with elevated payment risk (%.0f): the Bridge Plan protects continuity of care.",
				m, petName(c), p)
		},
	},
	{
		match:   func(_, p float64) bool { return p <= 40 },
		variant: domain.OfferFlexiblePayment,
		rationale: func(m, p float64, _ domain.CustomerContext) string {
			return fmt.Sprintf("Moderate medical urgency (%.0f) and manageable payment risk (%.0f): offer flexible payment options.", m, p)
		},
	},
	{
		match:   func(float64, float64) bool { return true },
		variant: domain.OfferStandardRetryDeadline,
		rationale: func(m, p float64, _ domain.CustomerContext) string {
			return fmt.Sprintf("Payment risk %.0f with medical urgency %.0f: standard retry with a clear payment deadline.", p, m)
		},
	},
}

// Select returns the offer for a profile. Every customer gets an offer.
func Select(profile domain.RiskProfile, customer domain.CustomerContext) domain.OfferSelection {
	medical, payment := profile.MedicalUrgencyScore, profile.PaymentRiskScore

	for i, r := range rules {
		if r.match(medical, payment) {
			return domain.OfferSelection{
				Variant:   r.variant,
				Rule:      i + 1,
				Rationale: r.rationale(medical, payment, customer),
			}
		}
	}

	// unreachable: the last rule always matches
	panic("router: no rule matched")
}

func petName(c domain.CustomerContext) string {
	if c.PetName == "" {
		return "the pet"
	}

	return c.PetName
}
