package domain

import "slices"

// OfferVariant is the negotiation offer chosen once per session.
type OfferVariant string

const (
	OfferBridgePlusFlexibility OfferVariant = "bridge_plus_flexibility"
	OfferExtensionOnly         OfferVariant = "extension_only"
	OfferBridgeCritical        OfferVariant = "bridge_critical"
	OfferFlexiblePayment       OfferVariant = "flexible_payment"
	OfferStandardRetryDeadline OfferVariant = "standard_retry_deadline"
)

var offerVariants = []OfferVariant{
	OfferBridgePlusFlexibility,
	OfferExtensionOnly,
	OfferBridgeCritical,
	OfferFlexiblePayment,
	OfferStandardRetryDeadline,
}

func OfferVariants() []OfferVariant {
	return slices.Clone(offerVariants)
}

func (v OfferVariant) Valid() bool {
	return slices.Contains(offerVariants, v)
}

func (v OfferVariant) String() string {
	return string(v)
}

// OfferSelection is the router output: the variant and why it was picked.
type OfferSelection struct {
	Variant   OfferVariant `json:"variant"`
	Rule      int          `json:"rule"`
	Rationale string       `json:"rationale"`
}
