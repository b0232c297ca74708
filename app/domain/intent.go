package domain

import "slices"

// Intent is the resolved meaning of a customer reply.
type Intent string

const (
	IntentAcceptBridge        Intent = "accept_bridge"
	IntentAcceptExtension     Intent = "accept_extension"
	IntentAmbiguousAcceptance Intent = "ambiguous_acceptance"
	IntentDeclineBridge       Intent = "decline_bridge"
	IntentFinancialHardship   Intent = "financial_hardship"
	IntentAskForMoreInfo      Intent = "ask_for_more_info"
	IntentDisputeCharge       Intent = "dispute_charge"
	IntentCancelRequest       Intent = "cancel_request"
	IntentUpdatePayment       Intent = "update_payment"
	IntentAskForTime          Intent = "ask_for_time"
)

var intents = []Intent{
	IntentAcceptBridge,
	IntentAcceptExtension,
	IntentAmbiguousAcceptance,
	IntentDeclineBridge,
	IntentFinancialHardship,
	IntentAskForMoreInfo,
	IntentDisputeCharge,
	IntentCancelRequest,
	IntentUpdatePayment,
	IntentAskForTime,
}

// Intents lists every intent. Consumers that dispatch on intent are tested
// against this list, so a new value has to be handled everywhere.
func Intents() []Intent {
	return slices.Clone(intents)
}

func ParseIntent(s string) (Intent, bool) {
	i := Intent(s)
	return i, i.Valid()
}

func (i Intent) Valid() bool {
	return slices.Contains(intents, i)
}

func (i Intent) String() string {
	return string(i)
}
