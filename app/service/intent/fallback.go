package intent

import "careloop/app/domain"

const (
	keywordConfidence = 0.7
	defaultConfidence = 0.6
)

type fallbackRule struct {
	match     func(msg, last string) bool
	intent    domain.Intent
	reasoning string
}

// fallbackRules are tried in order, the first match wins. Ambiguity is
// checked before any acceptance rule.
var fallbackRules = []fallbackRule{
	{
		match:     func(msg, last string) bool { return IsAmbiguous(msg, last) },
		intent:    domain.IntentAmbiguousAcceptance,
		reasoning: "Keyword match: affirmation without a specific option after a multi-option question",
	},
	{
		match:     func(msg, _ string) bool { return isAffirmation(msg) && bridgeTerms.in(msg) },
		intent:    domain.IntentAcceptBridge,
		reasoning: "Keyword match: acceptance naming the bridge plan",
	},
	{
		match:     func(msg, _ string) bool { return isAffirmation(msg) && extensionTerms.in(msg) },
		intent:    domain.IntentAcceptExtension,
		reasoning: "Keyword match: acceptance naming the payment extension",
	},
	{
		match:     func(msg, _ string) bool { return isAffirmation(msg) },
		intent:    domain.IntentAcceptBridge,
		reasoning: "Keyword match: acceptance",
	},
	{
		match:     func(msg, _ string) bool { return hardshipTerms.in(msg) },
		intent:    domain.IntentFinancialHardship,
		reasoning: "Keyword match: financial hardship",
	},
	{
		match:     func(msg, _ string) bool { return timeTerms.in(msg) },
		intent:    domain.IntentAskForTime,
		reasoning: "Keyword match: needs time",
	},
	{
		match:     func(msg, _ string) bool { return cancelTerms.in(msg) },
		intent:    domain.IntentCancelRequest,
		reasoning: "Keyword match: cancellation",
	},
	{
		match:     func(msg, _ string) bool { return infoTerms.in(msg) },
		intent:    domain.IntentAskForMoreInfo,
		reasoning: "Keyword match: asking for info",
	},
	{
		match:     func(msg, _ string) bool { return updatePaymentTerms.in(msg) },
		intent:    domain.IntentUpdatePayment,
		reasoning: "Keyword match: payment method update",
	},
	{
		match:     func(msg, _ string) bool { return disputeTerms.in(msg) },
		intent:    domain.IntentDisputeCharge,
		reasoning: "Keyword match: disputes the charge",
	},
	{
		match:     func(msg, _ string) bool { return declineTerms.in(msg) },
		intent:    domain.IntentDeclineBridge,
		reasoning: "Keyword match: declines the offer",
	},
}

// Fallback classifies with keyword rules. Unmatched input is treated as
// financial hardship: missing real hardship costs more than any other
// mistake.
func Fallback(req Request) Result {
	msg := normalize(req.Message)

	for _, r := range fallbackRules {
		if r.match(msg, req.LastSystemMessage) {
			return Result{
				Intent:     r.intent,
				Confidence: keywordConfidence,
				Entities:   map[string]any{},
				Reasoning:  r.reasoning,
				Source:     SourceFallback,
			}
		}
	}

	return Result{
		Intent:     domain.IntentFinancialHardship,
		Confidence: defaultConfidence,
		Entities:   map[string]any{},
		Reasoning:  "Default: assuming financial concern",
		Source:     SourceFallback,
	}
}
