package domain

import "slices"

// Strategy tags the kind of message the generator is asked to write.
type Strategy string

const (
	StrategyOutreach              Strategy = "outreach"
	StrategyRequestClarification  Strategy = "request_clarification"
	StrategyConfirmExtension      Strategy = "confirm_extension"
	StrategyExplainOfferDetails   Strategy = "explain_offer_details"
	StrategyOfferExtension        Strategy = "offer_extension"
	StrategyOfferUpdateOrCancel   Strategy = "offer_update_or_cancel"
	StrategyConfirmActivation     Strategy = "confirm_activation"
	StrategyDefaultAcknowledgment Strategy = "default_acknowledgment"
)

var strategies = []Strategy{
	StrategyOutreach,
	StrategyRequestClarification,
	StrategyConfirmExtension,
	StrategyExplainOfferDetails,
	StrategyOfferExtension,
	StrategyOfferUpdateOrCancel,
	StrategyConfirmActivation,
	StrategyDefaultAcknowledgment,
}

func Strategies() []Strategy {
	return slices.Clone(strategies)
}

func (s Strategy) String() string {
	return string(s)
}
