package conversation

import "careloop/app/domain"

// SelectStrategy maps the current stage and intent to the kind of message
// to send next.
func SelectStrategy(stage domain.Stage, intent domain.Intent) domain.Strategy {
	if stage == domain.StageInitial {
		return domain.StrategyOutreach
	}

	switch intent {
	case domain.IntentAmbiguousAcceptance:
		return domain.StrategyRequestClarification
	case domain.IntentAcceptExtension:
		return domain.StrategyConfirmExtension
	case domain.IntentFinancialHardship, domain.IntentAskForMoreInfo:
		return domain.StrategyExplainOfferDetails
	case domain.IntentAskForTime:
		return domain.StrategyOfferExtension
	case domain.IntentDeclineBridge:
		return domain.StrategyOfferUpdateOrCancel
	case domain.IntentAcceptBridge:
		return domain.StrategyConfirmActivation
	case domain.IntentCancelRequest,
		domain.IntentDisputeCharge,
		domain.IntentUpdatePayment:
		return domain.StrategyDefaultAcknowledgment
	}

	return domain.StrategyDefaultAcknowledgment
}
