// Package conversation drives the stage machine and the messages sent to
// the customer.
package conversation

import (
	"fmt"

	"careloop/app/domain"
)

// Next returns the stage a session moves to after intent is classified.
// It never returns a terminal stage: only tool execution finalizes a
// session.
func Next(intent domain.Intent) domain.Stage {
	switch intent {
	case domain.IntentAcceptBridge,
		domain.IntentAcceptExtension,
		domain.IntentUpdatePayment:
		return domain.StageClosing
	case domain.IntentDeclineBridge,
		domain.IntentCancelRequest:
		return domain.StageObjectionHandling
	case domain.IntentAmbiguousAcceptance,
		domain.IntentFinancialHardship,
		domain.IntentAskForMoreInfo,
		domain.IntentAskForTime,
		domain.IntentDisputeCharge:
		return domain.StageNegotiating
	}

	return domain.StageNegotiating
}

// Transition applies a classified intent to the session. Terminal sessions
// are left untouched and reported as an error.
func Transition(s *domain.Session, intent domain.Intent) error {
	if s.Terminated() {
		return fmt.Errorf("session %s is %s", s.ID, s.Stage)
	}

	next := Next(intent)
	if !s.Advance(next) {
		return fmt.Errorf("cannot move session %s from %s to %s", s.ID, s.Stage, next)
	}

	s.Intent = intent

	return nil
}
