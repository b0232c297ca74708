package billing

import "math/rand/v2"

// OutcomeSource decides whether a payment retry goes through.
type OutcomeSource interface {
	Succeeds() bool
}

type RandomOutcome struct {
	Rate float64
}

func (o RandomOutcome) Succeeds() bool {
	return rand.Float64() < o.Rate
}

type FixedOutcome bool

func (o FixedOutcome) Succeeds() bool {
	return bool(o)
}
