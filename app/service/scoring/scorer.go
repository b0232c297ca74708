// Package scoring decides how much retention effort a customer deserves.
package scoring

import (
	"math"

	"careloop/app/domain"
)

const (
	medicalWeight = 40

	priorityThreshold  = 70
	secondaryThreshold = 40
)

// Score computes the 0-100 retention priority. It is pure and total over
// valid profiles.
func Score(p domain.RiskProfile) domain.RetentionDecision {
	breakdown := domain.ComponentBreakdown{
		Medical:    p.MedicalUrgencyScore / 100 * medicalWeight,
		Value:      lifetimeValuePoints(p.LifetimeValue) + tenurePoints(p.TenureMonths),
		Engagement: adherencePoints(p.AdherenceScore),
		Financial:  FinancialModifier(p.PaymentRiskScore),
	}

	// The tier uses the exact sum, the reported score is rounded to 0.1.
	total := math.Min(100, math.Max(0, breakdown.Total()))

	decision := domain.RetentionDecision{
		PriorityScore: math.Round(total*10) / 10,
		Tier:          TierFor(total),
		Breakdown:     breakdown,
	}
	decision.Breakdown.Medical = math.Round(breakdown.Medical*10) / 10

	switch decision.Tier {
	case domain.TierPriorityOutreach:
		decision.Action = "Immediate AI agent intervention"
		decision.Reasoning = "High-value retention opportunity. AI negotiation recommended."
	case domain.TierSecondaryOutreach:
		decision.Action = "Queue for AI agent if capacity available"
		decision.Reasoning = "Moderate retention potential. Consider AI intervention if resources permit."
	case domain.TierIgnore:
		decision.Action = "Standard dunning process only"
		decision.Reasoning = "Low retention priority. Not worth AI agent resources."
	}

	return decision
}

func TierFor(score float64) domain.Tier {
	switch {
	case score >= priorityThreshold:
		return domain.TierPriorityOutreach
	case score >= secondaryThreshold:
		return domain.TierSecondaryOutreach
	default:
		return domain.TierIgnore
	}
}

// FinancialModifier rewards reliable payers: lower payment risk yields more
// points.
func FinancialModifier(paymentRisk float64) float64 {
	switch {
	case paymentRisk <= 25:
		return 10
	case paymentRisk <= 50:
		return 7
	case paymentRisk <= 75:
		return 4
	default:
		return 2
	}
}

func lifetimeValuePoints(ltv float64) float64 {
	switch {
	case ltv >= 10000:
		return 20
	case ltv >= 5000:
		return 15
	case ltv >= 2000:
		return 10
	default:
		return 5
	}
}

func tenurePoints(months int) float64 {
	switch {
	case months >= 24:
		return 10
	case months >= 12:
		return 7
	case months >= 6:
		return 4
	default:
		return 2
	}
}

func adherencePoints(adherence float64) float64 {
	switch {
	case adherence >= 85:
		return 20
	case adherence >= 70:
		return 15
	case adherence >= 50:
		return 10
	default:
		return 5
	}
}
