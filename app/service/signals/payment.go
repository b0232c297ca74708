package signals

import "math"

type PaymentRisk struct {
	Score       float64 `json:"score"`
	Tier        string  `json:"tier"`
	Description string  `json:"description"`
	FailureRate float64 `json:"failure_rate_pct"`
	LateRate    float64 `json:"late_rate_pct"`
}

// AssessPaymentRisk scores internal payment history on 0-100, higher is
// riskier. A customer without history gets the neutral score.
func AssessPaymentRisk(h PaymentHistory) PaymentRisk {
	if h.TotalPayments <= 0 {
		return PaymentRisk{
			Score:       NeutralPaymentRisk,
			Tier:        "MODERATE",
			Description: "Insufficient payment history.",
		}
	}

	total := float64(h.TotalPayments)
	failureRate := float64(h.FailedPayments) / total * 100
	lateRate := float64(h.LatePayments) / total * 100

	score := math.Min(40, failureRate*4) +
		math.Min(30, lateRate*3) +
		math.Min(15, h.AvgDaysToPayment*1.5) +
		math.Min(10, float64(h.DeclinedLast6Months)*2.5)

	switch {
	case h.BalanceOwed > 100:
		score += 5
	case h.BalanceOwed > 50:
		score += 3
	}

	score = round1(clamp(score, 0, 100))

	risk := PaymentRisk{
		Score:       score,
		FailureRate: round1(failureRate),
		LateRate:    round1(lateRate),
	}

	switch {
	case score <= 25:
		risk.Tier, risk.Description = "LOW", "Excellent payment history. Very reliable customer."
	case score <= 50:
		risk.Tier, risk.Description = "MODERATE", "Some payment issues but generally resolves them."
	case score <= 75:
		risk.Tier, risk.Description = "HIGH", "Frequent payment problems. Financial stress evident."
	default:
		risk.Tier, risk.Description = "CRITICAL", "Severe payment issues. Immediate intervention needed."
	}

	return risk
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
