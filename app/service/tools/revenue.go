package tools

const (
	futureMonths      = 36
	acquisitionCost   = 150
	bridgeMonths      = 6
	premiumReturnRate = 0.6
)

// LifetimeValue projects past plus expected future revenue.
func LifetimeValue(planCost float64, tenureMonths int) float64 {
	return planCost*float64(tenureMonths) + planCost*futureMonths
}

// ChurnCost is the future revenue lost plus the cost to acquire a
// replacement customer.
func ChurnCost(planCost float64) float64 {
	return planCost*futureMonths + acquisitionCost
}

// BridgeRevenueSaved is bridge revenue over the average bridge duration plus
// the expected value of returning to premium.
func BridgeRevenueSaved(planCost, bridgePrice float64) float64 {
	return bridgePrice*bridgeMonths + planCost*futureMonths*premiumReturnRate
}

func PaymentRecovered(planCost float64) float64 {
	return planCost
}

// CancellationImpact is negative. Customers without a known lifetime value
// are charged the churn cost.
func CancellationImpact(lifetimeValue, planCost float64) float64 {
	if lifetimeValue > 0 {
		return -lifetimeValue
	}

	return -ChurnCost(planCost)
}
