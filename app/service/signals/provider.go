package signals

import "context"

// Account is the billing-side view of a customer.
type Account struct {
	CustomerID    string  `json:"customer_id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	PlanCost      float64 `json:"plan_cost"`
	LifetimeValue float64 `json:"lifetime_value"`
	TenureMonths  int     `json:"tenure_months"`
	Known         bool    `json:"known"`
}

type PaymentHistory struct {
	TotalPayments       int     `json:"total_payments"`
	SuccessfulPayments  int     `json:"successful_payments"`
	FailedPayments      int     `json:"failed_payments"`
	LatePayments        int     `json:"late_payments"`
	AvgDaysToPayment    float64 `json:"avg_days_to_payment"`
	DeclinedLast6Months int     `json:"declined_last_6_months"`
	BalanceOwed         float64 `json:"balance_owed"`
	Reliability         string  `json:"reliability"`
}

type Importance string

const (
	ImportanceCritical Importance = "CRITICAL"
	ImportanceHigh     Importance = "HIGH"
	ImportanceMedium   Importance = "MEDIUM"
	ImportanceLow      Importance = "LOW"
)

type MedicalRecord struct {
	PetName    string     `json:"pet_name"`
	Condition  string     `json:"condition"`
	Importance Importance `json:"importance"`
	// Adherence is the 0-100 medication adherence score.
	Adherence float64 `json:"adherence"`
}

// Provider is the read-only source of customer facts. Unknown ids resolve
// to the neutral defaults below, never to an error.
type Provider interface {
	Account(ctx context.Context, customerID string) (Account, error)
	PaymentHistory(ctx context.Context, customerID string) (PaymentHistory, error)
	MedicalRecord(ctx context.Context, customerID string) (MedicalRecord, error)
	CustomerIDs(ctx context.Context) ([]string, error)
}

const (
	NeutralMedicalUrgency = 50
	NeutralPaymentRisk    = 50
	NeutralAdherence      = 70
	NeutralLifetimeValue  = 3000
	NeutralTenureMonths   = 12
	DefaultPlanCost       = 50
)

func NeutralAccount(customerID string) Account {
	return Account{
		CustomerID:    customerID,
		Name:          "Valued customer",
		PlanCost:      DefaultPlanCost,
		LifetimeValue: NeutralLifetimeValue,
		TenureMonths:  NeutralTenureMonths,
	}
}

func NeutralPaymentHistory() PaymentHistory {
	return PaymentHistory{Reliability: "insufficient_data"}
}

func NeutralMedicalRecord() MedicalRecord {
	return MedicalRecord{
		PetName:   "your pet",
		Condition: "ongoing care",
		Adherence: NeutralAdherence,
	}
}
