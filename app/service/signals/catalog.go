package signals

import (
	"context"
	"maps"
	"slices"
)

var _ Provider = (*Catalog)(nil)

type customerRecord struct {
	account Account
	payment PaymentHistory
	medical MedicalRecord
}

// Catalog is an in-memory Provider seeded with demo customers.
type Catalog struct {
	records map[string]customerRecord
}

func NewCatalog() *Catalog {
	return &Catalog{records: demoRecords()}
}

func (c *Catalog) Account(_ context.Context, customerID string) (Account, error) {
	rec, ok := c.records[customerID]
	if !ok {
		return NeutralAccount(customerID), nil
	}

	return rec.account, nil
}

func (c *Catalog) PaymentHistory(_ context.Context, customerID string) (PaymentHistory, error) {
	rec, ok := c.records[customerID]
	if !ok {
		return NeutralPaymentHistory(), nil
	}

	return rec.payment, nil
}

func (c *Catalog) MedicalRecord(_ context.Context, customerID string) (MedicalRecord, error) {
	rec, ok := c.records[customerID]
	if !ok {
		return NeutralMedicalRecord(), nil
	}

	return rec.medical, nil
}

func (c *Catalog) CustomerIDs(_ context.Context) ([]string, error) {
	return slices.Sorted(maps.Keys(c.records)), nil
}

func demoRecords() map[string]customerRecord {
	return map[string]customerRecord{
		"user_123": {
			account: Account{
				CustomerID:    "user_123",
				Name:          "Maria Rodriguez",
				Email:         "maria.rodriguez@example.com",
				PlanCost:      50,
				LifetimeValue: 12000,
				TenureMonths:  36,
				Known:         true,
			},
			payment: PaymentHistory{
				TotalPayments:      36,
				SuccessfulPayments: 35,
				FailedPayments:     1,
				LatePayments:       2,
				AvgDaysToPayment:   1.2,
				BalanceOwed:        50,
				Reliability:        "excellent",
			},
			medical: MedicalRecord{
				PetName:    "Bella",
				Condition:  "Diabetes Mellitus (Insulin Dependent)",
				Importance: ImportanceCritical,
				Adherence:  95,
			},
		},
		"user_456": {
			account: Account{
				CustomerID:    "user_456",
				Name:          "James Mitchell",
				Email:         "james.mitchell@example.com",
				PlanCost:      50,
				LifetimeValue: 4200,
				TenureMonths:  12,
				Known:         true,
			},
			payment: PaymentHistory{
				TotalPayments:       12,
				SuccessfulPayments:  10,
				FailedPayments:      2,
				LatePayments:        3,
				AvgDaysToPayment:    5.8,
				DeclinedLast6Months: 1,
				BalanceOwed:         50,
				Reliability:         "good",
			},
			medical: MedicalRecord{
				PetName:    "Max",
				Condition:  "Heartworm Disease (Stage 2)",
				Importance: ImportanceHigh,
				Adherence:  82,
			},
		},
		"user_789": {
			account: Account{
				CustomerID:    "user_789",
				Name:          "Sarah Chen",
				Email:         "sarah.chen@example.com",
				PlanCost:      50,
				LifetimeValue: 1500,
				TenureMonths:  18,
				Known:         true,
			},
			payment: PaymentHistory{
				TotalPayments:       18,
				SuccessfulPayments:  13,
				FailedPayments:      5,
				LatePayments:        8,
				AvgDaysToPayment:    14.5,
				DeclinedLast6Months: 4,
				BalanceOwed:         150,
				Reliability:         "fair",
			},
			medical: MedicalRecord{
				PetName:    "Whiskers",
				Condition:  "Chronic Kidney Disease",
				Importance: ImportanceMedium,
				Adherence:  65,
			},
		},
	}
}
