package signals

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssessPaymentRisk(t *testing.T) {
	tests := []struct {
		name    string
		history PaymentHistory
		score   float64
		tier    string
	}{
		{
			name:    "no history is neutral",
			history: NeutralPaymentHistory(),
			score:   NeutralPaymentRisk,
			tier:    "MODERATE",
		},
		{
			name:    "reliable payer",
			history: PaymentHistory{TotalPayments: 36, FailedPayments: 1, LatePayments: 2, AvgDaysToPayment: 1.2, BalanceOwed: 50},
			score:   29.6,
			tier:    "MODERATE",
		},
		{
			name:    "perfect payer",
			history: PaymentHistory{TotalPayments: 24, SuccessfulPayments: 24},
			score:   0,
			tier:    "LOW",
		},
		{
			name: "every component capped",
			history: PaymentHistory{
				TotalPayments: 18, FailedPayments: 5, LatePayments: 8,
				AvgDaysToPayment: 14.5, DeclinedLast6Months: 4, BalanceOwed: 150,
			},
			score: 100,
			tier:  "CRITICAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			risk := AssessPaymentRisk(tt.history)
			assert.InDelta(t, tt.score, risk.Score, 0.001)
			assert.Equal(t, tt.tier, risk.Tier)
		})
	}
}

func TestAssessMedicalUrgency(t *testing.T) {
	tests := []struct {
		name   string
		record MedicalRecord
		score  float64
		tier   string
	}{
		{"critical and engaged is capped", MedicalRecord{Importance: ImportanceCritical, Adherence: 95}, 100, "MAXIMUM_RETENTION"},
		{"high and compliant", MedicalRecord{Importance: ImportanceHigh, Adherence: 82}, 82.5, "HIGH_RETENTION"},
		{"medium and struggling", MedicalRecord{Importance: ImportanceMedium, Adherence: 65}, 50, "MODERATE_RETENTION"},
		{"low", MedicalRecord{Importance: ImportanceLow, Adherence: 40}, 25, "STANDARD_RETENTION"},
		{"unknown is neutral", NeutralMedicalRecord(), NeutralMedicalUrgency, "MODERATE_RETENTION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urgency := AssessMedicalUrgency(tt.record)
			assert.InDelta(t, tt.score, urgency.Score, 0.001)
			assert.Equal(t, tt.tier, urgency.Tier)
		})
	}
}

func TestAggregator_KnownCustomer(t *testing.T) {
	agg := NewAggregator(NewCatalog())

	snap, err := agg.Aggregate(context.Background(), "user_123")
	require.NoError(t, err)

	assert.Equal(t, 100.0, snap.Profile.MedicalUrgencyScore)
	assert.InDelta(t, 29.6, snap.Profile.PaymentRiskScore, 0.001)
	assert.Equal(t, 95.0, snap.Profile.AdherenceScore)
	assert.Equal(t, 12000.0, snap.Profile.LifetimeValue)
	assert.Equal(t, 36, snap.Profile.TenureMonths)
	assert.Equal(t, "Bella", snap.Customer.PetName)
	assert.True(t, snap.Customer.Known)
}

func TestAggregator_UnknownCustomerIsNeutral(t *testing.T) {
	agg := NewAggregator(NewCatalog())

	snap, err := agg.Aggregate(context.Background(), "nobody")
	require.NoError(t, err)

	assert.Equal(t, float64(NeutralMedicalUrgency), snap.Profile.MedicalUrgencyScore)
	assert.Equal(t, float64(NeutralPaymentRisk), snap.Profile.PaymentRiskScore)
	assert.Equal(t, float64(NeutralAdherence), snap.Profile.AdherenceScore)
	assert.Equal(t, float64(NeutralLifetimeValue), snap.Profile.LifetimeValue)
	assert.Equal(t, NeutralTenureMonths, snap.Profile.TenureMonths)
	assert.False(t, snap.Customer.Known)
	assert.Equal(t, float64(DefaultPlanCost), snap.Customer.PlanCost)
}

type failingProvider struct {
	*Catalog
}

func (failingProvider) MedicalRecord(context.Context, string) (MedicalRecord, error) {
	return MedicalRecord{}, errors.New("ezyvet unavailable")
}

func TestAggregator_ProviderError(t *testing.T) {
	agg := NewAggregator(failingProvider{NewCatalog()})

	_, err := agg.Aggregate(context.Background(), "user_123")
	assert.ErrorContains(t, err, "ezyvet unavailable")
}

func TestCatalog_CustomerIDsSorted(t *testing.T) {
	ids, err := NewCatalog().CustomerIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"user_123", "user_456", "user_789"}, ids)
}
