package signals

import (
	"context"

	"careloop/app/domain"

	"github.com/go-playground/validator/v10"
	"github.com/samber/do"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"
)

// Snapshot is everything the aggregator learned about one customer.
type Snapshot struct {
	Profile  domain.RiskProfile
	Customer domain.CustomerContext
	Payment  PaymentRisk
	Medical  MedicalUrgency
}

// Aggregator normalizes provider signals into a RiskProfile.
type Aggregator struct {
	provider Provider
	validate *validator.Validate
}

func New(di *do.Injector) (*Aggregator, error) {
	return NewAggregator(do.MustInvoke[Provider](di)), nil
}

func NewAggregator(provider Provider) *Aggregator {
	return &Aggregator{
		provider: provider,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *Aggregator) Provider() Provider {
	return a.provider
}

// Aggregate looks the customer up in all providers concurrently.
func (a *Aggregator) Aggregate(ctx context.Context, customerID string) (Snapshot, error) {
	var (
		account Account
		history PaymentHistory
		record  MedicalRecord
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		account, err = a.provider.Account(gctx, customerID)
		return err
	})
	g.Go(func() (err error) {
		history, err = a.provider.PaymentHistory(gctx, customerID)
		return err
	})
	g.Go(func() (err error) {
		record, err = a.provider.MedicalRecord(gctx, customerID)
		return err
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, oops.In("signals").With("customer_id", customerID).Wrapf(err, "provider lookup")
	}

	payment := AssessPaymentRisk(history)
	medical := AssessMedicalUrgency(record)

	profile := domain.RiskProfile{
		MedicalUrgencyScore: clamp(medical.Score, 0, 100),
		PaymentRiskScore:    clamp(payment.Score, 0, 100),
		AdherenceScore:      clamp(record.Adherence, 0, 100),
		LifetimeValue:       max(account.LifetimeValue, 0),
		TenureMonths:        max(account.TenureMonths, 0),
	}

	if err := a.validate.Struct(profile); err != nil {
		return Snapshot{}, oops.In("signals").With("customer_id", customerID).Wrapf(err, "invalid risk profile")
	}

	planCost := account.PlanCost
	if planCost <= 0 {
		planCost = DefaultPlanCost
	}

	return Snapshot{
		Profile: profile,
		Customer: domain.CustomerContext{
			CustomerID:      customerID,
			Name:            account.Name,
			Email:           account.Email,
			PetName:         record.PetName,
			PetCondition:    record.Condition,
			PlanCost:        planCost,
			UrgencyTier:     medical.Tier,
			PaymentRiskTier: payment.Tier,
			Known:           account.Known,
		},
		Payment: payment,
		Medical: medical,
	}, nil
}
