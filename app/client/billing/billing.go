// Package billing is the subscription and payment collaborator. Charges are
// simulated; plan state is kept in memory.
package billing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"careloop/app/config"
	"careloop/app/domain"

	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/samber/oops"
)

const (
	StatusActive   = "active"
	StatusSuccess  = "success"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
)

type Subscription struct {
	Status         string      `json:"status"`
	SubscriptionID string      `json:"subscription_id"`
	CustomerID     string      `json:"customer_id"`
	Plan           domain.Plan `json:"plan"`
	Amount         float64     `json:"amount"`
	Interval       string      `json:"interval"`
	PeriodStart    time.Time   `json:"current_period_start"`
	PeriodEnd      time.Time   `json:"current_period_end"`
}

type Payment struct {
	Status          string  `json:"status"`
	PaymentIntentID string  `json:"payment_intent_id"`
	Amount          float64 `json:"amount"`
	Charged         bool    `json:"charged"`
	Message         string  `json:"message"`
}

func (p Payment) Succeeded() bool {
	return p.Status == StatusSuccess
}

type Cancellation struct {
	Status         string    `json:"status"`
	SubscriptionID string    `json:"subscription_id"`
	CanceledAt     time.Time `json:"canceled_at"`
	Message        string    `json:"message"`
}

type Client struct {
	premiumPrice float64
	bridgePrice  float64
	outcome      OutcomeSource

	mu    sync.Mutex
	plans map[string]domain.Plan
}

func New(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	outcome, err := do.Invoke[OutcomeSource](di)
	if err != nil {
		outcome = RandomOutcome{Rate: cfg.Billing.RetrySuccessRate}
	}

	return NewClient(cfg.Billing, outcome), nil
}

func NewClient(cfg config.Billing, outcome OutcomeSource) *Client {
	return &Client{
		premiumPrice: cfg.PremiumPrice,
		bridgePrice:  cfg.BridgePrice,
		outcome:      outcome,
		plans:        make(map[string]domain.Plan),
	}
}

func (c *Client) UpdatePlan(ctx context.Context, customerID string, plan domain.Plan) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return Subscription{}, err
	}

	var amount float64
	switch plan {
	case domain.PlanPremium:
		amount = c.premiumPrice
	case domain.PlanBridge:
		amount = c.bridgePrice
	case domain.PlanCancelled:
		return Subscription{}, oops.In("billing").With("customer_id", customerID).Errorf("use Cancel to end a subscription")
	default:
		return Subscription{}, oops.In("billing").With("plan", plan).Errorf("unknown plan")
	}

	c.mu.Lock()
	c.plans[customerID] = plan
	c.mu.Unlock()

	now := time.Now()

	slog.Info("Subscription plan updated",
		slog.String("customer_id", customerID),
		slog.String("plan", string(plan)),
		slog.Float64("amount", amount),
	)

	return Subscription{
		Status:         StatusActive,
		SubscriptionID: subscriptionID(customerID),
		CustomerID:     "cus_" + customerID,
		Plan:           plan,
		Amount:         amount,
		Interval:       "month",
		PeriodStart:    now,
		PeriodEnd:      now.AddDate(0, 1, 0),
	}, nil
}

// RetryPayment makes a single charge attempt. A declined card is reported
// in the result, not as an error.
func (c *Client) RetryPayment(ctx context.Context, customerID string) (Payment, error) {
	if err := ctx.Err(); err != nil {
		return Payment{}, err
	}

	payment := Payment{
		PaymentIntentID: "pi_" + uuid.NewString(),
		Amount:          c.premiumPrice,
	}

	if c.outcome.Succeeds() {
		payment.Status = StatusSuccess
		payment.Charged = true
		payment.Message = "Payment successful"

		c.mu.Lock()
		c.plans[customerID] = domain.PlanPremium
		c.mu.Unlock()
	} else {
		payment.Status = StatusFailed
		payment.Message = "Card declined - insufficient funds"
	}

	slog.Info("Payment retried",
		slog.String("customer_id", customerID),
		slog.String("status", payment.Status),
	)

	return payment, nil
}

func (c *Client) Cancel(ctx context.Context, customerID string) (Cancellation, error) {
	if err := ctx.Err(); err != nil {
		return Cancellation{}, err
	}

	c.mu.Lock()
	c.plans[customerID] = domain.PlanCancelled
	c.mu.Unlock()

	slog.Info("Subscription canceled",
		slog.String("customer_id", customerID),
	)

	return Cancellation{
		Status:         StatusCanceled,
		SubscriptionID: subscriptionID(customerID),
		CanceledAt:     time.Now(),
		Message:        "Subscription canceled successfully",
	}, nil
}

// Plan returns the last plan set for a customer, premium if none was set.
func (c *Client) Plan(customerID string) domain.Plan {
	c.mu.Lock()
	defer c.mu.Unlock()

	if plan, ok := c.plans[customerID]; ok {
		return plan
	}

	return domain.PlanPremium
}

func subscriptionID(customerID string) string {
	return fmt.Sprintf("sub_%s", customerID)
}
