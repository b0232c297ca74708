package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"careloop/app/client/billing"
	"careloop/app/client/notifier"
	"careloop/app/domain"

	lctools "github.com/tmc/langchaingo/tools"
)

const (
	ToolUpdatePlan   = "billing_update_plan"
	ToolRetryPayment = "billing_retry_payment"
	ToolCancel       = "billing_cancel_subscription"
	ToolNotify       = "notify_customer"
)

// Billing is the subscription and payment collaborator.
type Billing interface {
	UpdatePlan(ctx context.Context, customerID string, plan domain.Plan) (billing.Subscription, error)
	RetryPayment(ctx context.Context, customerID string) (billing.Payment, error)
	Cancel(ctx context.Context, customerID string) (billing.Cancellation, error)
}

type executorTool struct {
	name        string
	description string
	call        func(ctx context.Context, input string) (string, error)
}

func (t *executorTool) Name() string {
	return t.name
}

func (t *executorTool) Description() string {
	return t.description
}

func (t *executorTool) Call(ctx context.Context, input string) (string, error) {
	return t.call(ctx, input)
}

type planInput struct {
	CustomerID string      `json:"customer_id"`
	Plan       domain.Plan `json:"plan"`
}

type customerInput struct {
	CustomerID string `json:"customer_id"`
}

type notifyInput struct {
	CustomerID string `json:"customer_id"`
	To         string `json:"to"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
}

func createTools(b Billing, n notifier.Notifier) []lctools.Tool {
	return []lctools.Tool{
		&executorTool{
			name:        ToolUpdatePlan,
			description: "Switch a subscription to another plan. Input must be a JSON object with customer_id (string) and plan (premium or bridge).",
			call: func(ctx context.Context, input string) (string, error) {
				var req planInput
				if err := json.Unmarshal([]byte(input), &req); err != nil {
					return "", fmt.Errorf("invalid plan request JSON: %w", err)
				}

				sub, err := b.UpdatePlan(ctx, req.CustomerID, req.Plan)
				if err != nil {
					return "", err
				}

				return marshal(sub)
			},
		},
		&executorTool{
			name:        ToolRetryPayment,
			description: "Retry the failed payment once. Input must be a JSON object with customer_id (string).",
			call: func(ctx context.Context, input string) (string, error) {
				var req customerInput
				if err := json.Unmarshal([]byte(input), &req); err != nil {
					return "", fmt.Errorf("invalid retry request JSON: %w", err)
				}

				payment, err := b.RetryPayment(ctx, req.CustomerID)
				if err != nil {
					return "", err
				}

				return marshal(payment)
			},
		},
		&executorTool{
			name:        ToolCancel,
			description: "Cancel a subscription. Irreversible. Input must be a JSON object with customer_id (string).",
			call: func(ctx context.Context, input string) (string, error) {
				var req customerInput
				if err := json.Unmarshal([]byte(input), &req); err != nil {
					return "", fmt.Errorf("invalid cancel request JSON: %w", err)
				}

				res, err := b.Cancel(ctx, req.CustomerID)
				if err != nil {
					return "", err
				}

				return marshal(res)
			},
		},
		&executorTool{
			name:        ToolNotify,
			description: "Send the customer a notification. Input must be a JSON object with customer_id, to, subject and body (strings).",
			call: func(ctx context.Context, input string) (string, error) {
				var req notifyInput
				if err := json.Unmarshal([]byte(input), &req); err != nil {
					return "", fmt.Errorf("invalid notification JSON: %w", err)
				}

				if err := n.Notify(ctx, notifier.Notification(req)); err != nil {
					return "", err
				}

				return "sent", nil
			},
		},
	}
}

func marshal(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
