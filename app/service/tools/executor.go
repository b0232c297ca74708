// Package tools applies the side effects of a resolved intent and records
// them in the session audit log.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"careloop/app/client/billing"
	"careloop/app/client/llm"
	"careloop/app/client/notifier"
	"careloop/app/config"
	"careloop/app/domain"

	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/tmc/langchaingo/callbacks"
	lctools "github.com/tmc/langchaingo/tools"
)

type Executor struct {
	tools       map[string]lctools.Tool
	handler     callbacks.Handler
	bridgePrice float64
}

func New(di *do.Injector) (*Executor, error) {
	cfg := do.MustInvoke[*config.Config](di)
	billingClient := do.MustInvoke[*billing.Client](di)
	notifierClient := do.MustInvoke[notifier.Notifier](di)

	return NewExecutor(billingClient, notifierClient, cfg.Billing.BridgePrice), nil
}

func NewExecutor(b Billing, n notifier.Notifier, bridgePrice float64) *Executor {
	byName := make(map[string]lctools.Tool)
	for _, t := range createTools(b, n) {
		byName[t.Name()] = t
	}

	return &Executor{
		tools:       byName,
		handler:     llm.LogCallbackHandler{Role: "tool_executor"},
		bridgePrice: bridgePrice,
	}
}

// toolList returns the side-effecting tools in a stable order.
func (e *Executor) toolList() []lctools.Tool {
	return []lctools.Tool{
		e.tools[ToolUpdatePlan],
		e.tools[ToolRetryPayment],
		e.tools[ToolCancel],
		e.tools[ToolNotify],
	}
}

// Execute applies the side effects of the session's current intent and
// appends exactly one audit record, which it also returns. It is the only
// place a session becomes completed or cancelled. Terminal sessions are
// left untouched and get no record.
func (e *Executor) Execute(ctx context.Context, s *domain.Session, cycle int) (domain.ToolCallRecord, bool) {
	if s.Terminated() {
		return domain.ToolCallRecord{}, false
	}

	rec := domain.ToolCallRecord{
		ID:     uuid.NewString(),
		Agent:  domain.AgentToolExecutor,
		Cycle:  cycle,
		Intent: s.Intent,
	}

	var finalize domain.Stage

	switch s.Intent {
	case domain.IntentAcceptBridge:
		finalize = e.acceptBridge(ctx, s, &rec)
	case domain.IntentUpdatePayment:
		finalize = e.retryPayment(ctx, s, &rec)
	case domain.IntentCancelRequest:
		finalize = e.cancel(ctx, s, &rec)
	case domain.IntentAcceptExtension,
		domain.IntentAmbiguousAcceptance,
		domain.IntentDeclineBridge,
		domain.IntentFinancialHardship,
		domain.IntentAskForMoreInfo,
		domain.IntentDisputeCharge,
		domain.IntentAskForTime:
		rec.Decision = "no_action"
		rec.Reasoning = fmt.Sprintf("Intent %s has no side effects", s.Intent)
	default:
		rec.Decision = "no_action"
		rec.Reasoning = "No intent to act on"
	}

	rec.Stage = s.Stage
	if finalize != "" {
		rec.Stage = finalize
	}

	s.Record(rec)
	if finalize != "" {
		s.Finalize(finalize)
	}

	slog.Info("Tools executed",
		slog.String("session_id", s.ID),
		slog.String("customer_id", s.CustomerID),
		slog.String("intent", s.Intent.String()),
		slog.String("decision", rec.Decision),
		slog.String("stage", s.Stage.String()),
	)

	return s.ToolCalls[len(s.ToolCalls)-1], true
}

func (e *Executor) acceptBridge(ctx context.Context, s *domain.Session, rec *domain.ToolCallRecord) domain.Stage {
	var sub billing.Subscription
	if !e.run(ctx, rec, ToolUpdatePlan, planInput{CustomerID: s.CustomerID, Plan: domain.PlanBridge}, &sub) {
		rec.Decision = "plan_switch_failed"
		rec.Reasoning = "Subscription service rejected the plan switch; session stays open"
		return ""
	}

	s.Plan = domain.PlanBridge
	s.ChurnPrevented = true
	s.RevenueImpact = BridgeRevenueSaved(s.Customer.PlanCost, e.bridgePrice)

	rec.Decision = "bridge_plan_activated"
	rec.Reasoning = fmt.Sprintf("Switched to the bridge plan at $%.2f/month; revenue saved $%.2f", sub.Amount, s.RevenueImpact)

	e.notify(ctx, s, rec, "Your Bridge Plan is active",
		fmt.Sprintf("%s's records and telehealth stay available on the $%.2f/month Bridge Plan.", petOrYour(s), sub.Amount))

	return domain.StageCompleted
}

func (e *Executor) retryPayment(ctx context.Context, s *domain.Session, rec *domain.ToolCallRecord) domain.Stage {
	var payment billing.Payment
	ok := e.run(ctx, rec, ToolRetryPayment, customerInput{CustomerID: s.CustomerID}, &payment)

	if !ok || !payment.Succeeded() {
		s.Advance(domain.StageNegotiating)

		rec.Decision = "payment_retry_failed"
		rec.Reasoning = "Payment retry did not go through; customer can retry or pick another option"
		if payment.Message != "" {
			rec.Reasoning += ": " + payment.Message
		}

		return ""
	}

	s.Plan = domain.PlanPremium
	s.ChurnPrevented = true
	s.RevenueImpact = PaymentRecovered(s.Customer.PlanCost)

	rec.Decision = "payment_recovered"
	rec.Reasoning = fmt.Sprintf("Payment of $%.2f recovered", payment.Amount)

	e.notify(ctx, s, rec, "Payment received",
		fmt.Sprintf("Thanks! Your payment went through and %s stays on Premium.", petOrYour(s)))

	return domain.StageCompleted
}

func (e *Executor) cancel(ctx context.Context, s *domain.Session, rec *domain.ToolCallRecord) domain.Stage {
	var res billing.Cancellation
	if !e.run(ctx, rec, ToolCancel, customerInput{CustomerID: s.CustomerID}, &res) {
		rec.Decision = "cancellation_failed"
		rec.Reasoning = "Subscription service rejected the cancellation; session stays open"
		return ""
	}

	s.Plan = domain.PlanCancelled
	s.ChurnPrevented = false
	s.RevenueImpact = CancellationImpact(s.Profile.LifetimeValue, s.Customer.PlanCost)

	rec.Decision = "subscription_cancelled"
	rec.Reasoning = fmt.Sprintf("Subscription cancelled; lifetime value lost $%.2f", -s.RevenueImpact)

	e.notify(ctx, s, rec, "Your subscription was cancelled",
		"Your care plan has been cancelled. You are welcome back anytime.")

	return domain.StageCancelled
}

func (e *Executor) notify(ctx context.Context, s *domain.Session, rec *domain.ToolCallRecord, subject, body string) {
	e.run(ctx, rec, ToolNotify, notifyInput{
		CustomerID: s.CustomerID,
		To:         s.Customer.Email,
		Subject:    subject,
		Body:       body,
	}, nil)
}

// run calls one tool and adds its outcome to rec. out, when not nil,
// receives the decoded JSON output.
func (e *Executor) run(ctx context.Context, rec *domain.ToolCallRecord, name string, input, out any) bool {
	result := domain.ToolResult{Tool: name}
	defer func() {
		rec.Tools = append(rec.Tools, result)
	}()

	data, err := json.Marshal(input)
	if err != nil {
		result.Error = err.Error()
		return false
	}

	e.handler.HandleToolStart(ctx, string(data))

	output, err := e.tools[name].Call(ctx, string(data))
	if err != nil {
		e.handler.HandleToolError(ctx, err)
		result.Error = err.Error()
		return false
	}

	e.handler.HandleToolEnd(ctx, output)
	result.Output = output

	if out != nil {
		if err = json.Unmarshal([]byte(output), out); err != nil {
			result.Error = fmt.Sprintf("failed to decode %s output: %v", name, err)
			return false
		}
	}

	return true
}

func petOrYour(s *domain.Session) string {
	if s.Customer.PetName == "" {
		return "Your pet"
	}

	return s.Customer.PetName
}
