package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"careloop/app/client/llm"
	"careloop/app/config"
	"careloop/app/domain"

	_ "embed"

	"github.com/samber/do"
	"github.com/samber/oops"
	"github.com/tmc/langchaingo/llms"
)

//go:embed reply_prompt.txt
var replyPromptTemplate string

type GenerateRequest struct {
	Strategy    domain.Strategy
	Session     domain.Session
	BridgePrice float64
}

// Generator writes the customer-facing text for a strategy. The text is
// opaque to the rest of the engine.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

type LLMGenerator struct {
	model llms.Model
	cfg   config.ModelConfig
}

func NewLLMGenerator(model llms.Model, cfg config.ModelConfig) *LLMGenerator {
	return &LLMGenerator{
		model: model,
		cfg:   cfg,
	}
}

func (g *LLMGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	s := req.Session

	templateValues := map[string]any{
		"customer":        orUnknown(s.Customer.Name),
		"pet":             petName(s.Customer),
		"condition":       orUnknown(s.Customer.PetCondition),
		"plan_cost":       fmt.Sprintf("%.2f", s.Customer.PlanCost),
		"bridge_price":    fmt.Sprintf("%.2f", req.BridgePrice),
		"offer":           s.Offer.Variant,
		"offer_rationale": s.Offer.Rationale,
		"transcript":      Transcript(s.Messages),
		"instructions":    instructions(req.Strategy),
	}

	prompt := replyPromptTemplate
	for key, value := range templateValues {
		prompt = strings.ReplaceAll(prompt, "{"+key+"}", fmt.Sprint(value))
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	result, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, llm.CallOptions(g.cfg)...)
	if err != nil {
		return "", oops.In("conversation").With("strategy", req.Strategy).Wrapf(err, "failed to generate reply")
	}

	return strings.TrimSpace(result), nil
}

func instructions(strategy domain.Strategy) string {
	switch strategy {
	case domain.StrategyOutreach:
		return "Write the first message (3-4 sentences): acknowledge the failed payment gently, show you understand the pet's medical needs and present the selected offer. If it includes both the extension and the Bridge Plan, ask which option they would prefer."
	case domain.StrategyRequestClarification:
		return "The customer said yes but two options are on the table. Thank them and ask which one they want: Option A, the 14-day payment extension, or Option B, the Bridge Plan (1-2 sentences)."
	case domain.StrategyConfirmExtension:
		return "Confirm the 14-day payment extension, give the new due date and reassure that all Premium benefits stay active (2-3 sentences)."
	case domain.StrategyExplainOfferDetails:
		return "Explain the Bridge Plan: what the pet keeps, what is paused and that it is temporary. End with: Would you like me to switch you to the Bridge Plan?"
	case domain.StrategyOfferExtension:
		return "The customer needs more time. Offer the 14-day payment extension or, as a safer alternative, the Bridge Plan, and ask which option they would prefer (2-3 sentences)."
	case domain.StrategyOfferUpdateOrCancel:
		return "The customer declined the Bridge Plan. Acknowledge it and offer two options: update the payment method to keep Premium, or cancel the subscription. Ask which they would prefer (2-3 sentences)."
	case domain.StrategyConfirmActivation:
		return "Confirm the Bridge Plan is active, remind them that records and telehealth are available 24/7 and that they can upgrade anytime (2-3 sentences)."
	case domain.StrategyDefaultAcknowledgment:
		return "Thank the customer for the reply and say the care team will follow up shortly (1-2 sentences)."
	}

	return "Reply briefly and helpfully."
}

// Canned returns a fixed message for a strategy. It is used when no
// generator is configured or generation fails.
func Canned(strategy domain.Strategy, s domain.Session, bridgePrice float64) string {
	pet := petName(s.Customer)

	switch strategy {
	case domain.StrategyOutreach:
		return outreach(s, pet, bridgePrice)
	case domain.StrategyRequestClarification:
		return fmt.Sprintf("Thanks for getting back to us! Just to be sure, which option would you like for %s: Option A, a 14-day payment extension on Premium, or Option B, the $%.0f/month Bridge Plan?",
			pet, bridgePrice)
	case domain.StrategyConfirmExtension:
		return fmt.Sprintf("Your 14-day payment extension is approved. %s keeps every Premium benefit in the meantime, and you can reach out if anything changes.", pet)
	case domain.StrategyExplainOfferDetails:
		return fmt.Sprintf("The Bridge Plan is $%.0f/month and keeps %s's medical records, 24/7 telehealth and priority booking active. In-person visits, prescription delivery and dental cleanings are paused, and you can upgrade back to Premium anytime. Would you like me to switch you to the Bridge Plan?",
			bridgePrice, pet)
	case domain.StrategyOfferExtension:
		return fmt.Sprintf("Of course. We can give you a 14-day payment extension on Premium, or move %s to the $%.0f/month Bridge Plan while things settle. Which option would you prefer?",
			pet, bridgePrice)
	case domain.StrategyOfferUpdateOrCancel:
		return fmt.Sprintf("Understood. You can update your payment method to keep %s on Premium, or cancel the subscription, which ends access to the plan's benefits. Which would you prefer?", pet)
	case domain.StrategyConfirmActivation:
		return fmt.Sprintf("Done! The Bridge Plan is now active at $%.0f/month. %s's records and telehealth are available 24/7, and you can upgrade back to Premium anytime.",
			bridgePrice, pet)
	case domain.StrategyDefaultAcknowledgment:
		return "Thank you for your response. Our team will follow up with you shortly."
	}

	return "Thank you for your response. Our team will follow up with you shortly."
}

func outreach(s domain.Session, pet string, bridgePrice float64) string {
	greeting := "Hi"
	if s.Customer.Name != "" {
		greeting = "Hi " + s.Customer.Name
	}

	opening := fmt.Sprintf("%s, your $%.2f payment for %s's care plan didn't go through. We know how much %s's care matters.",
		greeting, s.Customer.PlanCost, pet, pet)

	switch s.Offer.Variant {
	case domain.OfferBridgePlusFlexibility:
		return fmt.Sprintf("%s Would you prefer Option A, a 14-day payment extension on Premium, or Option B, our $%.0f/month Bridge Plan that keeps records and telehealth active?",
			opening, bridgePrice)
	case domain.OfferExtensionOnly:
		return opening + " We can extend your payment date by 14 days so nothing changes in the meantime. Would that help?"
	case domain.OfferBridgeCritical:
		return fmt.Sprintf("%s Our $%.0f/month Bridge Plan keeps %s's records and 24/7 telehealth active while things get back on track. Would you like to hear more?",
			opening, bridgePrice, pet)
	case domain.OfferFlexiblePayment:
		return opening + " We can split the payment or move the due date to a day that works better for you. Would you like to set that up?"
	case domain.OfferStandardRetryDeadline:
		return opening + " We'll retry the payment in a few days. Please make sure your card details are up to date before then."
	}

	return opening
}

func petName(c domain.CustomerContext) string {
	if c.PetName == "" {
		return "your pet"
	}

	return c.PetName
}

type Service struct {
	generator   Generator
	bridgePrice float64
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	if !cfg.OpenAI.Enabled {
		slog.Info("Reply generation disabled, using canned messages")
		return NewService(nil, cfg.Billing.BridgePrice), nil
	}

	model, err := llm.New(cfg.OpenAI.Generator, "generator")
	if err != nil {
		return nil, err
	}

	return NewService(NewLLMGenerator(model, cfg.OpenAI.Generator), cfg.Billing.BridgePrice), nil
}

// NewService accepts a nil generator, in which case every message is canned.
func NewService(generator Generator, bridgePrice float64) *Service {
	return &Service{
		generator:   generator,
		bridgePrice: bridgePrice,
	}
}

// Compose writes the next message for the session. It never fails.
func (s *Service) Compose(ctx context.Context, strategy domain.Strategy, session *domain.Session) string {
	snapshot := session.Clone()

	if s.generator == nil {
		return Canned(strategy, snapshot, s.bridgePrice)
	}

	text, err := s.generator.Generate(ctx, GenerateRequest{
		Strategy:    strategy,
		Session:     snapshot,
		BridgePrice: s.bridgePrice,
	})
	if err != nil || text == "" {
		slog.Warn("Reply generation failed, using canned message",
			slog.String("strategy", strategy.String()),
			slog.Any("error", err),
		)
		return Canned(strategy, snapshot, s.bridgePrice)
	}

	return text
}
