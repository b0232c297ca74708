package intent

import (
	"context"
	"log/slog"

	"careloop/app/client/llm"
	"careloop/app/config"
	"careloop/app/domain"

	"github.com/samber/do"
)

type Classifier struct {
	oracle Oracle
}

func New(di *do.Injector) (*Classifier, error) {
	cfg := do.MustInvoke[*config.Config](di)

	if !cfg.OpenAI.Enabled {
		slog.Info("Intent oracle disabled, using keyword rules only")
		return NewClassifier(nil), nil
	}

	model, err := llm.New(cfg.OpenAI.Classifier, "classifier")
	if err != nil {
		return nil, err
	}

	return NewClassifier(NewLLMOracle(model, cfg.OpenAI.Classifier)), nil
}

// NewClassifier accepts a nil oracle, in which case every reply goes through
// keyword rules.
func NewClassifier(oracle Oracle) *Classifier {
	return &Classifier{
		oracle: oracle,
	}
}

// Classify never fails. Oracle errors and malformed output are logged and
// answered by the keyword rules.
func (c *Classifier) Classify(ctx context.Context, req Request) Result {
	result := c.classify(ctx, req)

	if result.Intent != domain.IntentAmbiguousAcceptance && IsAmbiguous(req.Message, req.LastSystemMessage) {
		slog.Debug("Bare affirmation after multi-option question",
			slog.String("initial_intent", result.Intent.String()),
			slog.String("source", string(result.Source)),
		)
		result.Reasoning = "Affirmation without naming an option after a multi-option question"
		result.Intent = domain.IntentAmbiguousAcceptance
	}

	return result
}

func (c *Classifier) classify(ctx context.Context, req Request) Result {
	if c.oracle == nil {
		return Fallback(req)
	}

	result, err := c.oracle.Classify(ctx, req)
	if err != nil {
		slog.Warn("Intent oracle failed, using keyword rules",
			slog.Any("error", err),
		)
		return Fallback(req)
	}

	if !result.Intent.Valid() {
		slog.Warn("Intent oracle returned unknown intent, using keyword rules",
			slog.String("intent", result.Intent.String()),
		)
		return Fallback(req)
	}

	result.Confidence = min(max(result.Confidence, 0), 1)
	if result.Entities == nil {
		result.Entities = map[string]any{}
	}

	return result
}
