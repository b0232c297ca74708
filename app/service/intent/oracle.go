package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"careloop/app/client/llm"
	"careloop/app/config"
	"careloop/app/domain"

	_ "embed"

	"github.com/samber/oops"
	"github.com/tmc/langchaingo/llms"
)

//go:embed classify_prompt.txt
var classifyPromptTemplate string

const defaultOracleConfidence = 0.8

type Source string

const (
	SourceOracle   Source = "oracle"
	SourceFallback Source = "fallback"
)

type Request struct {
	Message           string
	Context           string
	LastSystemMessage string
}

type Result struct {
	Intent     domain.Intent  `json:"intent"`
	Confidence float64        `json:"confidence"`
	Entities   map[string]any `json:"entities"`
	Reasoning  string         `json:"reasoning"`
	Source     Source         `json:"source"`
}

// Oracle is an external classifier. Any error makes the caller fall back to
// keyword rules.
type Oracle interface {
	Classify(ctx context.Context, req Request) (Result, error)
}

type oracleResponse struct {
	Intent     string         `json:"intent"`
	Confidence *float64       `json:"confidence"`
	Reasoning  string         `json:"reasoning"`
	Entities   map[string]any `json:"entities"`
}

type LLMOracle struct {
	model llms.Model
	cfg   config.ModelConfig
}

func NewLLMOracle(model llms.Model, cfg config.ModelConfig) *LLMOracle {
	return &LLMOracle{
		model: model,
		cfg:   cfg,
	}
}

func (o *LLMOracle) Classify(ctx context.Context, req Request) (Result, error) {
	templateValues := map[string]any{
		"message":             req.Message,
		"context":             orNone(req.Context),
		"last_system_message": orNone(req.LastSystemMessage),
	}

	prompt := classifyPromptTemplate
	for key, value := range templateValues {
		prompt = strings.ReplaceAll(prompt, "{"+key+"}", fmt.Sprint(value))
	}

	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	opts := append(llm.CallOptions(o.cfg), llms.WithJSONMode())

	result, err := llms.GenerateFromSinglePrompt(ctx, o.model, prompt, opts...)
	if err != nil {
		return Result{}, oops.In("intent").Wrapf(err, "failed to generate classification")
	}

	return parseOracleOutput(result)
}

func parseOracleOutput(result string) (Result, error) {
	result = strings.Trim(result, "`")
	result = strings.TrimSpace(result)
	result = strings.TrimPrefix(result, "json")
	result = strings.TrimSpace(result)

	var response oracleResponse
	if err := json.Unmarshal([]byte(result), &response); err != nil {
		return Result{}, oops.In("intent").With("output", result).Wrapf(err, "failed to unmarshal classification")
	}

	parsed, ok := domain.ParseIntent(response.Intent)
	if !ok {
		return Result{}, oops.In("intent").With("intent", response.Intent).Errorf("unknown intent")
	}

	confidence := defaultOracleConfidence
	if response.Confidence != nil {
		confidence = min(max(*response.Confidence, 0), 1)
	}

	entities := response.Entities
	if entities == nil {
		entities = map[string]any{}
	}

	return Result{
		Intent:     parsed,
		Confidence: confidence,
		Entities:   entities,
		Reasoning:  response.Reasoning,
		Source:     SourceOracle,
	}, nil
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}

	return s
}
