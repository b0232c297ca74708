package llm

import (
	"net/http"

	"careloop/app/config"

	"github.com/samber/oops"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// New builds an OpenAI-compatible chat model for one role (classifier or
// generator).
func New(cfg config.ModelConfig, role string) (llms.Model, error) {
	model, err := openai.New(
		openai.WithToken(cfg.Token),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(&http.Client{
			Timeout: cfg.Timeout,
		}),
		openai.WithCallback(LogCallbackHandler{Role: role}),
	)
	if err != nil {
		return nil, oops.In("llm").With("role", role).With("model", cfg.Model).Wrapf(err, "failed to create client")
	}

	return model, nil
}

// CallOptions maps the model config onto langchaingo call options.
func CallOptions(cfg config.ModelConfig) []llms.CallOption {
	opts := []llms.CallOption{
		llms.WithTemperature(cfg.Temperature),
	}
	if cfg.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(cfg.MaxTokens))
	}

	return opts
}
