// Package generate produces troubleshooting guidance with a language
// model when no stored solution can be returned directly.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/bluecomlabs/netrod/internal/config"
	"github.com/bluecomlabs/netrod/internal/logging"
)

// ErrGenerationUnavailable indicates the model backend could not be
// initialized or reached. Callers fall back to canned guidance.
var ErrGenerationUnavailable = errors.New("generation capability unavailable")

// ContextSnippet is one retrieved record injected into the prompt.
type ContextSnippet struct {
	ProblemText  string
	SolutionText string
	Score        float64
}

// Generator produces troubleshooting steps.
type Generator interface {
	// WithContext answers grounded in retrieved snippets (medium
	// confidence path).
	WithContext(ctx context.Context, query string, snippets []ContextSnippet) (string, error)

	// General answers without corpus context (low confidence path).
	General(ctx context.Context, query string) (string, error)
}

// llmGenerator runs prompts through a langchaingo model.
type llmGenerator struct {
	model  llms.Model
	opts   []llms.CallOption
	logger *logging.Logger
}

// New creates the configured generation backend.
func New(cfg config.GenerationConfig, logger *logging.Logger) (Generator, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	model, err := newModel(cfg)
	if err != nil {
		return nil, err
	}

	return &llmGenerator{
		model: model,
		opts: []llms.CallOption{
			llms.WithMaxTokens(cfg.MaxTokens),
			llms.WithTemperature(cfg.Temperature),
			llms.WithTopP(cfg.TopP),
			llms.WithRepetitionPenalty(cfg.RepetitionPenalty),
		},
		logger: logger.Named("generate"),
	}, nil
}

func newModel(cfg config.GenerationConfig) (llms.Model, error) {
	switch cfg.Provider {
	case "openai":
		apiKey := cfg.APIKey.Value()
		if apiKey == "" {
			// Self-hosted OpenAI-compatible servers accept any token.
			apiKey = "not-needed"
		}
		model, err := openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithModel(cfg.Model),
			openai.WithToken(apiKey),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: openai: %v", ErrGenerationUnavailable, err)
		}
		return model, nil

	case "ollama":
		model, err := ollama.New(
			ollama.WithServerURL(cfg.ServerURL),
			ollama.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: ollama: %v", ErrGenerationUnavailable, err)
		}
		return model, nil

	default:
		return nil, fmt.Errorf("unsupported generation provider: %q (supported: openai, ollama)", cfg.Provider)
	}
}

func (g *llmGenerator) WithContext(ctx context.Context, query string, snippets []ContextSnippet) (string, error) {
	return g.generate(ctx, contextPrompt(query, snippets))
}

func (g *llmGenerator) General(ctx context.Context, query string) (string, error) {
	return g.generate(ctx, generalPrompt(query))
}

func (g *llmGenerator) generate(ctx context.Context, prompt string) (string, error) {
	answer, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, g.opts...)
	if err != nil {
		g.logger.Warn(ctx, "generation call failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("%w: model returned empty output", ErrGenerationUnavailable)
	}
	return answer, nil
}
