package llm

import (
	"context"
	"fmt"
)

// NewProvider creates a Provider from configuration, wrapped with request
// recording. Retry and backoff live in the orchestrator, not here: the
// tutoring turn owns its own retry budget.
func NewProvider(ctx context.Context, cfg Config, recorder RequestRecorder) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	if recorder != nil {
		return WithLogging(base, cfg.Provider, recorder), nil
	}
	return base, nil
}
