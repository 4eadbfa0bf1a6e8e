package llm

import (
	"context"
	"fmt"

	"NewsDesk/internal/config"
	"NewsDesk/internal/ports"
)

// New returns the rewriter selected by cfg.AI.Provider. It returns nil with a
// nil error when AI is disabled or the provider has no credentials, so the
// pipeline runs on the fallback path only.
func New(ctx context.Context, cfg config.Config) (ports.Rewriter, error) {
	switch cfg.AI.Provider {
	case "", config.ProviderNone:
		return nil, nil
	case config.ProviderChatGPT:
		if cfg.ChatGPT.APIKey == "" {
			return nil, nil
		}
		return NewChatGPTRewriter(cfg.ChatGPT, cfg.AI.Timeout), nil
	case config.ProviderClaude:
		if cfg.Claude.APIKey == "" {
			return nil, nil
		}
		rw, err := NewClaudeRewriter(cfg.Claude)
		if err != nil {
			return nil, err
		}
		return rw, nil
	case config.ProviderGemini:
		if cfg.Gemini.APIKey == "" {
			return nil, nil
		}
		rw, err := NewGeminiRewriter(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		return rw, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.AI.Provider)
	}
}
