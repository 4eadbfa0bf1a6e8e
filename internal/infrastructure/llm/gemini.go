package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"NewsDesk/internal/config"
	"NewsDesk/internal/ports"
)

// GeminiRewriter implements ports.Rewriter on the Gemini API.
type GeminiRewriter struct {
	client *genai.Client
	model  string
}

var _ ports.Rewriter = (*GeminiRewriter)(nil)

// NewGeminiRewriter builds a rewriter from configuration.
func NewGeminiRewriter(ctx context.Context, cfg config.GeminiConfig) (*GeminiRewriter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini model is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiRewriter{client: client, model: cfg.Model}, nil
}

// Rewrite sends the article to Gemini with a JSON response type.
func (g *GeminiRewriter) Rewrite(ctx context.Context, title, body string) (*ports.Rewrite, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0.4),
		SystemInstruction: genai.NewContentFromText(defaultSystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userPrompt(title, body)), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini api call failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		// Prompt-level blocks come back without candidates.
		return nil, nil
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, ErrEmptyResponse
	}

	model := resp.ModelVersion
	if model == "" {
		model = g.model
	}
	return parseRewrite(text, model)
}
