package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"NewsDesk/internal/config"
	"NewsDesk/internal/ports"
)

const defaultClaudeMaxTokens = 4096

// ClaudeRewriter implements ports.Rewriter on the Anthropic Messages API.
type ClaudeRewriter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

var _ ports.Rewriter = (*ClaudeRewriter)(nil)

// NewClaudeRewriter builds a rewriter from configuration.
func NewClaudeRewriter(cfg config.ClaudeConfig) (*ClaudeRewriter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("claude api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("claude model is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}

	return &ClaudeRewriter{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: maxTokens,
	}, nil
}

// Rewrite sends the article to Claude and parses the JSON reply.
func (c *ClaudeRewriter) Rewrite(ctx context.Context, title, body string) (*ports.Rewrite, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: defaultSystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(title, body))),
		},
		Temperature: anthropic.Float(0.4),
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude api call failed: %w", err)
	}
	if resp.StopReason == "refusal" {
		return nil, nil
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, ErrEmptyResponse
	}

	model := string(resp.Model)
	if model == "" {
		model = c.model
	}
	return parseRewrite(text.String(), model)
}
