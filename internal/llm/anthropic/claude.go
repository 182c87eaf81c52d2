// Package anthropic adapts the Anthropic Messages API to the llm.Completer
// contract.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lewisedginton/persona_chatbot/internal/llm"
)

const defaultMaxTokens = 4000

// Client implements llm.Completer for Anthropic Claude models.
type Client struct {
	client anthropic.Client
}

// New creates a new Claude completer.
func New(apiKey string, opts ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(
		append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...,
	)

	return &Client{client: client}, nil
}

// Complete sends the message sequence and returns the concatenated text
// blocks of the response.
func (c *Client) Complete(ctx context.Context, model string, messages []llm.Message) (string, error) {
	anthropicMessages, system := transformMessages(messages)

	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: defaultMaxTokens,
		Messages:  anthropicMessages,
	}
	if system != "" {
		req.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.client.Messages.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("claude api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("claude returned no text content")
	}
	return sb.String(), nil
}
