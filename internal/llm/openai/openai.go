// Package openai adapts the OpenAI chat completions API to the llm.Completer
// contract.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/lewisedginton/persona_chatbot/internal/llm"
)

// Client implements llm.Completer for OpenAI's GPT models.
type Client struct {
	client *openai.Client
}

// New creates a new OpenAI completer.
func New(apiKey string, opts ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := openai.NewClient(
		append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...,
	)

	return &Client{client: &client}, nil
}

// Complete sends the message sequence and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, model string, messages []llm.Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: transformMessages(messages),
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}
