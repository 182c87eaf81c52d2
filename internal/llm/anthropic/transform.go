package anthropic

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/lewisedginton/persona_chatbot/internal/llm"
)

// transformMessages maps the neutral message shape onto Anthropic's request
// types. The Messages API carries the system prompt out of band, so system
// entries are collected and returned separately.
func transformMessages(messages []llm.Message) ([]anthropic.MessageParam, string) {
	out := make([]anthropic.MessageParam, 0, len(messages))
	var system string
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
		case llm.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return out, system
}
