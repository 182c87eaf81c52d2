package openai

import (
	"github.com/openai/openai-go"

	"github.com/lewisedginton/persona_chatbot/internal/llm"
)

// transformMessages maps the neutral message shape onto the OpenAI union
// types. Unknown roles are sent as user messages rather than dropped.
func transformMessages(messages []llm.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case llm.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
