// Package chat implements the turn orchestration: persisting the
// transcript, assembling memory context into the outbound prompt and
// calling the completion provider.
package chat

import (
	"strings"

	"github.com/lewisedginton/persona_chatbot/internal/llm"
	"github.com/lewisedginton/persona_chatbot/internal/persistence"
)

const (
	userContextHeader = "\n\n=== USER CONTEXT ===\n"
	userContextFooter = "\n\nUse this context to provide personalized and context-aware responses. Reference relevant details naturally when appropriate."

	concisenessInstruction = "\n\nKeep responses brief and to the point when the user's input is short or simple."

	brevitySuffix = " (Please respond briefly and concisely.)"

	defaultTitle  = "New Conversation"
	titleMaxWords = 50
	titleMaxChars = 200
)

var greetings = map[string]struct{}{
	"hi":        {},
	"hello":     {},
	"hey":       {},
	"hey there": {},
	"hi there":  {},
	"greetings": {},
	"sup":       {},
	"what's up": {},
}

// isSimpleGreeting reports whether the message is a short greeting eligible
// for the transient brevity hint. Matching is case-insensitive on the
// trimmed text: an exact greeting of at most 3 tokens, or up to 4 tokens
// starting with a known greeting.
func isSimpleGreeting(message string) bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	tokens := len(strings.Fields(normalized))

	if tokens <= 3 {
		if _, ok := greetings[normalized]; ok {
			return true
		}
	}
	if tokens <= 4 {
		for g := range greetings {
			if strings.HasPrefix(normalized, g) {
				return true
			}
		}
	}
	return false
}

// enhancedSystemPrompt combines the role's system prompt with the retrieved
// memory context. The conciseness instruction is appended on every call so
// prompt shape stays stable whether or not context was found.
func enhancedSystemPrompt(systemPrompt, memoryContext string) string {
	prompt := systemPrompt
	if memoryContext != "" {
		prompt += userContextHeader + memoryContext + userContextFooter
	}
	return prompt + concisenessInstruction
}

// buildMessages assembles the full outbound sequence: the enhanced system
// prompt, the stored transcript in timestamp order, then the new user
// message. Simple greetings get a brevity suffix that exists only in this
// outbound copy, never in storage.
func buildMessages(systemPrompt, memoryContext string, history []persistence.Message, userMessage string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: enhancedSystemPrompt(systemPrompt, memoryContext),
	})

	for _, msg := range history {
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}

	outbound := userMessage
	if isSimpleGreeting(userMessage) {
		outbound += brevitySuffix
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: outbound})
	return messages
}

// deriveTitle builds a conversation title from its first message: the first
// 50 whitespace-separated words, truncated to 200 characters with an
// ellipsis if needed.
func deriveTitle(message string) string {
	words := strings.Fields(message)
	if len(words) > titleMaxWords {
		words = words[:titleMaxWords]
	}

	title := strings.Join(words, " ")
	if len(title) > titleMaxChars {
		title = title[:titleMaxChars-3] + "..."
	}
	if title == "" {
		return defaultTitle
	}
	return title
}
