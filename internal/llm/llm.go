// Package llm defines the completion-provider contract. Providers live in
// subpackages and translate the neutral message shape into their SDK's
// request types.
package llm

import "context"

// Message roles as sent to the completion provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in the outbound message sequence.
type Message struct {
	Role    string
	Content string
}

// Completer produces one completion for an ordered message sequence.
type Completer interface {
	Complete(ctx context.Context, model string, messages []Message) (string, error)
}
