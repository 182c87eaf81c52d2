package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lewisedginton/persona_chatbot/internal/llm"
	"github.com/lewisedginton/persona_chatbot/internal/persistence"
	"github.com/lewisedginton/persona_chatbot/pkg/logger"
)

// ErrEmptyMessage is returned when the inbound message is empty after
// trimming. It maps to a client error, not a server failure.
var ErrEmptyMessage = errors.New("message is empty")

// ConversationStore is the conversation persistence surface the service
// needs.
type ConversationStore interface {
	Get(ctx context.Context, userID, id string) (*persistence.Conversation, error)
	UpdateTitle(ctx context.Context, id, title string) error
	Touch(ctx context.Context, id string) error
}

// MessageStore is the message persistence surface the service needs.
type MessageStore interface {
	Create(ctx context.Context, conversationID, role, content string) (*persistence.Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]persistence.Message, error)
	CountByConversation(ctx context.Context, conversationID string) (int64, error)
}

// RoleStore resolves the persona a conversation is bound to.
type RoleStore interface {
	GetByID(ctx context.Context, id int64) (*persistence.Role, error)
}

// ContextProvider assembles memory context for a query. It never fails; an
// unavailable memory subsystem yields "".
type ContextProvider interface {
	EnhancedContext(ctx context.Context, userID, conversationID, query string, includeProfile, includeConversation bool) string
}

// TurnRecorder writes a turn into the memory store.
type TurnRecorder interface {
	RecordTurn(ctx context.Context, userID, conversationID, content, role string) bool
}

// TaskSubmitter dispatches background work off the request path.
type TaskSubmitter interface {
	Submit(name string, run func(ctx context.Context) error) bool
}

// Service orchestrates one conversation turn end to end.
type Service struct {
	conversations ConversationStore
	messages      MessageStore
	roles         RoleStore
	memory        ContextProvider
	recorder      TurnRecorder
	tasks         TaskSubmitter
	completer     llm.Completer
	model         string
	log           logger.Logger
}

// NewService creates the turn orchestrator.
func NewService(
	conversations ConversationStore,
	messages MessageStore,
	roles RoleStore,
	memory ContextProvider,
	recorder TurnRecorder,
	tasks TaskSubmitter,
	completer llm.Completer,
	model string,
	log logger.Logger,
) *Service {
	return &Service{
		conversations: conversations,
		messages:      messages,
		roles:         roles,
		memory:        memory,
		recorder:      recorder,
		tasks:         tasks,
		completer:     completer,
		model:         model,
		log:           log,
	}
}

// TurnResult carries both persisted messages of a completed turn.
type TurnResult struct {
	UserMessage      persistence.Message
	AssistantMessage persistence.Message
}

// SendTurn runs one turn: persist the user message, dispatch its memory
// write, assemble context, call the completion provider, persist the reply
// and dispatch its memory write. The completion call is the only fatal
// step; memory and title failures degrade and are logged.
func (s *Service) SendTurn(ctx context.Context, userID, conversationID, message string) (*TurnResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	conv, err := s.conversations.Get(ctx, userID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	role, err := s.roles.GetByID(ctx, conv.RoleID)
	if err != nil {
		return nil, fmt.Errorf("load role: %w", err)
	}

	priorCount, err := s.messages.CountByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	isFirst := priorCount == 0

	// The transcript must contain the user's turn even if everything
	// downstream fails.
	userMsg, err := s.messages.Create(ctx, conversationID, persistence.RoleUser, message)
	if err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	s.dispatchMemoryWrite(userID, conversationID, message, persistence.RoleUser)

	if isFirst {
		if err := s.conversations.UpdateTitle(ctx, conversationID, deriveTitle(message)); err != nil {
			s.log.Warn("title update failed",
				logger.ErrorField(err),
				logger.StringField("conversation_id", conversationID))
		}
	}

	memoryContext := s.memory.EnhancedContext(ctx, userID, conversationID, message, true, true)

	history, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	// The new user turn is appended by the builder; drop it from history so
	// it appears exactly once in the outbound sequence.
	history = excludeMessage(history, userMsg.ID)

	outbound := buildMessages(role.SystemPrompt, memoryContext, history, message)

	// The one fatal failure of a turn. No in-line retry.
	reply, err := s.completer.Complete(ctx, s.model, outbound)
	if err != nil {
		return nil, fmt.Errorf("completion provider: %w", err)
	}

	assistantMsg, err := s.messages.Create(ctx, conversationID, persistence.RoleAssistant, reply)
	if err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	s.dispatchMemoryWrite(userID, conversationID, reply, persistence.RoleAssistant)

	if err := s.conversations.Touch(ctx, conversationID); err != nil {
		s.log.Warn("conversation touch failed",
			logger.ErrorField(err),
			logger.StringField("conversation_id", conversationID))
	}

	return &TurnResult{
		UserMessage:      *userMsg,
		AssistantMessage: *assistantMsg,
	}, nil
}

// dispatchMemoryWrite queues a fire-and-forget memory write. Even the
// dispatch itself is non-fatal: a full queue drops the write with a log
// line.
func (s *Service) dispatchMemoryWrite(userID, conversationID, content, role string) {
	accepted := s.tasks.Submit("memory_write", func(ctx context.Context) error {
		s.recorder.RecordTurn(ctx, userID, conversationID, content, role)
		return nil
	})
	if !accepted {
		s.log.Warn("memory write dropped, queue full",
			logger.StringField("conversation_id", conversationID),
			logger.StringField("role", role))
	}
}

func excludeMessage(messages []persistence.Message, id string) []persistence.Message {
	out := messages[:0]
	for _, msg := range messages {
		if msg.ID != id {
			out = append(out, msg)
		}
	}
	return out
}
