package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lewisedginton/persona_chatbot/pkg/logger"
	"github.com/lewisedginton/persona_chatbot/pkg/prefixed_uuid"
)

// MessageRepository provides access to message records. Messages are
// append-only: there is no update or delete path.
type MessageRepository struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *pgxpool.Pool, logger logger.Logger) *MessageRepository {
	return &MessageRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends an immutable message to a conversation.
func (r *MessageRepository) Create(ctx context.Context, conversationID, role, content string) (*Message, error) {
	msg := Message{
		ID:             prefixed_uuid.New("msg").String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Timestamp:      time.Now().UTC(),
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, timestamp)
		 VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.Timestamp)
	if err != nil {
		r.logger.Error("failed to create message",
			logger.ErrorField(err),
			logger.StringField("conversation_id", conversationID),
			logger.StringField("role", role))
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &msg, nil
}

// ListByConversation returns the conversation transcript in ascending
// timestamp order.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, conversation_id, role, content, timestamp
		 FROM messages WHERE conversation_id = $1 ORDER BY timestamp`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// CountByConversation returns how many messages the conversation has.
func (r *MessageRepository) CountByConversation(ctx context.Context, conversationID string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM messages WHERE conversation_id = $1`,
		conversationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}
