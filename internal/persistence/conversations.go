package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lewisedginton/persona_chatbot/pkg/logger"
)

// ConversationRepository provides access to conversation records. All reads
// are scoped by the owning user: a conversation is never visible to anyone
// but its owner.
type ConversationRepository struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *pgxpool.Pool, logger logger.Logger) *ConversationRepository {
	return &ConversationRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a conversation owned by userID, bound to roleID for its
// lifetime.
func (r *ConversationRepository) Create(ctx context.Context, id, userID string, roleID int64, title string) (*Conversation, error) {
	var conv Conversation
	err := r.db.QueryRow(ctx,
		`INSERT INTO conversations (id, user_id, role_id, title)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, user_id, role_id, title, created_at, updated_at`,
		id, userID, roleID, title,
	).Scan(&conv.ID, &conv.UserID, &conv.RoleID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create conversation", logger.ErrorField(err), logger.StringField("user_id", userID))
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return &conv, nil
}

// Get returns the conversation with the given ID if it is owned by userID.
func (r *ConversationRepository) Get(ctx context.Context, userID, id string) (*Conversation, error) {
	var conv Conversation
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, role_id, title, created_at, updated_at
		 FROM conversations WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&conv.ID, &conv.UserID, &conv.RoleID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &conv, nil
}

// ListByUser returns the user's conversations, most recently updated first.
func (r *ConversationRepository) ListByUser(ctx context.Context, userID string) ([]Conversation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, role_id, title, created_at, updated_at
		 FROM conversations WHERE user_id = $1 ORDER BY updated_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []Conversation
	for rows.Next() {
		var conv Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.RoleID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return conversations, nil
}

// UpdateTitle sets the conversation title.
func (r *ConversationRepository) UpdateTitle(ctx context.Context, id, title string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE conversations SET title = $2, updated_at = now() WHERE id = $1`,
		id, title)
	if err != nil {
		return fmt.Errorf("update conversation title: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Touch bumps the conversation's updated timestamp, marking recency for
// listing order.
func (r *ConversationRepository) Touch(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE conversations SET updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the conversation (and, via cascade, its messages) if it is
// owned by userID.
func (r *ConversationRepository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM conversations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
