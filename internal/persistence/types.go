// Package persistence implements the relational store for users,
// conversations, messages and roles on top of PostgreSQL.
package persistence

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist or is not
// visible to the requesting user.
var ErrNotFound = errors.New("record not found")

// Message role tags. These are stored verbatim and sent unchanged to the
// completion provider.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// User is a registered account. SecondaryUUID is a generated, stable
// identifier preferred over the public ID when deriving memory scopes.
type User struct {
	ID            int64     `json:"id"`
	PublicID      string    `json:"public_id"`
	SecondaryUUID uuid.UUID `json:"uuid"`
	Username      string    `json:"username"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Role is a named persona. The system prompt is the sole seed of model
// behavior for conversations using the role.
type Role struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	ShortDescription string    `json:"short_description"`
	LongDescription  string    `json:"long_description"`
	SystemPrompt     string    `json:"system_prompt"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Conversation belongs to exactly one user and one role for its lifetime.
// UpdatedAt changes on every turn and drives recency ordering.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	RoleID    int64     `json:"role_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is immutable once created. Messages are totally ordered by
// Timestamp within a conversation; that order is the canonical transcript.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}
