package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lewisedginton/persona_chatbot/internal/chat"
	"github.com/lewisedginton/persona_chatbot/internal/persistence"
	"github.com/lewisedginton/persona_chatbot/internal/supermemory"
	"github.com/lewisedginton/persona_chatbot/pkg/logger"
	"github.com/lewisedginton/persona_chatbot/pkg/prefixed_uuid"
)

const defaultSearchLimit = 5

// TurnSender runs a conversation turn.
type TurnSender interface {
	SendTurn(ctx context.Context, userID, conversationID, message string) (*chat.TurnResult, error)
}

// ConversationStore is the conversation surface the handlers need.
type ConversationStore interface {
	Create(ctx context.Context, id, userID string, roleID int64, title string) (*persistence.Conversation, error)
	Get(ctx context.Context, userID, id string) (*persistence.Conversation, error)
	ListByUser(ctx context.Context, userID string) ([]persistence.Conversation, error)
	Delete(ctx context.Context, userID, id string) error
}

// MessageStore lists conversation transcripts.
type MessageStore interface {
	ListByConversation(ctx context.Context, conversationID string) ([]persistence.Message, error)
}

// RoleLister serves the persona catalog.
type RoleLister interface {
	GetByID(ctx context.Context, id int64) (*persistence.Role, error)
	List(ctx context.Context) ([]persistence.Role, error)
}

// MemorySearcher searches the memory store directly.
type MemorySearcher interface {
	SearchMemories(ctx context.Context, userID, query string, limit int, containerTag string) []supermemory.Result
}

// PreferenceStore reads and writes user preferences in the memory store.
type PreferenceStore interface {
	StorePreference(ctx context.Context, userID, key, value string) bool
	Preferences(ctx context.Context, userID string) map[string]string
	StoreRoleKnowledge(ctx context.Context, roleID, content string) bool
	StoreConversationSummary(ctx context.Context, userID, conversationID, summary string) bool
}

// Handlers holds the API endpoints.
type Handlers struct {
	turns         TurnSender
	conversations ConversationStore
	messages      MessageStore
	roles         RoleLister
	memories      MemorySearcher
	preferences   PreferenceStore
	log           logger.Logger
}

// NewHandlers creates the endpoint set.
func NewHandlers(
	turns TurnSender,
	conversations ConversationStore,
	messages MessageStore,
	roles RoleLister,
	memories MemorySearcher,
	preferences PreferenceStore,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		turns:         turns,
		conversations: conversations,
		messages:      messages,
		roles:         roles,
		memories:      memories,
		preferences:   preferences,
		log:           log,
	}
}

type messagePayload struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type conversationPayload struct {
	ID        string `json:"id"`
	RoleID    int64  `json:"role_id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toMessagePayload(msg persistence.Message) messagePayload {
	return messagePayload{
		ID:        msg.ID,
		Role:      msg.Role,
		Content:   msg.Content,
		Timestamp: msg.Timestamp.UTC().Format(time.RFC3339),
	}
}

func toConversationPayload(conv persistence.Conversation) conversationPayload {
	return conversationPayload{
		ID:        conv.ID,
		RoleID:    conv.RoleID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: conv.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// SendMessage handles POST /api/conversations/{id}/messages.
func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	conversationID := chi.URLParam(r, "id")

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.turns.SendTurn(r.Context(), identity.UserID, conversationID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, "message must not be empty")
		case errors.Is(err, persistence.ErrNotFound):
			writeError(w, http.StatusNotFound, "conversation not found")
		default:
			h.log.Error("turn failed",
				logger.ErrorField(err),
				logger.StringField("conversation_id", conversationID))
			writeError(w, http.StatusInternalServerError, "failed to generate response")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_message": toMessagePayload(result.UserMessage),
		"ai_message":   toMessagePayload(result.AssistantMessage),
	})
}

// CreateConversation handles POST /api/conversations.
func (h *Handlers) CreateConversation(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	var req struct {
		RoleID int64  `json:"role_id"`
		Title  string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.roles.GetByID(r.Context(), req.RoleID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "unknown role")
			return
		}
		h.log.Error("role lookup failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to create conversation")
		return
	}

	title := req.Title
	if title == "" {
		title = "New Conversation"
	}

	conv, err := h.conversations.Create(r.Context(),
		prefixed_uuid.New("conv").String(), identity.UserID, req.RoleID, title)
	if err != nil {
		h.log.Error("conversation create failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to create conversation")
		return
	}
	writeJSON(w, http.StatusCreated, toConversationPayload(*conv))
}

// ListConversations handles GET /api/conversations.
func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	convs, err := h.conversations.ListByUser(r.Context(), identity.UserID)
	if err != nil {
		h.log.Error("conversation list failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	payload := make([]conversationPayload, 0, len(convs))
	for _, c := range convs {
		payload = append(payload, toConversationPayload(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": payload})
}

// GetConversation handles GET /api/conversations/{id}.
func (h *Handlers) GetConversation(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	conversationID := chi.URLParam(r, "id")

	conv, err := h.conversations.Get(r.Context(), identity.UserID, conversationID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.log.Error("conversation get failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	writeJSON(w, http.StatusOK, toConversationPayload(*conv))
}

// DeleteConversation handles DELETE /api/conversations/{id}.
func (h *Handlers) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	conversationID := chi.URLParam(r, "id")

	if err := h.conversations.Delete(r.Context(), identity.UserID, conversationID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.log.Error("conversation delete failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to delete conversation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMessages handles GET /api/conversations/{id}/messages.
func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	conversationID := chi.URLParam(r, "id")

	// Ownership check before exposing the transcript.
	if _, err := h.conversations.Get(r.Context(), identity.UserID, conversationID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.log.Error("conversation get failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}

	messages, err := h.messages.ListByConversation(r.Context(), conversationID)
	if err != nil {
		h.log.Error("message list failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}

	payload := make([]messagePayload, 0, len(messages))
	for _, m := range messages {
		payload = append(payload, toMessagePayload(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": payload})
}

// ListRoles handles GET /api/roles.
func (h *Handlers) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.List(r.Context())
	if err != nil {
		h.log.Error("role list failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to list roles")
		return
	}

	type rolePayload struct {
		ID               int64  `json:"id"`
		Name             string `json:"name"`
		ShortDescription string `json:"short_description"`
		LongDescription  string `json:"long_description"`
	}
	payload := make([]rolePayload, 0, len(roles))
	for _, role := range roles {
		payload = append(payload, rolePayload{
			ID:               role.ID,
			Name:             role.Name,
			ShortDescription: role.ShortDescription,
			LongDescription:  role.LongDescription,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": payload})
}

// SearchMemories handles GET /api/memories/search.
func (h *Handlers) SearchMemories(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	results := h.memories.SearchMemories(r.Context(), identity.UserID, query,
		limit, r.URL.Query().Get("container_tag"))

	type resultPayload struct {
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	}
	payload := make([]resultPayload, 0, len(results))
	for _, res := range results {
		payload = append(payload, resultPayload{Content: res.Content, Score: res.Score})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": payload})
}

// GetPreferences handles GET /api/preferences.
func (h *Handlers) GetPreferences(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	prefs := h.preferences.Preferences(r.Context(), identity.UserID)
	if prefs == nil {
		prefs = map[string]string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"preferences": prefs})
}

// SetPreference handles POST /api/preferences.
func (h *Handlers) SetPreference(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		writeError(w, http.StatusBadRequest, "key and value are required")
		return
	}

	if !h.preferences.StorePreference(r.Context(), identity.UserID, req.Key, req.Value) {
		writeError(w, http.StatusServiceUnavailable, "memory subsystem unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StoreRoleKnowledge handles POST /api/roles/{id}/knowledge.
func (h *Handlers) StoreRoleKnowledge(w http.ResponseWriter, r *http.Request) {
	roleID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid role id")
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	if _, err := h.roles.GetByID(r.Context(), roleID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			writeError(w, http.StatusNotFound, "role not found")
			return
		}
		h.log.Error("role lookup failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to store knowledge")
		return
	}

	if !h.preferences.StoreRoleKnowledge(r.Context(), strconv.FormatInt(roleID, 10), req.Content) {
		writeError(w, http.StatusServiceUnavailable, "memory subsystem unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StoreConversationSummary handles POST /api/conversations/{id}/summary.
func (h *Handlers) StoreConversationSummary(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	conversationID := chi.URLParam(r, "id")

	var req struct {
		Summary string `json:"summary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Summary == "" {
		writeError(w, http.StatusBadRequest, "summary is required")
		return
	}

	if _, err := h.conversations.Get(r.Context(), identity.UserID, conversationID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.log.Error("conversation get failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to store summary")
		return
	}

	if !h.preferences.StoreConversationSummary(r.Context(), identity.UserID, conversationID, req.Summary) {
		writeError(w, http.StatusServiceUnavailable, "memory subsystem unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
