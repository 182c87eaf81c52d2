// Package memoryctx implements the memory write and read paths: recording
// turns into the memory store and assembling retrieved context for the
// prompt builder. Every operation here is best-effort; the memory subsystem
// being down never fails a chat turn.
package memoryctx

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/lewisedginton/persona_chatbot/internal/memtag"
	"github.com/lewisedginton/persona_chatbot/internal/supermemory"
	"github.com/lewisedginton/persona_chatbot/pkg/logger"
)

const (
	preferencesQuery = "preferences"
	preferencesLimit = 50

	summaryPrefix = "[CONVERSATION_SUMMARY] "
)

// Writer records content into the memory store.
type Writer struct {
	client *supermemory.Client
	tags   *memtag.Deriver
	log    logger.Logger
}

// NewWriter creates a memory writer.
func NewWriter(client *supermemory.Client, tags *memtag.Deriver, log logger.Logger) *Writer {
	return &Writer{
		client: client,
		tags:   tags,
		log:    log,
	}
}

// RecordTurn writes one message into both the user-global and the
// conversation scope. The two adds run concurrently and are individually
// wrapped: one scope failing does not stop the other and does not fail the
// operation. Returns true when the memory client was available, regardless
// of whether either add succeeded.
func (w *Writer) RecordTurn(ctx context.Context, userID, conversationID, content, role string) bool {
	provider, ok := w.client.Get()
	if !ok {
		return false
	}

	formatted := fmt.Sprintf("[%s] %s", strings.ToUpper(role), content)
	scopes := []string{
		w.tags.User(ctx, userID),
		w.tags.Conversation(ctx, userID, conversationID),
	}

	var wg sync.WaitGroup
	for _, scope := range scopes {
		wg.Add(1)
		go func(scope string) {
			defer wg.Done()
			if err := provider.Add(ctx, formatted, scope); err != nil {
				w.log.Warn("memory add failed",
					logger.ErrorField(err),
					logger.StringField("scope", scope))
			}
		}(scope)
	}
	wg.Wait()
	return true
}

// StorePreference records a single key/value preference in the user's
// preferences scope.
func (w *Writer) StorePreference(ctx context.Context, userID, key, value string) bool {
	provider, ok := w.client.Get()
	if !ok {
		return false
	}

	scope := w.tags.Preferences(ctx, userID)
	if err := provider.Add(ctx, fmt.Sprintf("%s: %s", key, value), scope); err != nil {
		w.log.Warn("preference add failed",
			logger.ErrorField(err),
			logger.StringField("scope", scope))
		return false
	}
	return true
}

// Preferences returns the user's stored preferences as key/value pairs.
// Records that do not parse as "key: value" are skipped.
func (w *Writer) Preferences(ctx context.Context, userID string) map[string]string {
	provider, ok := w.client.Get()
	if !ok {
		return nil
	}

	scope := w.tags.Preferences(ctx, userID)
	results, err := provider.Search(ctx, preferencesQuery, scope, preferencesLimit)
	if err != nil {
		w.log.Warn("preference search failed",
			logger.ErrorField(err),
			logger.StringField("scope", scope))
		return nil
	}

	prefs := make(map[string]string, len(results))
	for _, r := range results {
		key, value, found := strings.Cut(r.Content, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key != "" {
			prefs[key] = value
		}
	}
	return prefs
}

// StoreRoleKnowledge records shared background knowledge for a role. Role
// scopes are global, not per user.
func (w *Writer) StoreRoleKnowledge(ctx context.Context, roleID, content string) bool {
	provider, ok := w.client.Get()
	if !ok {
		return false
	}

	scope := w.tags.Role(roleID)
	if err := provider.Add(ctx, content, scope); err != nil {
		w.log.Warn("role knowledge add failed",
			logger.ErrorField(err),
			logger.StringField("scope", scope))
		return false
	}
	return true
}

// StoreConversationSummary records a prefixed summary in the conversation's
// own scope, alongside the raw turns it condenses.
func (w *Writer) StoreConversationSummary(ctx context.Context, userID, conversationID, summary string) bool {
	provider, ok := w.client.Get()
	if !ok {
		return false
	}

	scope := w.tags.Conversation(ctx, userID, conversationID)
	if err := provider.Add(ctx, summaryPrefix+summary, scope); err != nil {
		w.log.Warn("summary add failed",
			logger.ErrorField(err),
			logger.StringField("scope", scope))
		return false
	}
	return true
}
