package memoryctx

import (
	"context"
	"strings"
	"sync"

	"github.com/lewisedginton/persona_chatbot/internal/memtag"
	"github.com/lewisedginton/persona_chatbot/internal/supermemory"
	"github.com/lewisedginton/persona_chatbot/pkg/logger"
)

const (
	conversationSearchLimit = 10
	userHistoryLimit        = 5
)

// Reader assembles memory context for outbound prompts.
type Reader struct {
	client *supermemory.Client
	tags   *memtag.Deriver
	log    logger.Logger
}

// NewReader creates a memory reader.
func NewReader(client *supermemory.Client, tags *memtag.Deriver, log logger.Logger) *Reader {
	return &Reader{
		client: client,
		tags:   tags,
		log:    log,
	}
}

// EnhancedContext retrieves the user profile, conversation-scoped excerpts
// and user-global excerpts for the query and merges them into one text
// block. The three retrievals run concurrently; each is failure-isolated,
// so a slow or broken one degrades to an empty section. Section order is
// fixed regardless of completion order. Returns "" when nothing was found.
func (r *Reader) EnhancedContext(ctx context.Context, userID, conversationID, query string, includeProfile, includeConversation bool) string {
	provider, ok := r.client.Get()
	if !ok {
		return ""
	}

	userScope := r.tags.User(ctx, userID)
	convScope := r.tags.Conversation(ctx, userID, conversationID)

	var (
		wg          sync.WaitGroup
		profile     supermemory.Profile
		convContext string
		userHistory string
	)

	if includeProfile {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := provider.Profile(ctx, userScope, query)
			if err != nil {
				r.log.Debug("profile retrieval failed", logger.ErrorField(err))
				return
			}
			profile = p
		}()
	}

	if includeConversation {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := provider.Search(ctx, query, convScope, conversationSearchLimit)
			if err != nil {
				r.log.Debug("conversation search failed", logger.ErrorField(err))
				return
			}
			convContext = joinContents(results)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		results, err := provider.Search(ctx, query, userScope, userHistoryLimit)
		if err != nil {
			r.log.Debug("user history search failed", logger.ErrorField(err))
			return
		}
		userHistory = joinContents(results)
	}()

	wg.Wait()

	var sections []string
	if profile.Static != "" {
		sections = append(sections, "User Profile (Static): "+profile.Static)
	}
	if profile.Dynamic != "" {
		sections = append(sections, "User Profile (Dynamic): "+profile.Dynamic)
	}
	if convContext != "" {
		sections = append(sections, "Previous Conversation Context:\n"+convContext)
	}
	if userHistory != "" {
		sections = append(sections, "Relevant User History:\n"+userHistory)
	}
	return strings.Join(sections, "\n\n")
}

// SearchMemories searches a single scope. If containerTag is empty, the
// user-global scope is derived and searched. Provider errors yield an empty
// list, never an error.
func (r *Reader) SearchMemories(ctx context.Context, userID, query string, limit int, containerTag string) []supermemory.Result {
	provider, ok := r.client.Get()
	if !ok {
		return nil
	}

	scope := containerTag
	if scope == "" {
		scope = r.tags.User(ctx, userID)
	}

	results, err := provider.Search(ctx, query, scope, limit)
	if err != nil {
		r.log.Warn("memory search failed",
			logger.ErrorField(err),
			logger.StringField("scope", scope))
		return nil
	}
	return results
}

func joinContents(results []supermemory.Result) string {
	parts := make([]string, 0, len(results))
	for _, res := range results {
		if res.Content != "" {
			parts = append(parts, res.Content)
		}
	}
	return strings.Join(parts, "\n")
}
