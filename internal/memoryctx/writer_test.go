package memoryctx

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/persona_chatbot/internal/memtag"
	"github.com/lewisedginton/persona_chatbot/internal/supermemory"
	"github.com/lewisedginton/persona_chatbot/pkg/logger"
)

func newTestLogger() logger.Logger {
	return logger.NewLogger(logger.Config{
		Level:  logger.DebugLevel,
		Output: io.Discard,
	})
}

type addCall struct {
	content string
	scope   string
}

// fakeProvider records calls and can fail per scope or entirely.
type fakeProvider struct {
	mu         sync.Mutex
	adds       []addCall
	failScopes map[string]bool
	searchFn   func(query, scope string, limit int) ([]supermemory.Result, error)
	profileFn  func(scope, query string) (supermemory.Profile, error)
}

func (f *fakeProvider) Add(_ context.Context, content, scope string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failScopes[scope] {
		return errors.New("add failed")
	}
	f.adds = append(f.adds, addCall{content: content, scope: scope})
	return nil
}

func (f *fakeProvider) Search(_ context.Context, query, scope string, limit int) ([]supermemory.Result, error) {
	if f.searchFn != nil {
		return f.searchFn(query, scope, limit)
	}
	return nil, nil
}

func (f *fakeProvider) Profile(_ context.Context, scope, query string) (supermemory.Profile, error) {
	if f.profileFn != nil {
		return f.profileFn(scope, query)
	}
	return supermemory.Profile{}, nil
}

func (f *fakeProvider) addedScopes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	scopes := make([]string, 0, len(f.adds))
	for _, a := range f.adds {
		scopes = append(scopes, a.scope)
	}
	sort.Strings(scopes)
	return scopes
}

func newTestWriter(provider supermemory.Provider) *Writer {
	log := newTestLogger()
	client := supermemory.NewClientWithProvider(provider, log)
	tags := memtag.NewDeriver("default", nil)
	return NewWriter(client, tags, log)
}

func disabledClient() *supermemory.Client {
	return supermemory.NewClient(nil, newTestLogger())
}

func TestRecordTurnWritesBothScopes(t *testing.T) {
	provider := &fakeProvider{}
	w := newTestWriter(provider)

	stored := w.RecordTurn(context.Background(), "u1", "c1", "hello", "user")

	assert.True(t, stored)
	assert.Equal(t, []string{"default_user_u1", "default_user_u1_conv_c1"}, provider.addedScopes())
	for _, a := range provider.adds {
		assert.Equal(t, "[USER] hello", a.content)
	}
}

func TestRecordTurnAssistantPrefix(t *testing.T) {
	provider := &fakeProvider{}
	w := newTestWriter(provider)

	w.RecordTurn(context.Background(), "u1", "c1", "sure, here is how", "assistant")

	require.NotEmpty(t, provider.adds)
	assert.Equal(t, "[ASSISTANT] sure, here is how", provider.adds[0].content)
}

func TestRecordTurnOneScopeFailureDoesNotStopOther(t *testing.T) {
	provider := &fakeProvider{failScopes: map[string]bool{"default_user_u1": true}}
	w := newTestWriter(provider)

	stored := w.RecordTurn(context.Background(), "u1", "c1", "hello", "user")

	assert.True(t, stored, "a failed add must not fail the operation")
	assert.Equal(t, []string{"default_user_u1_conv_c1"}, provider.addedScopes())
}

func TestRecordTurnUnavailableClient(t *testing.T) {
	w := NewWriter(disabledClient(), memtag.NewDeriver("default", nil), newTestLogger())

	stored := w.RecordTurn(context.Background(), "u1", "c1", "hello", "user")
	assert.False(t, stored)
}

func TestStorePreference(t *testing.T) {
	provider := &fakeProvider{}
	w := newTestWriter(provider)

	ok := w.StorePreference(context.Background(), "u1", "diet", "vegetarian")

	assert.True(t, ok)
	require.Len(t, provider.adds, 1)
	assert.Equal(t, "diet: vegetarian", provider.adds[0].content)
	assert.Equal(t, "default_user_u1_prefs", provider.adds[0].scope)
}

func TestPreferencesParsing(t *testing.T) {
	provider := &fakeProvider{
		searchFn: func(_, scope string, limit int) ([]supermemory.Result, error) {
			assert.Equal(t, "default_user_u1_prefs", scope)
			assert.Equal(t, 50, limit)
			return []supermemory.Result{
				{Content: "diet: vegetarian"},
				{Content: "timezone: Europe/London"},
				{Content: "not a preference"},
			}, nil
		},
	}
	w := newTestWriter(provider)

	prefs := w.Preferences(context.Background(), "u1")

	assert.Equal(t, map[string]string{
		"diet":     "vegetarian",
		"timezone": "Europe/London",
	}, prefs)
}

func TestPreferencesSearchErrorReturnsNil(t *testing.T) {
	provider := &fakeProvider{
		searchFn: func(_, _ string, _ int) ([]supermemory.Result, error) {
			return nil, errors.New("provider down")
		},
	}
	w := newTestWriter(provider)

	assert.Nil(t, w.Preferences(context.Background(), "u1"))
}

func TestStoreRoleKnowledge(t *testing.T) {
	provider := &fakeProvider{}
	w := newTestWriter(provider)

	ok := w.StoreRoleKnowledge(context.Background(), "7", "speaks in questions")

	assert.True(t, ok)
	require.Len(t, provider.adds, 1)
	assert.Equal(t, "default_role_7", provider.adds[0].scope)
}

func TestStoreConversationSummary(t *testing.T) {
	provider := &fakeProvider{}
	w := newTestWriter(provider)

	ok := w.StoreConversationSummary(context.Background(), "u1", "c1", "discussed hiking trails")

	assert.True(t, ok)
	require.Len(t, provider.adds, 1)
	assert.Equal(t, "[CONVERSATION_SUMMARY] discussed hiking trails", provider.adds[0].content)
	assert.Equal(t, "default_user_u1_conv_c1", provider.adds[0].scope)
}
