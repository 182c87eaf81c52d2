package supermemory

import (
	"context"
	"math"
	"testing"

	chromem "github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEmbedding is a deterministic, network-free embedding based on byte
// trigram counts, good enough to exercise storage and retrieval.
func testEmbedding(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 64)
	for i := 0; i+2 < len(text); i++ {
		h := int(text[i])*31*31 + int(text[i+1])*31 + int(text[i+2])
		vec[h%len(vec)]++
	}
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	norm = float32(math.Sqrt(float64(norm)))
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

func newTestLocal(t *testing.T) *LocalProvider {
	t.Helper()
	provider, err := NewLocalProvider(LocalConfig{
		Embedding: chromem.EmbeddingFunc(testEmbedding),
		Logger:    newTestLogger(),
	})
	require.NoError(t, err)
	return provider
}

func TestNewLocalProviderRequiresEmbeddingOrKey(t *testing.T) {
	_, err := NewLocalProvider(LocalConfig{Logger: newTestLogger()})
	assert.Error(t, err)
}

func TestLocalAddAndSearch(t *testing.T) {
	provider := newTestLocal(t)
	ctx := context.Background()

	require.NoError(t, provider.Add(ctx, "[USER] I love hiking in the mountains", "scope_a"))
	require.NoError(t, provider.Add(ctx, "[USER] My favourite food is ramen", "scope_a"))

	results, err := provider.Search(ctx, "hiking in the mountains", "scope_a", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "[USER] I love hiking in the mountains", results[0].Content)
}

func TestLocalSearchScopesAreIsolated(t *testing.T) {
	provider := newTestLocal(t)
	ctx := context.Background()

	require.NoError(t, provider.Add(ctx, "secret fact", "scope_a"))

	results, err := provider.Search(ctx, "secret fact", "scope_b", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLocalSearchClampsLimit(t *testing.T) {
	provider := newTestLocal(t)
	ctx := context.Background()

	require.NoError(t, provider.Add(ctx, "only one record", "scope_a"))

	// Asking for more results than stored documents must not error.
	results, err := provider.Search(ctx, "record", "scope_a", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestLocalProfileIsEmpty(t *testing.T) {
	provider := newTestLocal(t)

	profile, err := provider.Profile(context.Background(), "scope_a", "q")
	require.NoError(t, err)
	assert.Empty(t, profile.Static)
	assert.Empty(t, profile.Dynamic)
}
