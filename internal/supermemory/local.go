package supermemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/lewisedginton/persona_chatbot/pkg/logger"
	"github.com/lewisedginton/persona_chatbot/pkg/prefixed_uuid"
)

// LocalProvider is an in-process memory backend built on the chromem-go
// embedded vector database. One collection per container tag keeps scopes
// isolated the same way the remote provider does.
//
// The profile operation is not supported locally; it returns an empty
// profile, which callers already treat as "no profile".
type LocalProvider struct {
	db        *chromem.DB
	embedding chromem.EmbeddingFunc
	log       logger.Logger

	mu          sync.Mutex
	collections map[string]*chromem.Collection
}

// LocalConfig holds configuration for the local provider.
type LocalConfig struct {
	// Embedding computes document embeddings. Defaults to the OpenAI
	// embedding endpoint using APIKey.
	Embedding chromem.EmbeddingFunc
	APIKey    string
	Logger    logger.Logger
}

// NewLocalProvider creates an in-process provider.
func NewLocalProvider(cfg LocalConfig) (*LocalProvider, error) {
	embedding := cfg.Embedding
	if embedding == nil {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embedding function or API key is required")
		}
		embedding = chromem.NewEmbeddingFuncOpenAI(cfg.APIKey, chromem.EmbeddingModelOpenAI3Small)
	}

	return &LocalProvider{
		db:          chromem.NewDB(),
		embedding:   embedding,
		log:         cfg.Logger,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

func (p *LocalProvider) collection(scope string) (*chromem.Collection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if col, ok := p.collections[scope]; ok {
		return col, nil
	}

	col, err := p.db.GetOrCreateCollection(scope, nil, p.embedding)
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	p.collections[scope] = col
	return col, nil
}

// Add stores content under the given scope.
func (p *LocalProvider) Add(ctx context.Context, content, scope string) error {
	col, err := p.collection(scope)
	if err != nil {
		return err
	}

	doc := chromem.Document{
		ID:      prefixed_uuid.New("mem").String(),
		Content: content,
		Metadata: map[string]string{
			"container_tag": scope,
			"created_at":    time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Search returns memories matching the query within the given scope.
func (p *LocalProvider) Search(ctx context.Context, query, scope string, limit int) ([]Result, error) {
	col, err := p.collection(scope)
	if err != nil {
		return nil, err
	}

	// chromem requires nResults <= number of stored documents.
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	matches, err := col.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{Content: m.Content, Score: float64(m.Similarity)})
	}
	return results, nil
}

// Profile is unsupported for the local backend and returns an empty profile.
func (p *LocalProvider) Profile(_ context.Context, _, _ string) (Profile, error) {
	return Profile{}, nil
}
