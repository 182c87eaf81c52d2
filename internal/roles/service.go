package roles

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/lewisedginton/persona_chatbot/internal/persistence"
	"github.com/lewisedginton/persona_chatbot/pkg/logger"
)

const cacheTTL = 5 * time.Minute

// Store is the persistence surface the service needs.
type Store interface {
	UpsertRole(ctx context.Context, role persistence.Role) (*persistence.Role, error)
	GetByID(ctx context.Context, id int64) (*persistence.Role, error)
	GetByName(ctx context.Context, name string) (*persistence.Role, error)
	ListRoles(ctx context.Context) ([]persistence.Role, error)
	CountRoles(ctx context.Context) (int64, error)
}

// Service serves role lookups through a read-through cache. Roles change
// only on catalog sync, so a short TTL keeps the hot lookup path off the
// database without an explicit invalidation protocol.
type Service struct {
	store Store
	cache *ristretto.Cache
	log   logger.Logger
}

// NewService creates a role service.
func NewService(store Store, log logger.Logger) (*Service, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create role cache: %w", err)
	}

	return &Service{
		store: store,
		cache: cache,
		log:   log,
	}, nil
}

// GetByID returns a role, from cache when possible.
func (s *Service) GetByID(ctx context.Context, id int64) (*persistence.Role, error) {
	key := fmt.Sprintf("id:%d", id)
	if cached, ok := s.cache.Get(key); ok {
		if role, ok := cached.(*persistence.Role); ok {
			return role, nil
		}
	}

	role, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetWithTTL(key, role, 1, cacheTTL)
	return role, nil
}

// GetByName returns a role by its unique name, from cache when possible.
func (s *Service) GetByName(ctx context.Context, name string) (*persistence.Role, error) {
	key := "name:" + name
	if cached, ok := s.cache.Get(key); ok {
		if role, ok := cached.(*persistence.Role); ok {
			return role, nil
		}
	}

	role, err := s.store.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	s.cache.SetWithTTL(key, role, 1, cacheTTL)
	return role, nil
}

// List returns all roles. Listing is rare, so it always hits the store.
func (s *Service) List(ctx context.Context) ([]persistence.Role, error) {
	return s.store.ListRoles(ctx)
}

// Count returns the catalog size.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.CountRoles(ctx)
}

// SyncFromFile upserts every catalog entry from the given JSON file and
// clears the cache. Returns the number of roles synced.
func (s *Service) SyncFromFile(ctx context.Context, path string) (int, error) {
	entries, err := LoadCatalog(path)
	if err != nil {
		return 0, err
	}

	for _, e := range entries {
		_, err := s.store.UpsertRole(ctx, persistence.Role{
			Name:             e.Name,
			ShortDescription: e.ShortDescription,
			LongDescription:  e.LongDescription,
			SystemPrompt:     e.SystemPrompt,
		})
		if err != nil {
			return 0, fmt.Errorf("sync role %q: %w", e.Name, err)
		}
		s.log.Info("role synced", logger.StringField("name", e.Name))
	}

	s.cache.Clear()
	return len(entries), nil
}
