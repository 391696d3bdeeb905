package memstorage

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/cnc-license-admin/internal/domain/apikey"
	"github.com/makkenzo/cnc-license-admin/internal/ierr"
)

type APIKeyRepository struct {
	mu   sync.RWMutex
	keys map[uuid.UUID]*apikey.APIKey
}

func NewAPIKeyRepository() *APIKeyRepository {
	return &APIKeyRepository{
		keys: make(map[uuid.UUID]*apikey.APIKey),
	}
}

var _ apikey.Repository = (*APIKeyRepository)(nil)

func (r *APIKeyRepository) FindByPrefix(_ context.Context, prefix string) (*apikey.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, key := range r.keys {
		if key.Prefix == prefix && key.IsEnabled {
			return cloneAPIKey(key), nil
		}
	}
	return nil, apikey.ErrAPIKeyNotFound
}

func (r *APIKeyRepository) Create(_ context.Context, key *apikey.APIKey) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.keys {
		if existing.Prefix == key.Prefix {
			return uuid.Nil, fmt.Errorf("%w: api key prefix already exists", ierr.ErrConflict)
		}
	}

	stored := cloneAPIKey(key)
	stored.ID = uuid.New()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.keys[stored.ID] = stored
	return stored.ID, nil
}

func (r *APIKeyRepository) List(_ context.Context) ([]*apikey.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*apikey.APIKey, 0, len(r.keys))
	for _, key := range r.keys {
		out = append(out, cloneAPIKey(key))
	}
	slices.SortFunc(out, func(a, b *apikey.APIKey) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (r *APIKeyRepository) Disable(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.keys[id]
	if !ok {
		return apikey.ErrAPIKeyNotFound
	}
	key.IsEnabled = false
	return nil
}

func (r *APIKeyRepository) UpdateLastUsed(_ context.Context, id uuid.UUID, lastUsed time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if key, ok := r.keys[id]; ok {
		key.LastUsedAt = &lastUsed
	}
	return nil
}

func cloneAPIKey(key *apikey.APIKey) *apikey.APIKey {
	c := *key
	c.LastUsedAt = cloneTime(key.LastUsedAt)
	return &c
}
