// pkg/sessions/memory.go
package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// memStore is the in-memory Store used for dev bring-up and tests.
type memStore struct {
	mu     sync.RWMutex
	byShop map[string]Session
}

func NewMemoryStore() Store {
	return &memStore{byShop: map[string]Session{}}
}

func (m *memStore) Upsert(ctx context.Context, shop, accessToken string, scopes []string) error {
	if shop == "" || accessToken == "" {
		return fmt.Errorf("upsert: shop and access token must be non-empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	created := time.Now().UTC()
	if prev, ok := m.byShop[shop]; ok {
		created = prev.CreatedAt
	}
	m.byShop[shop] = Session{Shop: shop, AccessToken: accessToken, Scopes: append([]string(nil), scopes...), CreatedAt: created}
	return nil
}

func (m *memStore) Lookup(ctx context.Context, shop string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.byShop[shop]; ok {
		return s, nil
	}
	return Session{}, ErrNotFound
}
