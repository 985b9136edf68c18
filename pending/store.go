package pending

import (
	"context"
	"sync"

	"aichef/models"
)

// Store is the session-scoped storage behind a Relay. It has two slots: the
// recipe payload and the redirect flag. Load returns nil when no payload is
// stored.
type Store interface {
	Load(ctx context.Context) (*models.PendingRecipe, error)
	Save(ctx context.Context, p models.PendingRecipe) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the slots in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	recipe   *models.Recipe
	redirect bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(context.Context) (*models.PendingRecipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recipe == nil {
		return nil, nil
	}
	return &models.PendingRecipe{Recipe: m.recipe.Clone(), Redirect: m.redirect}, nil
}

func (m *MemoryStore) Save(_ context.Context, p models.PendingRecipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := p.Recipe.Clone()
	m.recipe = &r
	m.redirect = p.Redirect
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recipe = nil
	m.redirect = false
	return nil
}
