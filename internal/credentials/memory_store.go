package credentials

import (
	"context"
	"sync"

	"github.com/notesphere/notes-gateway/internal/models"
)

type MemoryStore struct {
	lock sync.RWMutex
	pair models.CredentialPair
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(context.Context) (models.CredentialPair, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.pair, nil
}

func (m *MemoryStore) Set(_ context.Context, pair models.CredentialPair) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.pair = pair
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.pair = models.CredentialPair{}
	return nil
}
