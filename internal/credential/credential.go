// Package credential persists the session credential under a single fixed key.
package credential

import (
	"sync"
)

// Key is the storage key the bearer credential lives under.
const Key = "token"

// Store is durable storage for the credential.
//
// Load returns [shared.ErrCredentialNotFound] when nothing is stored. Delete is
// idempotent.
type Store interface {
	Load() (string, error)
	Save(value string) error
	Delete() error
}

// MemoryStore keeps the credential in process memory only.
type MemoryStore struct {
	mu    sync.Mutex
	value string
	set   bool
}

// NewMemoryStore returns a MemoryStore, optionally seeded with a credential.
func NewMemoryStore(initial string) *MemoryStore {
	return &MemoryStore{value: initial, set: initial != ""}
}

func (m *MemoryStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return "", errNotFound()
	}
	return m.value, nil
}

func (m *MemoryStore) Save(value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.set = value, true
	return nil
}

func (m *MemoryStore) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.set = "", false
	return nil
}
