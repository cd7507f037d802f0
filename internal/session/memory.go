package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	state   *State
	expires time.Time
}

// MemoryStore keeps sessions in process memory. State is lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]memoryEntry
}

// NewMemoryStore creates an in-memory store; ttl <= 0 uses DefaultTTL
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int64]memoryEntry),
	}
}

// Get returns a copy of the chat's state
func (m *MemoryStore) Get(_ context.Context, chatID int64) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[chatID]
	if !ok {
		return nil, nil
	}
	if m.now().After(e.expires) {
		delete(m.entries, chatID)
		return nil, nil
	}
	return clone(e.state), nil
}

// Set stores a copy of state and refreshes its expiry
func (m *MemoryStore) Set(_ context.Context, chatID int64, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[chatID] = memoryEntry{state: clone(state), expires: m.now().Add(m.ttl)}
	return nil
}

// Clear removes the chat's state
func (m *MemoryStore) Clear(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, chatID)
	return nil
}
