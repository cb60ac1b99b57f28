package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Read implements Reader interface
func (m *MemoryStore) Read(ctx context.Context, key string) (*Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &e, true, nil
}

// Write implements Writer interface
func (m *MemoryStore) Write(ctx context.Context, key string, entry *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := *entry
	if e.Updated.IsZero() {
		e.Updated = time.Now()
	}
	e.Body = append([]byte(nil), entry.Body...)

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}
