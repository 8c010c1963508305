package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/clock"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is an in-process Store for single-node deployments and tests.
// Expired entries are dropped lazily on read.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string]memoryEntry
	clock    clock.Clock
	maxValue int
}

func NewMemoryStore(clk clock.Clock, maxValueSize int) *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]memoryEntry),
		clock:    clk,
		maxValue: maxValueSize,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if m.clock.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return "", false, nil
	}
	return entry.value, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if m.maxValue > 0 && len(value) > m.maxValue {
		return ErrValueTooLarge
	}
	m.mu.Lock()
	m.entries[key] = memoryEntry{
		value:     value,
		expiresAt: m.clock.Now().Add(ttl),
	}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
