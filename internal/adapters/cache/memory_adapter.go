package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
)

// ErrCapacityExceeded is returned when a MemoryAdapter is full
var ErrCapacityExceeded = fmt.Errorf("memory cache capacity exceeded")

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// MemoryAdapter is a process-local CacheProvider used when Redis is not
// configured. It mimics a storage quota through maxEntries.
type MemoryAdapter struct {
	mu         sync.Mutex
	items      map[string]memoryItem
	maxEntries int
	now        func() time.Time
}

// NewMemoryAdapter creates an in-memory durable tier. maxEntries <= 0 means
// unbounded.
func NewMemoryAdapter(maxEntries int) *MemoryAdapter {
	return &MemoryAdapter{
		items:      make(map[string]memoryItem),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

var _ providers.CacheProvider = (*MemoryAdapter)(nil)

// Get retrieves a value from cache
func (m *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	}
	if !m.now().Before(item.expiresAt) {
		delete(m.items, key)
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	}
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

// Set stores a value in cache with expiration
func (m *MemoryAdapter) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	if expiration <= 0 {
		return fmt.Errorf("refusing to store %s without expiration", key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictExpiredLocked()
	if _, exists := m.items[key]; !exists && m.maxEntries > 0 && len(m.items) >= m.maxEntries {
		return ErrCapacityExceeded
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	m.items[key] = memoryItem{value: stored, expiresAt: m.now().Add(expiration)}
	return nil
}

// Delete removes a value from cache
func (m *MemoryAdapter) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Exists checks if a live key exists in cache
func (m *MemoryAdapter) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[key]
	return ok && m.now().Before(item.expiresAt), nil
}

func (m *MemoryAdapter) evictExpiredLocked() {
	now := m.now()
	for k, item := range m.items {
		if !now.Before(item.expiresAt) {
			delete(m.items, k)
		}
	}
}
