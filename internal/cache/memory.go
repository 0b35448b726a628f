package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryProvider keeps rendered artefacts in process memory. Once maxEntries is reached
// the entry closest to expiry is evicted.
type MemoryProvider struct {
	mu         sync.Mutex
	data       map[string]entry
	maxEntries int
	now        func() time.Time
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryProvider creates an in-memory Provider holding at most maxEntries values.
func NewMemoryProvider(maxEntries int) *MemoryProvider {
	if maxEntries <= 0 {
		maxEntries = 128
	}
	return &MemoryProvider{
		data:       make(map[string]entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns a copy of the value if present and not expired.
func (m *MemoryProvider) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if m.expired(e) {
		delete(m.data, key)
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores a copy of value. A zero ttl keeps it until evicted.
func (m *MemoryProvider) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expires time.Time
	if ttl > 0 {
		expires = m.now().Add(ttl)
	}
	if _, ok := m.data[key]; !ok && len(m.data) >= m.maxEntries {
		m.evict()
	}
	m.data[key] = entry{value: append([]byte(nil), value...), expiresAt: expires}
	return nil
}

// Del removes an entry.
func (m *MemoryProvider) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Close drops every entry.
func (m *MemoryProvider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]entry)
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (m *MemoryProvider) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func (m *MemoryProvider) expired(e entry) bool {
	return !e.expiresAt.IsZero() && m.now().After(e.expiresAt)
}

// evict drops expired entries, or failing that the one expiring first. Caller holds mu.
func (m *MemoryProvider) evict() {
	for k, e := range m.data {
		if m.expired(e) {
			delete(m.data, k)
		}
	}
	if len(m.data) < m.maxEntries {
		return
	}

	var victim string
	var soonest time.Time
	for k, e := range m.data {
		switch {
		case victim == "":
			victim, soonest = k, e.expiresAt
		case e.expiresAt.IsZero():
		case soonest.IsZero() || e.expiresAt.Before(soonest):
			victim, soonest = k, e.expiresAt
		}
	}
	delete(m.data, victim)
}
