package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Memory is an in-process Cache used in tests and as a degraded-mode stand-in
// when Redis is unavailable. Expiry is checked at read time; expired entries
// are evicted lazily or by the optional eviction timer.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	clock   clockwork.Clock
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func NewMemory(clock clockwork.Clock) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		clock:   clock,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if m.clock.Now().After(entry.expiresAt) {
		// Expired entry, treat as absent. Eviction happens separately
		// because we only hold the read lock here.
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: m.clock.Now().Add(ttl),
	}
	return nil
}

func (m *Memory) DeleteByPrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

// Size returns the current number of entries (including expired ones).
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// EvictExpired removes all expired entries and returns the count evicted.
func (m *Memory) EvictExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	evicted := 0
	for key, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, key)
			evicted++
		}
	}
	return evicted
}

// StartEvictionTimer starts a background goroutine that periodically evicts
// expired entries. Returns a stop function.
func (m *Memory) StartEvictionTimer(interval time.Duration) func() {
	ticker := m.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.Chan():
				m.EvictExpired()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}
