package kick

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const stateTTL = 10 * time.Minute

// MemoryStateStore is an in-process StateStore for single-node deployments
// and tests. Production uses the Redis-backed store so state survives
// process restarts and multiple replicas.
type MemoryStateStore struct {
	clock clockwork.Clock

	mu     sync.Mutex
	states map[string]time.Time
}

func NewMemoryStateStore(clock clockwork.Clock) *MemoryStateStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStateStore{
		clock:  clock,
		states: make(map[string]time.Time),
	}
}

func (s *MemoryStateStore) Issue(_ context.Context) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	state := hex.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state] = s.clock.Now().Add(stateTTL)
	return state, nil
}

func (s *MemoryStateStore) Consume(_ context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expires, ok := s.states[state]
	if !ok {
		return false, nil
	}
	delete(s.states, state)

	if s.clock.Now().After(expires) {
		return false, nil
	}
	return true, nil
}
