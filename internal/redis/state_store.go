package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	stateKeyPrefix = "kickwp:oauth_state:"
	stateTTL       = 10 * time.Minute
)

// StateStore issues and consumes single-use OAuth CSRF state values backed by
// Redis. Each value lives at most ten minutes and is deleted on its first
// comparison regardless of outcome.
type StateStore struct {
	rdb goredis.Cmdable
}

func NewStateStore(rdb goredis.Cmdable) *StateStore {
	return &StateStore{rdb: rdb}
}

// Issue generates a fresh state value and persists it with the state TTL.
func (s *StateStore) Issue(ctx context.Context) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate OAuth state: %w", err)
	}
	state := hex.EncodeToString(b)

	if err := s.rdb.Set(ctx, stateKeyPrefix+state, "1", stateTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to persist OAuth state: %w", err)
	}
	return state, nil
}

// Consume atomically removes the state and reports whether it was present.
// GETDEL guarantees single use even under concurrent callbacks.
func (s *StateStore) Consume(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	err := s.rdb.GetDel(ctx, stateKeyPrefix+state).Err()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to consume OAuth state: %w", err)
	}
	return true, nil
}
