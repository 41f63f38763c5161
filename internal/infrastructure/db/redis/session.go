package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deadwick/feedback-service/internal/core/domain"
)

const defaultSessionTTL = 24 * time.Hour

// SessionStore keeps server-side sessions in Redis.
// Key format: session:<sid>
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

// For returns the persisted-session slot for one session id.
func (s *SessionStore) For(sid string) *SessionKey {
	return &SessionKey{store: s, key: sessionKey(sid)}
}

// SessionKey is a single session's slot. It satisfies session.Persister.
type SessionKey struct {
	store *SessionStore
	key   string
}

// Save writes the identity; the key expires after the store TTL.
func (k *SessionKey) Save(ctx context.Context, identity domain.Identity) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := k.store.client.Set(ctx, k.key, raw, k.store.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns (nil, nil) when the key is missing or expired.
func (k *SessionKey) Load(ctx context.Context) (*domain.Identity, error) {
	raw, err := k.store.client.Get(ctx, k.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var identity domain.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &identity, nil
}

func (k *SessionKey) Clear(ctx context.Context) error {
	if err := k.store.client.Del(ctx, k.key).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func sessionKey(sid string) string {
	return "session:" + sid
}
