// Package csrf issues one-time form tokens bound to a login session.
//
// Each session holds at most one live token: issuing a new one replaces the
// previous, and a token is deleted the moment it is successfully used.
package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenBytes = 32

var ErrInvalidToken = errors.New("invalid csrf token")

// Store persists the live token of each session.
type Store interface {
	Set(ctx context.Context, sessionID, token string, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (string, error)
	// CompareAndDelete removes the stored token only if it still equals token.
	CompareAndDelete(ctx context.Context, sessionID, token string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}

type Manager struct {
	store Store
	ttl   time.Duration
}

func NewManager(store Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{store: store, ttl: ttl}
}

// Issue creates a fresh token for the session, replacing any earlier one.
func (m *Manager) Issue(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrInvalidToken
	}
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(b)
	if err := m.store.Set(ctx, sessionID, token, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Consume validates token and invalidates it. Any failure, including a
// concurrent use of the same token, yields ErrInvalidToken; store errors are
// returned as-is.
func (m *Manager) Consume(ctx context.Context, sessionID, token string) error {
	if sessionID == "" || token == "" {
		return ErrInvalidToken
	}
	stored, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		return ErrInvalidToken
	}
	ok, err := m.store.CompareAndDelete(ctx, sessionID, stored)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidToken
	}
	return nil
}

// Revoke drops the session's token, e.g. on logout.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, sessionID)
}

var compareAndDelete = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisStore keeps tokens under csrf:<session id>.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func key(sessionID string) string { return "csrf:" + sessionID }

func (s *RedisStore) Set(ctx context.Context, sessionID, token string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key(sessionID), token, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (string, error) {
	v, err := s.rdb.Get(ctx, key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (s *RedisStore) CompareAndDelete(ctx context.Context, sessionID, token string) (bool, error) {
	n, err := compareAndDelete.Run(ctx, s.rdb, []string{key(sessionID)}, token).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, key(sessionID)).Err()
}
