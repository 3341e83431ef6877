// Package sessionstore persists a credential client's session between
// process restarts, keyed by browser session id.
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-hr-portal/credentials"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no session is stored under a key
var ErrNotFound = errors.New("stored session not found")

// Storage saves and loads sessions
type Storage interface {
	Load(ctx context.Context, key string) (*credentials.Session, error)
	Save(ctx context.Context, key string, session *credentials.Session) error
	Remove(ctx context.Context, key string) error
}

type storedSession struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func encode(s *credentials.Session) ([]byte, error) {
	return json.Marshal(storedSession{
		UserID:       s.UserID,
		Email:        s.Email,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
	})
}

func decode(b []byte) (*credentials.Session, error) {
	var stored storedSession
	if err := json.Unmarshal(b, &stored); err != nil {
		return nil, err
	}
	return &credentials.Session{
		UserID:       stored.UserID,
		Email:        stored.Email,
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		ExpiresAt:    stored.ExpiresAt,
	}, nil
}

// Memory keeps sessions in process memory
type Memory struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

var _ Storage = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string][]byte)}
}

func (m *Memory) Load(ctx context.Context, key string) (*credentials.Session, error) {
	m.mu.RLock()
	b, ok := m.sessions[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(b)
}

func (m *Memory) Save(ctx context.Context, key string, session *credentials.Session) error {
	b, err := encode(session)
	if err != nil {
		return fmt.Errorf("[Memory.Save] %w", err)
	}
	m.mu.Lock()
	m.sessions[key] = b
	m.mu.Unlock()
	return nil
}

func (m *Memory) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.sessions, key)
	m.mu.Unlock()
	return nil
}

// Redis keeps sessions in Redis with a TTL that follows the refresh window
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ Storage = (*Redis)(nil)

func NewRedis(rdb redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(key string) string {
	return r.prefix + ":" + key
}

func (r *Redis) Load(ctx context.Context, key string) (*credentials.Session, error) {
	b, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[Redis.Load] %w", err)
	}
	return decode(b)
}

func (r *Redis) Save(ctx context.Context, key string, session *credentials.Session) error {
	b, err := encode(session)
	if err != nil {
		return fmt.Errorf("[Redis.Save] %w", err)
	}
	if err := r.rdb.Set(ctx, r.key(key), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("[Redis.Save] %w", err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("[Redis.Remove] %w", err)
	}
	return nil
}
