package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"study-ai/internal/models"
)

// TokenStore maps an OAuth state value to the session created when that
// state's authorization code was exchanged.
type TokenStore interface {
	Store(ctx context.Context, state string, session models.OAuthSession) error
	Retrieve(ctx context.Context, state string) (models.OAuthSession, error)
}

// MemoryTokenStore keeps sessions for the life of the process. Entries never
// expire and are copied on the way in and out.
type MemoryTokenStore struct {
	mu       sync.RWMutex
	sessions map[string]models.OAuthSession
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		sessions: make(map[string]models.OAuthSession),
	}
}

func (m *MemoryTokenStore) Store(_ context.Context, state string, session models.OAuthSession) error {
	if strings.TrimSpace(state) == "" {
		return fmt.Errorf("%w: state is required", ErrInput)
	}
	m.mu.Lock()
	m.sessions[state] = session.Clone()
	m.mu.Unlock()
	return nil
}

func (m *MemoryTokenStore) Retrieve(_ context.Context, state string) (models.OAuthSession, error) {
	m.mu.RLock()
	session, ok := m.sessions[state]
	m.mu.RUnlock()
	if !ok {
		return models.OAuthSession{}, ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (m *MemoryTokenStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

const redisSessionPrefix = "oauth:session:"

// RedisTokenStore shares sessions between server instances. A zero ttl keeps
// entries until they are evicted by Redis itself.
type RedisTokenStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisTokenStore(client redis.Cmdable, ttl time.Duration) *RedisTokenStore {
	return &RedisTokenStore{client: client, ttl: ttl}
}

func (r *RedisTokenStore) Store(ctx context.Context, state string, session models.OAuthSession) error {
	if strings.TrimSpace(state) == "" {
		return fmt.Errorf("%w: state is required", ErrInput)
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, redisSessionPrefix+state, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *RedisTokenStore) Retrieve(ctx context.Context, state string) (models.OAuthSession, error) {
	raw, err := r.client.Get(ctx, redisSessionPrefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.OAuthSession{}, ErrSessionNotFound
	}
	if err != nil {
		return models.OAuthSession{}, fmt.Errorf("load session: %w", err)
	}
	var session models.OAuthSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return models.OAuthSession{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}
