package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"swap-corner/internal/flow"
	"swap-corner/pkg/redis"
)

// ErrSessionNotFound 会话不存在或已过期
var ErrSessionNotFound = errors.New("会话不存在或已过期")

// SessionStore 流程会话存储
type SessionStore interface {
	Get(ctx context.Context, id string) (*flow.Session, error)
	Save(ctx context.Context, sess flow.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// ── Redis 实现 ──

type redisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore 会话以 JSON 存入 Redis，每次写入刷新 TTL
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func (s *redisSessionStore) Get(ctx context.Context, id string) (*flow.Session, error) {
	data, err := s.client.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var sess flow.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *redisSessionStore) Save(ctx context.Context, sess flow.Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.SetSession(ctx, sess.ID, data, ttl)
}

func (s *redisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.DeleteSession(ctx, id)
}

// ── 内存实现（未配置 Redis 时） ──

type memoryEntry struct {
	session   flow.Session
	expiresAt time.Time
}

type memorySessionStore struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

// NewMemorySessionStore 进程内会话存储，过期条目在读取时清理
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{items: make(map[string]memoryEntry), now: time.Now}
}

func (s *memorySessionStore) Get(_ context.Context, id string) (*flow.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.items[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.items, id)
		return nil, ErrSessionNotFound
	}
	sess := entry.session
	return &sess, nil
}

func (s *memorySessionStore) Save(_ context.Context, sess flow.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[sess.ID] = memoryEntry{session: sess, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}
