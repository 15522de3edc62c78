// Package session assigns and persists the opaque per-connection identity:
// a uuid plus a generated display name, keyed by a browser cookie.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/akcyp/chess-online/internal/namegen"
)

const ttlSession = 7 * 24 * time.Hour

// Data is one session's identity payload.
type Data struct {
	UserUUID string `json:"userUUID"`
	Username string `json:"username"`
}

// Store persists sessions by cookie id.
type Store interface {
	Get(ctx context.Context, sid string) (*Data, error)
	Put(ctx context.Context, sid string, data *Data) error
}

// NewSID returns a fresh cookie value.
func NewSID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewData mints a fresh identity: uuid token plus a generated username.
func NewData() *Data {
	return &Data{
		UserUUID: uuid.NewString(),
		Username: namegen.Generate(),
	}
}

// RedisStore keeps sessions in Redis, as the original backend does, so
// identities survive server restarts even though game state does not.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }

func (s *RedisStore) key(sid string) string { return "session:" + strings.TrimSpace(sid) }

func (s *RedisStore) Get(ctx context.Context, sid string) (*Data, error) {
	raw, err := s.rdb.Get(ctx, s.key(sid)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	// sliding expiry
	_ = s.rdb.Expire(ctx, s.key(sid), ttlSession).Err()
	return &d, nil
}

func (s *RedisStore) Put(ctx context.Context, sid string, data *Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(sid), raw, ttlSession).Err()
}

// MemoryStore is the fallback when no REDIS_URL is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*Data
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]*Data)}
}

func (m *MemoryStore) Get(_ context.Context, sid string) (*Data, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.data[sid]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (m *MemoryStore) Put(_ context.Context, sid string, data *Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *data
	m.data[sid] = &cp
	return nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
