package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no session exists for an id.
var ErrNotFound = errors.New("session not found")

// Identity is the "current user" blob a session carries. Handlers that only
// need the caller's id read it from here without touching the database.
type Identity struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Data is the server-side state of one session.
type Data struct {
	Identity *Identity `json:"identity,omitempty"`
	// Flash is a one-shot notice consumed by the next HTML render.
	Flash string `json:"flash,omitempty"`
}

// Store persists session state keyed by session id.
type Store interface {
	Get(ctx context.Context, id string) (*Data, error)
	Save(ctx context.Context, id string, data *Data, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

// RedisStore keeps sessions in Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed session store and verifies the
// connection.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: "session:"}, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Data, error) {
	raw, err := r.client.Get(ctx, r.prefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var data Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &data, nil
}

func (r *RedisStore) Save(ctx context.Context, id string, data *Data, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return r.client.Set(ctx, r.prefix+id, string(raw), ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.prefix+id).Err()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// MemoryStore is an in-memory session store for development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]memoryItem
}

type memoryItem struct {
	data       Data
	expiration time.Time
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{store: make(map[string]memoryItem)}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Data, error) {
	m.mu.RLock()
	item, exists := m.store[id]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrNotFound
	}

	if time.Now().After(item.expiration) {
		m.mu.Lock()
		delete(m.store, id)
		m.mu.Unlock()
		return nil, ErrNotFound
	}

	data := item.data
	return &data, nil
}

func (m *MemoryStore) Save(ctx context.Context, id string, data *Data, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	m.mu.Lock()
	m.store[id] = memoryItem{data: *data, expiration: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.store, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.store = make(map[string]memoryItem)
	m.mu.Unlock()
	return nil
}
