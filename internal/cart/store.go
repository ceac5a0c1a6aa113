package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store keeps one cart per cashier between requests. Get returns an empty cart
// when nothing is stored.
type Store interface {
	Get(ctx context.Context, userID uuid.UUID) (*Cart, error)
	Save(ctx context.Context, userID uuid.UUID, c *Cart) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore stores carts as JSON under cart:<user_id>, expiring after ttl of inactivity.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) Store {
	return &redisStore{rdb: rdb, ttl: ttl}
}

func key(userID uuid.UUID) string {
	return "cart:" + userID.String()
}

func (s *redisStore) Get(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	raw, err := s.rdb.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Cart{}, nil
	}
	if err != nil {
		return nil, err
	}
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *redisStore) Save(ctx context.Context, userID uuid.UUID, c *Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key(userID), data, s.ttl).Err()
}

func (s *redisStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.rdb.Del(ctx, key(userID)).Err()
}

type memoryStore struct {
	mu    sync.Mutex
	carts map[uuid.UUID][]byte
}

// NewMemoryStore is the in-process store used when no Redis is configured.
// Carts are kept encoded so callers never share state with the store.
func NewMemoryStore() Store {
	return &memoryStore{carts: make(map[uuid.UUID][]byte)}
}

func (s *memoryStore) Get(_ context.Context, userID uuid.UUID) (*Cart, error) {
	s.mu.Lock()
	raw, ok := s.carts[userID]
	s.mu.Unlock()
	if !ok {
		return &Cart{}, nil
	}
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *memoryStore) Save(_ context.Context, userID uuid.UUID, c *Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.carts[userID] = data
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Delete(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	delete(s.carts, userID)
	s.mu.Unlock()
	return nil
}
