package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

type Store interface {
	Load(ctx context.Context, userID int64) ([]Details, error)
	Save(ctx context.Context, userID int64, entries []Details) error
}

type ErrStore struct {
	Op  string
	Err error
}

func (e *ErrStore) Error() string {
	return fmt.Errorf("delivery store %s: %w", e.Op, e.Err).Error()
}

func (e *ErrStore) Unwrap() error {
	return e.Err
}

type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "photobook:delivery:"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(userID int64) string {
	return fmt.Sprintf("%s%d", s.prefix, userID)
}

func (s *RedisStore) Load(ctx context.Context, userID int64) ([]Details, error) {
	raw, err := s.rdb.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, &ErrStore{Op: "load", Err: err}
	}

	var entries []Details
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, &ErrStore{Op: "decode", Err: err}
	}
	return entries, nil
}

func (s *RedisStore) Save(ctx context.Context, userID int64, entries []Details) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return &ErrStore{Op: "encode", Err: err}
	}
	if err := s.rdb.Set(ctx, s.key(userID), raw, 0).Err(); err != nil {
		return &ErrStore{Op: "save", Err: err}
	}
	return nil
}

type MemoryStore struct {
	mu      sync.Mutex
	entries map[int64][]Details
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[int64][]Details)}
}

func (s *MemoryStore) Load(_ context.Context, userID int64) ([]Details, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Details(nil), s.entries[userID]...), nil
}

func (s *MemoryStore) Save(_ context.Context, userID int64, entries []Details) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = append([]Details(nil), entries...)
	return nil
}
