package photobook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"photobook-order-bot/internal/file"

	"github.com/redis/go-redis/v9"
)

var ErrEmptyAlbum = errors.New("photobook album is empty")

// Album is the draft a user builds before checking out.
type Album struct {
	Title     string             `json:"title"`
	Photos    []file.RequestFile `json:"photos"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type Store interface {
	Load(ctx context.Context, userID int64) (*Album, error)
	Save(ctx context.Context, userID int64, album Album) error
	Delete(ctx context.Context, userID int64) error
}

type ErrStore struct {
	Op  string
	Err error
}

func (e *ErrStore) Error() string {
	return fmt.Sprintf("album store %s: %v", e.Op, e.Err)
}

func (e *ErrStore) Unwrap() error {
	return e.Err
}

// RedisStore keeps drafts in redis so an unfinished album survives a
// restart. Drafts expire after ttl.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "photobook:album:"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(userID int64) string {
	return fmt.Sprintf("%s%d", s.prefix, userID)
}

func (s *RedisStore) Load(ctx context.Context, userID int64) (*Album, error) {
	raw, err := s.rdb.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, &ErrStore{Op: "load", Err: err}
	}

	var album Album
	if err := json.Unmarshal(raw, &album); err != nil {
		return nil, &ErrStore{Op: "decode", Err: err}
	}
	return &album, nil
}

func (s *RedisStore) Save(ctx context.Context, userID int64, album Album) error {
	raw, err := json.Marshal(album)
	if err != nil {
		return &ErrStore{Op: "encode", Err: err}
	}
	if err := s.rdb.Set(ctx, s.key(userID), raw, s.ttl).Err(); err != nil {
		return &ErrStore{Op: "save", Err: err}
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := s.rdb.Del(ctx, s.key(userID)).Err(); err != nil {
		return &ErrStore{Op: "delete", Err: err}
	}
	return nil
}

type MemoryStore struct {
	mu     sync.Mutex
	albums map[int64]Album
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{albums: make(map[int64]Album)}
}

func (s *MemoryStore) Load(_ context.Context, userID int64) (*Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	album, ok := s.albums[userID]
	if !ok {
		return nil, nil
	}
	album.Photos = append([]file.RequestFile(nil), album.Photos...)
	return &album, nil
}

func (s *MemoryStore) Save(_ context.Context, userID int64, album Album) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	album.Photos = append([]file.RequestFile(nil), album.Photos...)
	s.albums[userID] = album
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.albums, userID)
	return nil
}
