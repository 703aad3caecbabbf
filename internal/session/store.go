package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the durable slot the session token lives in. Exactly one token
// is held at a time; the slot must be readable before the first protected
// render so views never flash protected content while auth is unknown.
type Store interface {
	Read() (string, bool)
	Write(token string) error
	Clear() error
}

// MemoryStore keeps the token in process memory. Used in tests and for
// ephemeral sessions.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Read() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.set
}

func (s *MemoryStore) Write(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.set = true
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.set = false
	return nil
}

// FileStore persists the token to a single file so it survives process
// restarts. Reads are served from memory after the initial load.
type FileStore struct {
	mu   sync.RWMutex
	path string

	loaded bool
	token  string
	set    bool
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Read() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.load()
	}
	return s.token, s.set
}

func (s *FileStore) load() {
	s.loaded = true
	b, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	tok := strings.TrimSpace(string(b))
	if tok != "" {
		s.token = tok
		s.set = true
	}
}

func (s *FileStore) Write(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return err
	}
	s.loaded = true
	s.token = token
	s.set = true
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.token = ""
	s.set = false
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RedisStore keeps the token under a single Redis key, so several
// dashboard processes can share one session slot.
type RedisStore struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "dashpull:session:token"
	}
	return &RedisStore{client: client, key: key, timeout: 3 * time.Second}
}

func (s *RedisStore) Read() (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	tok, err := s.client.Get(ctx, s.key).Result()
	if err != nil || tok == "" {
		return "", false
	}
	return tok, true
}

func (s *RedisStore) Write(token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Set(ctx, s.key, token, 0).Err()
}

func (s *RedisStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	err := s.client.Del(ctx, s.key).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
