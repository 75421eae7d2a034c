// internal/repository/store.go
package repository

import (
	"context"
	"sync"
)

// Store は永続化されたキーバリューストアです。
// SetMany は与えられたキーをまとめて(可能な限りアトミックに)書き込みます。
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	SetMany(ctx context.Context, values map[string]string) error
	Ping(ctx context.Context) error
}

// MemoryStore はプロセス内メモリのストア。開発・テスト用。
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemoryStore) SetMany(ctx context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.data[k] = v
	}
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
