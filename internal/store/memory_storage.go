package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/storage/memory/v2"
)

// MemoryStorage keeps values in process. Suitable for single-node deployments
// and tests; state is lost on restart.
type MemoryStorage struct {
	db *memory.Storage
}

func (s *MemoryStorage) Get(ctx context.Context, key string, val any) error {
	data, err := s.db.Get(key)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return ErrNotFound
	}
	return json.Unmarshal(data, val)
}

func (s *MemoryStorage) Set(ctx context.Context, key string, val any, expiresIn time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return s.db.Set(key, data, expiresIn)
}

func (s *MemoryStorage) Delete(ctx context.Context, key string) error {
	data, err := s.db.Get(key)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return ErrNotFound
	}
	return s.db.Delete(key)
}

func (s *MemoryStorage) Close() error {
	return s.db.Close()
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		db: memory.New(memory.Config{GCInterval: time.Minute}),
	}
}
