package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testValue struct {
	Field1 string `json:"field1"`
	Field2 int    `json:"field2"`
	Field3 int64  `json:"field3"`
}

func TestMemoryStorageRoundTrip(t *testing.T) {
	storage := NewMemoryStorage()
	defer storage.Close()
	ctx := context.Background()

	in := testValue{Field1: "value1", Field2: 42, Field3: time.Now().UnixMilli()}
	if err := storage.Set(ctx, "key", in, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var out testValue
	if err := storage.Get(ctx, "key", &out); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}
}

func TestMemoryStorageMissingKey(t *testing.T) {
	storage := NewMemoryStorage()
	defer storage.Close()
	ctx := context.Background()

	var out testValue
	if err := storage.Get(ctx, "missing", &out); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := storage.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestMemoryStorageDelete(t *testing.T) {
	storage := NewMemoryStorage()
	defer storage.Close()
	ctx := context.Background()

	if err := storage.Set(ctx, "key", testValue{Field1: "v"}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := storage.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	var out testValue
	if err := storage.Get(ctx, "key", &out); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStorageExpiry(t *testing.T) {
	storage := NewMemoryStorage()
	defer storage.Close()
	ctx := context.Background()

	// the backing store tracks expiry at second granularity
	if err := storage.Set(ctx, "key", testValue{Field1: "v"}, time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(2 * time.Second)
	var out testValue
	if err := storage.Get(ctx, "key", &out); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestPrefixedStorage(t *testing.T) {
	backing := NewMemoryStorage()
	defer backing.Close()
	prefixed := StorageWithPrefix(backing, "s:")
	ctx := context.Background()

	if err := prefixed.Set(ctx, "key", testValue{Field1: "v"}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// the value lives under the prefixed key in the backing store
	var out testValue
	if err := backing.Get(ctx, "s:key", &out); err != nil {
		t.Fatalf("expected the prefixed key in the backing store: %v", err)
	}
	if err := backing.Get(ctx, "key", &out); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected the bare key to be absent, got %v", err)
	}

	if err := prefixed.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := backing.Get(ctx, "s:key", &out); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected the prefixed key to be gone, got %v", err)
	}
}
