package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps objects in process memory. Used for local development
// and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func objectPath(bucket, key string) string {
	return bucket + "/" + key
}

func (m *MemoryStore) GetJSON(ctx context.Context, bucket, key string, v any) error {
	return getJSON(ctx, m, bucket, key, v)
}

func (m *MemoryStore) PutJSON(ctx context.Context, bucket, key string, v any) error {
	data, err := encodeJSON(bucket, key, v)
	if err != nil {
		return err
	}
	m.PutBytes(bucket, key, data)
	return nil
}

func (m *MemoryStore) GetBytes(ctx context.Context, bucket, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[objectPath(bucket, key)]
	if !ok {
		return nil, ErrObjectNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// PutBytes stores a raw object, e.g. a parquet dataset.
func (m *MemoryStore) PutBytes(bucket, key string, data []byte) {
	buf := make([]byte, len(data))
	copy(buf, data)
	m.mu.Lock()
	m.objects[objectPath(bucket, key)] = buf
	m.mu.Unlock()
}

func (m *MemoryStore) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	return "", fmt.Errorf("memory store: %w", ErrPresignUnsupported)
}
