package database

import (
	"context"
	"errors"
	"sync"
)

// Bucket keys of the persisted dataset.
const (
	KeyLodges    = "kyn_lodges"
	KeyBookings  = "kyn_bookings"
	KeyUser      = "kyn_user"
	KeyReminders = "kyn_reminders"
	KeyCatalog   = "kyn_catalog"
)

var ErrKeyNotFound = errors.New("key not found")

// KV stores whole JSON documents under string keys.
type KV interface {
	// Get returns ErrKeyNotFound when the key was never written.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// MemoryKV keeps documents in process memory.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Ping(context.Context) error { return nil }

func (m *MemoryKV) Close() error { return nil }
