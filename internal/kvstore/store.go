// Package kvstore provides the durable string-keyed store that quiz progress
// is persisted to. Values are opaque strings; encoding is the caller's job.
package kvstore

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("store is closed")

// Store is a string-keyed durable store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	entries map[string]string
	closed  bool
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]string),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", false, ErrClosed
	}
	v, ok := s.entries[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.entries[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	delete(s.entries, key)
	return nil
}

// Close marks the store closed. Later calls return ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// HealthCheck reports whether the store is still usable.
func (s *MemoryStore) HealthCheck(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}
