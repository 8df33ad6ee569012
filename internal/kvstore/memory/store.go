// Package memory is an in-process kvstore backend. Nothing survives the process.
package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/rezkam/taskdeck/internal/kvstore"
)

// Store is a map guarded by a RWMutex. Values are copied in and out.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ kvstore.Store = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	if err := kvstore.ValidateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, kvstore.ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if err := kvstore.ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := bytes.Clone(value)
	if v == nil {
		v = []byte{}
	}
	s.data[key] = v
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	if err := kvstore.ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
