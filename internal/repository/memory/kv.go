package memory

import (
	"context"
	"sync"
)

// Store is an in-memory key-value store. Used by tests and when no state path is configured.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
	err  error
}

func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, false, s.err
	}
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// SetErr makes every following call fail with err; nil restores normal operation.
func (s *Store) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
