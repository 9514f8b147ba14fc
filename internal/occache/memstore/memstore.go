// Package memstore provides an in-memory occache.Store, used by tests and
// by callers that don't need durability (e.g. exercising the cache layer
// in isolation from a real backing engine).
package memstore

import (
	"context"
	"sync"

	"github.com/RichardKnop/occache/internal/occache"
)

// Store is a map-backed occache.Store guarded by a single RWMutex — the
// same "shared state behind one mutex" shape occache's own pkg/lrucache
// uses, appropriate here since memstore is reference/test tooling rather
// than a hot path.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) WriteBatch(_ context.Context, b occache.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range b.Ops {
		if op.Delete {
			delete(s.data, string(op.Key))
			continue
		}
		s.data[string(op.Key)] = append([]byte(nil), op.Value...)
	}
	return nil
}

func (s *Store) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Len reports the number of keys currently held, for test assertions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
