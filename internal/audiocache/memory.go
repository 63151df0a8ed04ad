package audiocache

import (
	"context"
	"sync"

	"github.com/rajdesai17/agent-pa/internal/fingerprint"
)

// memoryStore keeps the index in process memory. Used in tests and as the
// base layer of the file store.
type memoryStore struct {
	mu      sync.RWMutex
	entries map[fingerprint.Key]*Entry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[fingerprint.Key]*Entry)}
}

func (s *memoryStore) Lookup(ctx context.Context, key fingerprint.Key) (*Entry, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !entry.Valid() {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, nil
	}
	return entry, nil
}

func (s *memoryStore) Insert(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Fingerprint] = entry
	return nil
}

func (s *memoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{TotalEntries: len(s.entries)}
	for _, entry := range s.entries {
		if entry.Valid() {
			stats.ValidEntries++
		}
	}
	return stats, nil
}

func (s *memoryStore) EvictInvalid(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, entry := range s.entries {
		if !entry.Valid() {
			delete(s.entries, key)
			evicted++
		}
	}
	return evicted, nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}
