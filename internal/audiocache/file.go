package audiocache

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/rajdesai17/agent-pa/internal/fingerprint"
)

// fileStore keeps the index in memory and persists it as a JSON document,
// so cached artifacts survive process restarts. Insert persists before
// returning; lazy evictions persist best-effort.
type fileStore struct {
	path    string
	mu      sync.RWMutex
	entries map[fingerprint.Key]*Entry
}

func openFileStore(path string) (*fileStore, error) {
	s := &fileStore{
		path:    path,
		entries: make(map[fingerprint.Key]*Entry),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			// A corrupt or unreadable index is not fatal: start empty.
			slog.Warn("could not load audio cache index", "path", path, "error", err)
		}
		return s, nil
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		slog.Warn("could not parse audio cache index, starting empty", "path", path, "error", err)
		s.entries = make(map[fingerprint.Key]*Entry)
	}
	return s, nil
}

// persist writes the index under the write lock held by the caller.
func (s *fileStore) persist() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *fileStore) Lookup(ctx context.Context, key fingerprint.Key) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if !entry.Valid() {
		delete(s.entries, key)
		if err := s.persist(); err != nil {
			slog.Warn("could not persist audio cache index after eviction", "error", err)
		}
		return nil, nil
	}
	return entry, nil
}

func (s *fileStore) Insert(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.Fingerprint] = entry
	return s.persist()
}

func (s *fileStore) Stats(ctx context.Context) (Stats, error) {
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

func (s *fileStore) EvictInvalid(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, entry := range s.entries {
		if !entry.Valid() {
			delete(s.entries, key)
			evicted++
		}
	}
	if evicted > 0 {
		if err := s.persist(); err != nil {
			return evicted, err
		}
	}
	return evicted, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}
