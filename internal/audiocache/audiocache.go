// Package audiocache maps content fingerprints to previously synthesized
// audio artifacts so identical replies are never synthesized twice.
package audiocache

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rajdesai17/agent-pa/internal/fingerprint"
)

var (
	ErrInvalidDriver = errors.New("audiocache: unsupported driver type")
	ErrInvalidConfig = errors.New("audiocache: invalid store configuration")
)

// Entry records one synthesized artifact keyed by its content fingerprint.
type Entry struct {
	Fingerprint fingerprint.Key `json:"fingerprint"`
	Text        string          `json:"text"`
	Language    string          `json:"language"`
	Voice       string          `json:"voice"`
	FilePath    string          `json:"file_path"`
	DownloadRef string          `json:"download_ref,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Valid reports whether the backing artifact still exists. An entry whose
// artifact is gone is a cache miss and gets lazily evicted.
func (e *Entry) Valid() bool {
	if e.FilePath == "" {
		return false
	}
	_, err := os.Stat(e.FilePath)
	return err == nil
}

// Stats summarizes cache contents.
type Stats struct {
	TotalEntries int `json:"totalEntries"`
	ValidEntries int `json:"validEntries"`
}

// Store is the durable fingerprint index.
//
// Lookup returns nil when the key is absent (not an error). Implementations
// treat entries with missing artifacts as absent and purge them on the way
// out. Callers treat storage errors as misses; the response pipeline never
// blocks on cache failure.
type Store interface {
	Lookup(ctx context.Context, key fingerprint.Key) (*Entry, error)
	Insert(ctx context.Context, entry *Entry) error
	Stats(ctx context.Context) (Stats, error)
	EvictInvalid(ctx context.Context) (int, error)
	Close() error
}
