// Package memory implements an unbounded map-backed entry store.
package memory

import (
	"sync"

	"github.com/justifica/datacache/internal/backend"
)

var _ backend.Backend = (*Backend)(nil)

// Backend keeps every entry in a map guarded by a read/write mutex.
type Backend struct {
	mu      sync.RWMutex
	entries map[string]backend.Entry
}

// New creates an empty memory backend.
func New() *Backend {
	return &Backend{entries: make(map[string]backend.Entry)}
}

func (b *Backend) Get(key string) (backend.Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[key]
	return e, ok
}

func (b *Backend) Set(key string, e backend.Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = e
}

func (b *Backend) Delete(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, key)
}

func (b *Backend) Purge() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.entries)
}

func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
