// Package lru implements a bounded entry store with least-recently-used
// eviction.
package lru

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/justifica/datacache/internal/backend"
)

var _ backend.Backend = (*Backend)(nil)

// Backend holds at most a fixed number of entries. When full, Set evicts
// the entry read or written least recently.
type Backend struct {
	cache *lru.Cache[string, backend.Entry]
}

// New creates an LRU backend holding up to capacity entries.
func New(capacity int) (*Backend, error) {
	c, err := lru.New[string, backend.Entry](capacity)
	if err != nil {
		return nil, err
	}
	return &Backend{cache: c}, nil
}

func (b *Backend) Get(key string) (backend.Entry, bool) {
	return b.cache.Get(key)
}

func (b *Backend) Set(key string, e backend.Entry) {
	b.cache.Add(key, e)
}

func (b *Backend) Delete(key string) {
	b.cache.Remove(key)
}

func (b *Backend) Purge() {
	b.cache.Purge()
}

func (b *Backend) Len() int {
	return b.cache.Len()
}
