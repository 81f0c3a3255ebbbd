// Package backend defines the entry storage used by the cache store.
package backend

import "time"

// Entry is one cached value together with the time it was written.
type Entry struct {
	Value       any
	LastUpdated time.Time
}

// Present reports whether the entry holds a value.
func (e Entry) Present() bool {
	return e.Value != nil && !e.LastUpdated.IsZero()
}

// Backend stores entries by key. Implementations must be safe for
// concurrent use; every method is a single atomic step from the caller's
// point of view.
type Backend interface {
	// Get returns the entry for key, or false if none is stored.
	Get(key string) (Entry, bool)

	// Set replaces the entry for key.
	Set(key string, e Entry)

	// Delete removes key. Deleting a missing key is a no-op.
	Delete(key string)

	// Purge removes every entry.
	Purge()

	// Len returns the number of stored entries.
	Len() int
}
