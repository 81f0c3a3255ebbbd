// Package datacache memoizes responses from the justification review API
// so repeated views of the same screen do not always re-fetch.
//
// A Store holds one entry per resource key with the time it was written.
// A Resource binds a key to a retrieval operation and decides, per read,
// whether the stored entry is fresh enough to return or must be fetched
// again.
//
// Example usage:
//
//	store, err := datacache.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	justifications, err := datacache.NewResource(store, datacache.KeyJustifications, client.Justifications)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	list, err := justifications.Read(ctx, false)
package datacache

import (
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/justifica/datacache/internal/backend"
	"github.com/justifica/datacache/internal/stats"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("datacache: store closed")

	// ErrUnknownKey indicates a resource was bound to a key the store was
	// not configured with while strict key checking is enabled.
	ErrUnknownKey = errors.New("datacache: unknown key")

	// ErrNilFetcher indicates a resource was created without a retrieval
	// operation.
	ErrNilFetcher = errors.New("datacache: nil fetcher")

	// ErrTypeMismatch indicates a shared retrieval produced a value of a
	// different type than the resource expects.
	ErrTypeMismatch = errors.New("datacache: value type mismatch")
)

// Key names a logical resource class whose responses are cached together.
type Key string

// Keys used by the review client.
const (
	KeyDashboard      Key = "dashboard"
	KeyStudents       Key = "students"
	KeyJustifications Key = "justifications"
	KeyAttendance     Key = "attendance"
	KeyReports        Key = "reports"
	KeyProfessors     Key = "professors"
)

// DefaultKeys returns every key the review client binds.
func DefaultKeys() []Key {
	return []Key{
		KeyDashboard,
		KeyStudents,
		KeyJustifications,
		KeyAttendance,
		KeyReports,
		KeyProfessors,
	}
}

// Stats contains cache statistics.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int // Current number of entries
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Store is the shared cache every resource reads and writes.
// A Store is safe for concurrent use by multiple goroutines.
type Store struct {
	backend   backend.Backend
	now       func() time.Time
	keys      []Key
	strict    bool
	coalesce  bool
	collector stats.Collector
	logger    *zap.Logger

	flight singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
	closed atomic.Bool
}

// New creates an empty Store with the given options.
func New(opts ...Option) (*Store, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if cfg.backend == nil {
		return nil, errors.New("datacache: no backend provided")
	}
	if cfg.now == nil {
		return nil, errors.New("datacache: no clock provided")
	}
	if cfg.stats == nil {
		cfg.stats = stats.NewNoop()
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	s := &Store{
		backend:   cfg.backend,
		now:       cfg.now,
		keys:      slices.Clone(cfg.keys),
		strict:    cfg.strict,
		coalesce:  cfg.coalesce,
		collector: cfg.stats,
		logger:    cfg.logger,
	}

	s.logger.Debug("store initialized",
		zap.Int("keys", len(s.keys)),
		zap.Bool("strictKeys", s.strict),
		zap.Bool("coalesce", s.coalesce),
	)

	return s, nil
}

// Get returns the value stored under key, or false if the key was never
// set or has been invalidated. Stale values are still returned.
func (s *Store) Get(key Key) (any, bool) {
	if s.closed.Load() {
		return nil, false
	}
	e, ok := s.backend.Get(string(key))
	if !ok || !e.Present() {
		return nil, false
	}
	return e.Value, true
}

// GetAs is Get with the value asserted to T. A value of another type is
// reported as absent.
func GetAs[T any](s *Store, key Key) (T, bool) {
	v, ok := s.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// Set stores value under key and stamps it with the current time,
// replacing any previous entry. Storing a nil value leaves the key absent.
func (s *Store) Set(key Key, value any) {
	if s.closed.Load() {
		s.logger.Warn("set on closed store dropped", zap.String("key", string(key)))
		return
	}
	if value == nil {
		s.backend.Delete(string(key))
	} else {
		s.backend.Set(string(key), backend.Entry{Value: value, LastUpdated: s.now()})
	}
	s.collector.SetGauge(stats.MetricEntries, int64(s.backend.Len()))
	s.logger.Debug("entry stored", zap.String("key", string(key)))
}

// IsValid reports whether key holds a value written less than maxAge ago.
func (s *Store) IsValid(key Key, maxAge time.Duration) bool {
	if s.closed.Load() {
		return false
	}
	e, ok := s.backend.Get(string(key))
	if !ok || !e.Present() {
		return false
	}
	return s.now().Sub(e.LastUpdated) < maxAge
}

// LastUpdated returns when key was last written, or false if it is absent.
func (s *Store) LastUpdated(key Key) (time.Time, bool) {
	if s.closed.Load() {
		return time.Time{}, false
	}
	e, ok := s.backend.Get(string(key))
	if !ok || !e.Present() {
		return time.Time{}, false
	}
	return e.LastUpdated, true
}

// Invalidate resets key to the absent state. Invalidating an absent key is
// a no-op.
func (s *Store) Invalidate(key Key) {
	if s.closed.Load() {
		return
	}
	s.backend.Delete(string(key))
	s.collector.IncCounter(stats.MetricInvalidations, 1)
	s.collector.SetGauge(stats.MetricEntries, int64(s.backend.Len()))
	s.logger.Debug("entry invalidated", zap.String("key", string(key)))
}

// InvalidateAll resets every key to the absent state.
func (s *Store) InvalidateAll() {
	if s.closed.Load() {
		return
	}
	s.backend.Purge()
	s.collector.IncCounter(stats.MetricInvalidations, 1)
	s.collector.SetGauge(stats.MetricEntries, 0)
	s.logger.Debug("all entries invalidated")
}

// Keys returns the keys the store was configured with.
func (s *Store) Keys() []Key {
	return slices.Clone(s.keys)
}

// Known reports whether key is one of the configured keys.
func (s *Store) Known(key Key) bool {
	return slices.Contains(s.keys, key)
}

// Stats returns resource read statistics. A hit is a read served from a
// valid entry without invoking the retrieval operation.
func (s *Store) Stats() Stats {
	return Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Size:   s.backend.Len(),
	}
}

// Close discards every entry. After Close, reads miss, writes are dropped
// and new resources cannot be bound.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	s.backend.Purge()
	s.collector.SetGauge(stats.MetricEntries, 0)
	s.logger.Debug("store closed")
	return nil
}

func (s *Store) recordLookup(hit bool) {
	if hit {
		s.hits.Add(1)
		s.collector.IncCounter(stats.MetricHits, 1)
		return
	}
	s.misses.Add(1)
	s.collector.IncCounter(stats.MetricMisses, 1)
}
