package datacache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/justifica/datacache/internal/stats"
)

// DefaultMaxAge is how long a cached entry stays fresh unless a resource
// is bound with WithMaxAge.
const DefaultMaxAge = 5 * time.Minute

// DefaultErrorMessage is reported by State.ErrorMessage when a retrieval
// fails without a message of its own.
const DefaultErrorMessage = "Error al cargar datos"

// Fetcher retrieves the current value of a resource from its source.
type Fetcher[T any] func(ctx context.Context) (T, error)

// RetrievalError reports a failed retrieval operation.
type RetrievalError struct {
	Key Key
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("datacache: retrieving %s: %v", e.Key, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// State is the snapshot a resource publishes to its observers.
type State[T any] struct {
	// Data is the last successfully read value. It survives failed
	// refreshes and invalidation.
	Data T

	// HasData reports whether Data has ever been set.
	HasData bool

	// Loading is true while a retrieval is in flight for this resource.
	Loading bool

	// Err is the most recent retrieval failure, cleared when a new
	// retrieval starts or a read is served from the cache.
	Err error
}

// ErrorMessage returns a human readable description of Err, or "" if the
// last read succeeded.
func (s State[T]) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	var rerr *RetrievalError
	if errors.As(s.Err, &rerr) {
		if rerr.Err == nil || rerr.Err.Error() == "" {
			return DefaultErrorMessage
		}
		return rerr.Err.Error()
	}
	return s.Err.Error()
}

// ResourceOption configures a Resource.
type ResourceOption func(*resourceOptions)

type resourceOptions struct {
	maxAge time.Duration
	logger *zap.Logger
}

// WithMaxAge sets how long a stored value is served without re-fetching.
func WithMaxAge(d time.Duration) ResourceOption {
	return func(o *resourceOptions) {
		o.maxAge = d
	}
}

// WithResourceLogger overrides the logger inherited from the store.
func WithResourceLogger(l *zap.Logger) ResourceOption {
	return func(o *resourceOptions) {
		o.logger = l
	}
}

// Resource binds one cache key to one retrieval operation.
// A Resource is safe for concurrent use by multiple goroutines.
type Resource[T any] struct {
	store  *Store
	key    Key
	fetch  Fetcher[T]
	maxAge time.Duration
	logger *zap.Logger

	activate sync.Once

	mu        sync.Mutex
	state     State[T]
	observers map[int]func(State[T])
	nextID    int
}

// NewResource binds key to fetch on the given store.
func NewResource[T any](s *Store, key Key, fetch Fetcher[T], opts ...ResourceOption) (*Resource[T], error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if fetch == nil {
		return nil, ErrNilFetcher
	}
	if s.strict && !s.Known(key) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	cfg := resourceOptions{
		maxAge: DefaultMaxAge,
		logger: s.logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Resource[T]{
		store:     s,
		key:       key,
		fetch:     fetch,
		maxAge:    cfg.maxAge,
		logger:    cfg.logger.With(zap.String("key", string(key))),
		observers: make(map[int]func(State[T])),
	}, nil
}

// Key returns the cache key the resource is bound to.
func (r *Resource[T]) Key() Key {
	return r.key
}

// MaxAge returns how long a stored value is considered fresh.
func (r *Resource[T]) MaxAge() time.Duration {
	return r.maxAge
}

// Activate performs the initial non-forced read the first time it is
// called. Later calls do not read; they return the current state. A failed
// activation is not retried: later calls return the failed state until Read
// or Refresh is called.
func (r *Resource[T]) Activate(ctx context.Context) (T, error) {
	activated := false
	var v T
	var err error
	r.activate.Do(func() {
		activated = true
		v, err = r.Read(ctx, false)
	})
	if activated {
		return v, err
	}
	st := r.State()
	return st.Data, st.Err
}

// Read returns the resource value. Unless forceRefresh is set, a valid
// stored entry is returned without invoking the retrieval operation.
// Otherwise the operation runs and, on success, its result replaces the
// stored entry. A failed retrieval leaves the store and the previously
// published data untouched and returns a *RetrievalError.
//
// If ctx ends before the retrieval finishes, Read returns ctx.Err() but
// the retrieval still completes and its result is stored.
func (r *Resource[T]) Read(ctx context.Context, forceRefresh bool) (T, error) {
	var zero T
	if r.store.closed.Load() {
		return zero, ErrClosed
	}
	r.store.collector.IncCounter(stats.MetricReads, 1)

	if !forceRefresh {
		v, ok := r.cached()
		r.store.recordLookup(ok)
		if ok {
			r.logger.Debug("cache hit")
			r.publish(func(st *State[T]) {
				st.Data = v
				st.HasData = true
				st.Loading = false
				st.Err = nil
			})
			return v, nil
		}
		r.logger.Debug("cache miss")
	}

	r.publish(func(st *State[T]) {
		st.Loading = true
		st.Err = nil
	})

	v, err := r.retrieve(ctx, forceRefresh)
	switch {
	case err == nil:
		r.publish(func(st *State[T]) {
			st.Data = v
			st.HasData = true
			st.Loading = false
		})
		return v, nil
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		r.publish(func(st *State[T]) {
			st.Loading = false
		})
		return zero, err
	default:
		rerr := &RetrievalError{Key: r.key, Err: err}
		r.publish(func(st *State[T]) {
			st.Err = rerr
			st.Loading = false
		})
		return zero, rerr
	}
}

// Refresh re-invokes the retrieval operation regardless of the stored
// entry. It is Read with forceRefresh set.
func (r *Resource[T]) Refresh(ctx context.Context) (T, error) {
	return r.Read(ctx, true)
}

// Invalidate resets the stored entry so the next Read misses. It does not
// fetch.
func (r *Resource[T]) Invalidate() {
	r.store.Invalidate(r.key)
}

// State returns the current snapshot.
func (r *Resource[T]) State() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// OnChange registers fn to receive every published state. Observers may be
// called from several goroutines when reads overlap. The returned function
// removes the observer.
func (r *Resource[T]) OnChange(fn func(State[T])) (unsubscribe func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.observers[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.observers, id)
		r.mu.Unlock()
	}
}

func (r *Resource[T]) publish(update func(*State[T])) {
	r.mu.Lock()
	update(&r.state)
	st := r.state
	observers := make([]func(State[T]), 0, len(r.observers))
	for _, fn := range r.observers {
		observers = append(observers, fn)
	}
	r.mu.Unlock()

	for _, fn := range observers {
		fn(st)
	}
}

// cached returns the stored value if it is present, fresh and of type T.
func (r *Resource[T]) cached() (T, bool) {
	var zero T
	v, ok := r.store.Get(r.key)
	if !ok || !r.store.IsValid(r.key, r.maxAge) {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		r.logger.Warn("stored value has unexpected type", zap.String("type", fmt.Sprintf("%T", v)))
		return zero, false
	}
	return typed, true
}

// retrieve runs the retrieval operation detached from ctx cancellation and
// waits for it or for ctx to end.
func (r *Resource[T]) retrieve(ctx context.Context, force bool) (T, error) {
	var zero T
	detached := context.WithoutCancel(ctx)
	run := func() (any, error) {
		return r.fetchAndStore(detached)
	}

	var results <-chan singleflight.Result
	if r.store.coalesce {
		if force {
			// A forced refresh must not join a retrieval that may have
			// started before the data changed.
			r.store.flight.Forget(string(r.key))
		}
		results = r.store.flight.DoChan(string(r.key), run)
	} else {
		ch := make(chan singleflight.Result, 1)
		go func() {
			v, err := run()
			ch <- singleflight.Result{Val: v, Err: err}
		}()
		results = ch
	}

	select {
	case res := <-results:
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Shared {
			r.store.collector.IncCounter(stats.MetricCoalesced, 1)
		}
		if res.Val == nil {
			return zero, nil
		}
		v, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("%w: got %T", ErrTypeMismatch, res.Val)
		}
		return v, nil
	case <-ctx.Done():
		r.logger.Debug("caller stopped waiting for retrieval", zap.Error(ctx.Err()))
		return zero, ctx.Err()
	}
}

func (r *Resource[T]) fetchAndStore(ctx context.Context) (any, error) {
	c := r.store.collector
	c.IncCounter(stats.MetricFetches, 1)

	start := time.Now()
	v, err := r.fetch(ctx)
	c.ObserveHistogram(stats.MetricFetchTime, time.Since(start).Seconds())

	if err != nil {
		c.IncCounter(stats.MetricFetchErrors, 1)
		r.logger.Warn("retrieval failed", zap.Error(err))
		return nil, err
	}

	r.store.Set(r.key, v)
	return v, nil
}
