package datacache

import (
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/justifica/datacache/internal/backend"
	"github.com/justifica/datacache/internal/backend/memory"
	"github.com/justifica/datacache/internal/stats"
)

// Option configures a Store.
type Option interface {
	apply(*options)
}

// options holds the store configuration.
type options struct {
	backend  backend.Backend
	now      func() time.Time
	keys     []Key
	strict   bool
	coalesce bool
	stats    stats.Collector
	logger   *zap.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		backend:  memory.New(),
		now:      time.Now,
		keys:     DefaultKeys(),
		coalesce: true,
		stats:    stats.NewNoop(),
		logger:   zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithBackend sets the entry storage. The default is an unbounded
// in-memory map.
func WithBackend(b backend.Backend) Option {
	return optionFunc(func(o *options) {
		o.backend = b
	})
}

// WithClock sets the time source used to stamp and age entries.
// Tests use it to control TTL boundaries.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(o *options) {
		o.now = now
	})
}

// WithKeys replaces the set of known keys. The default is DefaultKeys.
func WithKeys(keys ...Key) Option {
	return optionFunc(func(o *options) {
		o.keys = slices.Clone(keys)
	})
}

// WithStrictKeys makes NewResource fail with ErrUnknownKey for keys outside
// the known set. By default unknown keys are accepted.
func WithStrictKeys() Option {
	return optionFunc(func(o *options) {
		o.strict = true
	})
}

// WithCoalescing controls whether concurrent non-forced reads of the same
// key share one retrieval. Enabled by default.
func WithCoalescing(enabled bool) Option {
	return optionFunc(func(o *options) {
		o.coalesce = enabled
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}
