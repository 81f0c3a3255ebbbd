// Package datacachefx provides an fx module for the review API client with
// its data cache.
package datacachefx

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/justifica/datacache"
	"github.com/justifica/datacache/internal/backend"
	"github.com/justifica/datacache/internal/backend/lru"
	"github.com/justifica/datacache/internal/backend/memory"
	"github.com/justifica/datacache/internal/remote"
	"github.com/justifica/datacache/internal/resources"
	"github.com/justifica/datacache/internal/stats"
	"github.com/justifica/datacache/internal/stats/logger"
	promstats "github.com/justifica/datacache/internal/stats/prometheus"
)

// Config holds configuration for the cached review client.
type Config struct {
	// APIURL is the root of the review API.
	APIURL string

	// Token is sent as a bearer token when set.
	Token string

	// Timeout bounds each API request.
	// Default is remote.DefaultTimeout.
	Timeout time.Duration

	// MaxAge is how long cached entries stay fresh.
	// Default is datacache.DefaultMaxAge.
	MaxAge time.Duration

	// MaxEntries bounds the cache with LRU eviction. Zero means unbounded.
	MaxEntries int

	// StrictKeys rejects resources bound to keys outside the known set.
	StrictKeys bool

	// DisableCoalescing lets concurrent reads of a key fetch independently.
	DisableCoalescing bool

	// Prefetch reads every resource when the app starts.
	Prefetch bool
}

// Module provides a *datacache.Store, a *remote.Client and the
// *resources.Set binding them.
// Requires a Config and a *zap.Logger to be provided. When a
// prometheus.Registerer is provided, cache metrics are exported to it;
// otherwise they are written to the logger.
var Module = fx.Module("datacache",
	fx.Provide(
		newStatsCollector,
		newStore,
		newClient,
		newResources,
	),
)

// CollectorParams holds dependencies for creating the stats collector.
type CollectorParams struct {
	fx.In

	Logger     *zap.Logger
	Registerer prometheus.Registerer `optional:"true"`
}

func newStatsCollector(p CollectorParams) stats.Collector {
	if p.Registerer != nil {
		return promstats.New(p.Registerer)
	}
	return logger.New(p.Logger.Named("datacache.stats"))
}

// StoreParams holds dependencies for creating the store.
type StoreParams struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

func newStore(p StoreParams) (*datacache.Store, error) {
	var b backend.Backend = memory.New()
	if p.Config.MaxEntries > 0 {
		bounded, err := lru.New(p.Config.MaxEntries)
		if err != nil {
			return nil, err
		}
		b = bounded
	}

	opts := []datacache.Option{
		datacache.WithBackend(b),
		datacache.WithStats(p.Collector),
		datacache.WithLogger(p.Logger.Named("datacache")),
		datacache.WithCoalescing(!p.Config.DisableCoalescing),
	}
	if p.Config.StrictKeys {
		opts = append(opts, datacache.WithStrictKeys())
	}

	store, err := datacache.New(opts...)
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return store.Close()
		},
	})

	return store, nil
}

func newClient(cfg Config, log *zap.Logger) (*remote.Client, error) {
	opts := []remote.Option{
		remote.WithToken(cfg.Token),
		remote.WithLogger(log.Named("remote")),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, remote.WithTimeout(cfg.Timeout))
	}
	return remote.New(cfg.APIURL, opts...)
}

// ResourcesParams holds dependencies for creating the resource set.
type ResourcesParams struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Store     *datacache.Store
	Client    *remote.Client
	Lifecycle fx.Lifecycle
}

func newResources(p ResourcesParams) (*resources.Set, error) {
	var opts []datacache.ResourceOption
	if p.Config.MaxAge > 0 {
		opts = append(opts, datacache.WithMaxAge(p.Config.MaxAge))
	}

	set, err := resources.New(p.Store, p.Client, p.Logger, opts...)
	if err != nil {
		return nil, err
	}

	if p.Config.Prefetch {
		p.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := set.Activate(ctx); err != nil {
					// The resources stay cold and load on first read.
					p.Logger.Warn("prefetch failed", zap.Error(err))
				}
				return nil
			},
		})
	}

	return set, nil
}
