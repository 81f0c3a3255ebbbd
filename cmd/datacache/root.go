package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/justifica/datacache"
	"github.com/justifica/datacache/fx/datacachefx"
	"github.com/justifica/datacache/internal/config"
	"github.com/justifica/datacache/internal/resources"
)

var (
	// Global flags.
	configFile string
	apiURL     string
	token      string
	ttl        time.Duration
	maxEntries int
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "datacache",
	Short: "Cached access to the justification review API",
	Long: `datacache reads the review API through a TTL cache and applies
review and enrolment changes, refreshing the affected views.

Settings come from an optional YAML file, then DATACACHE_API_URL and
DATACACHE_TOKEN, then flags.

Examples:
  # Show the dashboard
  datacache fetch dashboard

  # Read the student list three times; only the first read hits the API
  datacache fetch students --repeat 3 --timing

  # Approve justification 42
  datacache approve 42`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "review API root URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token")
	rootCmd.PersistentFlags().DurationVar(&ttl, "ttl", 0, "how long cached entries stay fresh")
	rootCmd.PersistentFlags().IntVar(&maxEntries, "max-entries", 0, "bound the cache with LRU eviction")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// loadConfig merges the config file, environment and flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = apiURL
	}
	if flags.Changed("token") {
		cfg.Token = token
	}
	if flags.Changed("ttl") {
		cfg.TTL = ttl
	}
	if flags.Changed("max-entries") {
		cfg.MaxEntries = maxEntries
	}
	return cfg, cfg.Validate()
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	zc.Encoding = "console"
	return zc.Build()
}

// session is an opened cache with its resources.
type session struct {
	cfg   config.Config
	store *datacache.Store
	set   *resources.Set
	log   *zap.Logger
	app   *fx.App
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	s := &session{cfg: cfg, log: log}
	s.app = fx.New(
		fx.NopLogger,
		fx.Supply(log),
		fx.Supply(datacachefx.Config{
			APIURL:            cfg.APIURL,
			Token:             cfg.Token,
			Timeout:           cfg.Timeout,
			MaxAge:            cfg.TTL,
			MaxEntries:        cfg.MaxEntries,
			StrictKeys:        cfg.StrictKeys,
			DisableCoalescing: cfg.DisableCoalescing,
		}),
		datacachefx.Module,
		fx.Populate(&s.store, &s.set),
	)
	if err := s.app.Start(cmd.Context()); err != nil {
		return nil, fmt.Errorf("starting: %w", err)
	}
	return s, nil
}

func (s *session) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.app.Stop(ctx)
	s.log.Sync()
	return err
}
