// Package config loads client settings from a YAML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load.
const (
	EnvAPIURL = "DATACACHE_API_URL"
	EnvToken  = "DATACACHE_TOKEN"
)

// Defaults.
const (
	DefaultAPIURL  = "http://localhost:5000/api"
	DefaultTTL     = 5 * time.Minute
	DefaultTimeout = 10 * time.Second
	DefaultAdminID = 1
)

// Config holds the client settings.
type Config struct {
	// APIURL is the root of the review API.
	APIURL string `yaml:"api_url"`

	// Token is sent as a bearer token when set.
	Token string `yaml:"token"`

	// TTL is how long cached entries stay fresh.
	TTL time.Duration `yaml:"ttl"`

	// Timeout bounds each API request.
	Timeout time.Duration `yaml:"timeout"`

	// MaxEntries bounds the cache with LRU eviction. Zero means unbounded.
	MaxEntries int `yaml:"max_entries"`

	// StrictKeys rejects resources bound to keys outside the known set.
	StrictKeys bool `yaml:"strict_keys"`

	// DisableCoalescing lets concurrent reads of a key fetch independently.
	DisableCoalescing bool `yaml:"disable_coalescing"`

	// AdminID is recorded as the reviewer of approvals and rejections.
	AdminID int `yaml:"admin_id"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		APIURL:  DefaultAPIURL,
		TTL:     DefaultTTL,
		Timeout: DefaultTimeout,
		AdminID: DefaultAdminID,
	}
}

// Load reads path over the defaults, then fills an empty API URL or token
// from the environment. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := decode(bytes.NewReader(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	// Environment values only replace settings the file left at default.
	if v, ok := os.LookupEnv(EnvAPIURL); ok && v != "" && cfg.APIURL == DefaultAPIURL {
		cfg.APIURL = v
	}
	if v, ok := os.LookupEnv(EnvToken); ok && v != "" && cfg.Token == "" {
		cfg.Token = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	switch {
	case c.APIURL == "":
		return errors.New("config: api_url is required")
	case c.TTL <= 0:
		return fmt.Errorf("config: ttl must be positive, got %v", c.TTL)
	case c.Timeout <= 0:
		return fmt.Errorf("config: timeout must be positive, got %v", c.Timeout)
	case c.MaxEntries < 0:
		return fmt.Errorf("config: max_entries must not be negative, got %d", c.MaxEntries)
	}
	return nil
}

// Write encodes c as YAML.
func (c Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}
