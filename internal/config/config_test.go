package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datacache.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvToken, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load(\"\") = %+v, want %+v", cfg, Default())
	}
}

func TestLoad_File(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvToken, "")
	path := writeFile(t, `
api_url: https://asistencia.example.edu/api
token: abc
ttl: 30s
max_entries: 64
strict_keys: true
admin_id: 3
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Config{
		APIURL:     "https://asistencia.example.edu/api",
		Token:      "abc",
		TTL:        30 * time.Second,
		Timeout:    DefaultTimeout,
		MaxEntries: 64,
		StrictKeys: true,
		AdminID:    3,
	}
	if cfg != want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv(EnvAPIURL, "https://env.example.edu/api")
	t.Setenv(EnvToken, "from-env")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIURL != "https://env.example.edu/api" || cfg.Token != "from-env" {
		t.Errorf("Load() = %+v, want environment values", cfg)
	}

	// Values from the file win over the environment.
	cfg, err = Load(writeFile(t, "api_url: https://file.example.edu/api\ntoken: from-file\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIURL != "https://file.example.edu/api" || cfg.Token != "from-file" {
		t.Errorf("Load() = %+v, want file values", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown field", "ttl: 1m\ncolour: blue\n", "colour"},
		{"bad duration", "ttl: soon\n", "time.Duration"},
		{"zero ttl", "ttl: 0s\n", "ttl must be positive"},
		{"negative entries", "max_entries: -1\n", "max_entries"},
		{"empty url", "api_url: \"\"\n", "api_url is required"},
	}

	t.Setenv(EnvAPIURL, "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvToken, "")
	cfg, err := Load(writeFile(t, ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestWrite(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvToken, "")
	cfg := Default()
	cfg.MaxEntries = 10

	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(buf.String(), "ttl: 5m0s") {
		t.Errorf("Write() output missing ttl:\n%s", buf.String())
	}

	got, err := Load(writeFile(t, buf.String()))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != cfg {
		t.Errorf("Load(Write()) = %+v, want %+v", got, cfg)
	}
}
