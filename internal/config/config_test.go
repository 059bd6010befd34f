package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration must validate: %v", err)
	}
	if cfg.Listen != ":8080" {
		t.Fatalf("unexpected default listen address %q", cfg.Listen)
	}
	if cfg.Cache.Backend != CacheBackendMemory {
		t.Fatalf("default cache backend should be memory, got %q", cfg.Cache.Backend)
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, loaded, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("a missing file is not an error: %v", err)
	}
	if loaded {
		t.Fatalf("loaded should be false for a missing file")
	}
	if cfg.Listen != Default().Listen {
		t.Fatalf("missing file should yield defaults, got %q", cfg.Listen)
	}
}

func TestLoadOrDefaultReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solescan.yaml")
	payload := []byte(`
listen: ":9000"
verbose: true
pipelineDeadline: 20s
aggregateDeadline: 12s
resolver:
  threshold: 0.6
  topK: 5
  ambiguityMargin: 0.9
providers:
  retail:
    baseUrl: https://retail.test
    politeness: 250ms
cache:
  backend: memory
  resaleTtl: 10m
`)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, loaded, err := LoadOrDefault(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded {
		t.Fatalf("loaded should be true")
	}
	if cfg.Listen != ":9000" || !cfg.Verbose {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.PipelineDeadline.Std() != 20*time.Second {
		t.Fatalf("unexpected pipeline deadline %v", cfg.PipelineDeadline.Std())
	}
	if cfg.Resolver.TopK != 5 || cfg.Resolver.Threshold != 0.6 {
		t.Fatalf("resolver overrides not applied: %+v", cfg.Resolver)
	}
	if cfg.Providers.Retail.BaseURL != "https://retail.test" {
		t.Fatalf("provider override not applied: %+v", cfg.Providers.Retail)
	}
	if cfg.Providers.Retail.Politeness.Std() != 250*time.Millisecond {
		t.Fatalf("politeness not parsed: %v", cfg.Providers.Retail.Politeness.Std())
	}
	if cfg.Cache.ResaleTTL.Std() != 10*time.Minute {
		t.Fatalf("ttl override not applied: %v", cfg.Cache.ResaleTTL.Std())
	}
	// Values the file omits keep their defaults.
	if cfg.Cache.RetailTTL.Std() != 6*time.Hour {
		t.Fatalf("omitted values should keep defaults, got %v", cfg.Cache.RetailTTL.Std())
	}
}

func TestLoadOrDefaultRejectsBadDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("pipelineDeadline: soon"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := LoadOrDefault(path); err == nil {
		t.Fatalf("unparseable duration should fail the load")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SOLESCAN_LISTEN", ":7070")
	t.Setenv("SOLESCAN_VERBOSE", "true")
	t.Setenv("SOLESCAN_CACHE_BACKEND", "postgres")
	t.Setenv("SOLESCAN_POSTGRES_DSN", "postgres://localhost/solescan")
	t.Setenv("SOLESCAN_RETAIL_API_KEY", "k-123")

	cfg, _, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":7070" {
		t.Fatalf("env listen not applied: %q", cfg.Listen)
	}
	if !cfg.Verbose {
		t.Fatalf("env verbose not applied")
	}
	if cfg.Cache.Backend != CacheBackendPostgres || cfg.Cache.PostgresDSN == "" {
		t.Fatalf("env cache settings not applied: %+v", cfg.Cache)
	}
	if cfg.Providers.Retail.APIKey != "k-123" {
		t.Fatalf("env api key not applied")
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"threshold above one", func(c *AppConfig) { c.Resolver.Threshold = 1.5 }},
		{"zero topK", func(c *AppConfig) { c.Resolver.TopK = 0 }},
		{"zero margin", func(c *AppConfig) { c.Resolver.AmbiguityMargin = 0 }},
		{"margin above one", func(c *AppConfig) { c.Resolver.AmbiguityMargin = 1.2 }},
		{"zero pipeline deadline", func(c *AppConfig) { c.PipelineDeadline = 0 }},
		{"aggregate exceeds pipeline", func(c *AppConfig) {
			c.AggregateDeadline = Duration(20 * time.Second)
		}},
		{"postgres without dsn", func(c *AppConfig) {
			c.Cache.Backend = CacheBackendPostgres
			c.Cache.PostgresDSN = ""
		}},
		{"unknown backend", func(c *AppConfig) { c.Cache.Backend = "redis" }},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected a validation error", tc.name)
		}
	}
}
