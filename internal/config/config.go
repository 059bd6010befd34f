// Package config manages application configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses human-readable durations ("15m", "8s") from YAML.
type Duration time.Duration

// UnmarshalYAML parses the duration literal.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil || strings.TrimSpace(node.Value) == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("invalid duration %q", node.Value)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the duration as time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ClassifierConfig configures the vision-service collaborator.
type ClassifierConfig struct {
	Endpoint string   `yaml:"endpoint"`
	Timeout  Duration `yaml:"timeout"`
}

// ResolverConfig tunes identity resolution.
type ResolverConfig struct {
	Threshold       float64 `yaml:"threshold"`
	TopK            int     `yaml:"topK"`
	AmbiguityMargin float64 `yaml:"ambiguityMargin"`
}

// SourceConfig configures one pricing-source adapter's transport.
type SourceConfig struct {
	BaseURL    string   `yaml:"baseUrl"`
	APIKey     string   `yaml:"apiKey"`
	ListingURL string   `yaml:"listingUrl"`
	Timeout    Duration `yaml:"timeout"`
	Politeness Duration `yaml:"politeness"`
}

// ProvidersConfig groups the pricing sources.
type ProvidersConfig struct {
	Retail    SourceConfig `yaml:"retail"`
	Resale    SourceConfig `yaml:"resale"`
	SizeChart SourceConfig `yaml:"sizechart"`
}

// CacheConfig selects and tunes the price-record cache backend.
type CacheConfig struct {
	Backend     string   `yaml:"backend"`
	PostgresDSN string   `yaml:"postgresDsn"`
	ResaleTTL   Duration `yaml:"resaleTtl"`
	RetailTTL   Duration `yaml:"retailTtl"`
	SoldOutTTL  Duration `yaml:"soldOutTtl"`
}

// TelemetryConfig selects the metrics exporter endpoint.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlpEndpoint"`
	ServiceName  string `yaml:"serviceName"`
}

// AppConfig is the configuration tree loaded from defaults, file, and env.
type AppConfig struct {
	Environment       string           `yaml:"environment"`
	Listen            string           `yaml:"listen"`
	Verbose           bool             `yaml:"verbose"`
	CatalogPath       string           `yaml:"catalog"`
	PipelineDeadline  Duration         `yaml:"pipelineDeadline"`
	AggregateDeadline Duration         `yaml:"aggregateDeadline"`
	Classifier        ClassifierConfig `yaml:"classifier"`
	Resolver          ResolverConfig   `yaml:"resolver"`
	Providers         ProvidersConfig  `yaml:"providers"`
	Cache             CacheConfig      `yaml:"cache"`
	Telemetry         TelemetryConfig  `yaml:"telemetry"`
}

// Backend names for the cache.
const (
	CacheBackendMemory   = "memory"
	CacheBackendPostgres = "postgres"
)

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		Environment:       "prod",
		Listen:            ":8080",
		Verbose:           false,
		CatalogPath:       "",
		PipelineDeadline:  Duration(10 * time.Second),
		AggregateDeadline: Duration(8 * time.Second),
		Classifier: ClassifierConfig{
			Endpoint: "http://localhost:9090/v1/labels",
			Timeout:  Duration(10 * time.Second),
		},
		Resolver: ResolverConfig{
			Threshold:       0.5,
			TopK:            3,
			AmbiguityMargin: 0.8,
		},
		Providers: ProvidersConfig{
			Retail: SourceConfig{
				BaseURL:    "https://the-sneaker-database.example.com",
				APIKey:     "",
				ListingURL: "",
				Timeout:    Duration(6 * time.Second),
				Politeness: Duration(500 * time.Millisecond),
			},
			Resale: SourceConfig{
				BaseURL:    "https://resale-market.example.com/api",
				APIKey:     "",
				ListingURL: "https://resale-market.example.com",
				Timeout:    Duration(6 * time.Second),
				Politeness: Duration(500 * time.Millisecond),
			},
			SizeChart: SourceConfig{
				BaseURL:    "https://sizecharts.example.com/api",
				APIKey:     "",
				ListingURL: "",
				Timeout:    Duration(6 * time.Second),
				Politeness: 0,
			},
		},
		Cache: CacheConfig{
			Backend:     CacheBackendMemory,
			PostgresDSN: "",
			ResaleTTL:   Duration(15 * time.Minute),
			RetailTTL:   Duration(6 * time.Hour),
			SoldOutTTL:  Duration(5 * time.Minute),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "",
			ServiceName:  "solescan",
		},
	}
}

// LoadOrDefault reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error; the second return
// reports whether a file was read.
func LoadOrDefault(path string) (AppConfig, bool, error) {
	cfg := Default()
	loaded := false
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return AppConfig{}, false, fmt.Errorf("parse config %s: %w", path, err)
			}
			loaded = true
		case os.IsNotExist(err):
			// fall through to defaults
		default:
			return AppConfig{}, false, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, loaded, err
	}
	return cfg, loaded, nil
}

func (c *AppConfig) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("SOLESCAN_ENV")); v != "" {
		c.Environment = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("SOLESCAN_LISTEN")); v != "" {
		c.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("SOLESCAN_VERBOSE")); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Verbose = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("SOLESCAN_CATALOG")); v != "" {
		c.CatalogPath = v
	}
	if v := strings.TrimSpace(os.Getenv("SOLESCAN_CLASSIFIER_ENDPOINT")); v != "" {
		c.Classifier.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("SOLESCAN_RETAIL_BASE_URL")); v != "" {
		c.Providers.Retail.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("SOLESCAN_RETAIL_API_KEY")); v != "" {
		c.Providers.Retail.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("SOLESCAN_RESALE_BASE_URL")); v != "" {
		c.Providers.Resale.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("SOLESCAN_RESALE_API_KEY")); v != "" {
		c.Providers.Resale.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("SOLESCAN_SIZECHART_BASE_URL")); v != "" {
		c.Providers.SizeChart.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("SOLESCAN_CACHE_BACKEND")); v != "" {
		c.Cache.Backend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("SOLESCAN_POSTGRES_DSN")); v != "" {
		c.Cache.PostgresDSN = v
	}
	if v := strings.TrimSpace(os.Getenv("SOLESCAN_OTLP_ENDPOINT")); v != "" {
		c.Telemetry.OTLPEndpoint = v
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c AppConfig) Validate() error {
	if c.Resolver.Threshold < 0 || c.Resolver.Threshold > 1 {
		return fmt.Errorf("resolver threshold %v outside [0, 1]", c.Resolver.Threshold)
	}
	if c.Resolver.TopK < 1 {
		return fmt.Errorf("resolver topK must be >= 1")
	}
	if c.Resolver.AmbiguityMargin <= 0 || c.Resolver.AmbiguityMargin > 1 {
		return fmt.Errorf("ambiguity margin %v outside (0, 1]", c.Resolver.AmbiguityMargin)
	}
	if c.PipelineDeadline.Std() <= 0 {
		return fmt.Errorf("pipeline deadline must be positive")
	}
	if c.AggregateDeadline.Std() <= 0 || c.AggregateDeadline.Std() > c.PipelineDeadline.Std() {
		return fmt.Errorf("aggregate deadline must be positive and within the pipeline deadline")
	}
	switch c.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendPostgres:
		if strings.TrimSpace(c.Cache.PostgresDSN) == "" {
			return fmt.Errorf("postgres cache backend requires a DSN")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}
