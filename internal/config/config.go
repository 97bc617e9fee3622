package config

import (
	"fmt"

	"github.com/camilomoreno07/gorkis-api/internal/domain"
	pkgconfig "github.com/camilomoreno07/gorkis-api/pkg/config"
)

// Storage backends.
const (
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

// Config holds all configuration for the services API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server (local runs only)
	HTTPPort int `env:"HTTP_PORT" envDefault:"3000"`

	// DynamoDB
	ServicesTable         string `env:"SERVICES_TABLE"`
	AWSRegion             string `env:"AWS_REGION" envDefault:"us-east-1"`
	IsOffline             bool   `env:"IS_OFFLINE" envDefault:"false"`
	DynamoDBLocalEndpoint string `env:"DYNAMODB_LOCAL_ENDPOINT" envDefault:"http://localhost:8000"`
	DynamoDBCreateTable   bool   `env:"DYNAMODB_CREATE_TABLE" envDefault:"false"`
	StorageBackend        string `env:"STORAGE_BACKEND" envDefault:"dynamodb"`

	// Update behaviour of PUT /services/{id}
	UpdatePolicy string `env:"UPDATE_POLICY" envDefault:"partial"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Slow storage call logging
	SlowStorageThresholdMs int `env:"LOG_SLOW_STORAGE_MS" envDefault:"500"`

	// Cache-Control max-age for successful GETs; 0 disables the header
	CacheMaxAgeSeconds int `env:"CACHE_MAX_AGE_SECONDS" envDefault:"0"`

	// Profiling endpoints on the local HTTP server
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load services config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads configuration from vars instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFrom(cfg, vars); err != nil {
		return nil, fmt.Errorf("load services config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.StorageBackend == BackendDynamoDB && c.ServicesTable == "" {
		return fmt.Errorf("SERVICES_TABLE is required when STORAGE_BACKEND is %q", BackendDynamoDB)
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.StorageBackend != BackendDynamoDB && c.StorageBackend != BackendMemory {
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendDynamoDB, BackendMemory, c.StorageBackend)
	}
	if _, err := domain.ParseUpdatePolicy(c.UpdatePolicy); err != nil {
		return fmt.Errorf("UPDATE_POLICY: %w", err)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.CacheMaxAgeSeconds < 0 {
		return fmt.Errorf("CACHE_MAX_AGE_SECONDS must not be negative, got %d", c.CacheMaxAgeSeconds)
	}
	return nil
}

// Policy returns the parsed update policy. Load has already validated it.
func (c *Config) Policy() domain.UpdatePolicy {
	p, _ := domain.ParseUpdatePolicy(c.UpdatePolicy)
	return p
}
