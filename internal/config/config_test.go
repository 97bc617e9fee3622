package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camilomoreno07/gorkis-api/internal/domain"
)

func baseVars() map[string]string {
	return map[string]string{"SERVICES_TABLE": "services-dev"}
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(baseVars())

	require.NoError(t, err)
	assert.Equal(t, "services-dev", cfg.ServicesTable)
	assert.Equal(t, 3000, cfg.HTTPPort)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "us-east-1", cfg.AWSRegion)
	assert.False(t, cfg.IsOffline)
	assert.Equal(t, "http://localhost:8000", cfg.DynamoDBLocalEndpoint)
	assert.Equal(t, BackendDynamoDB, cfg.StorageBackend)
	assert.Equal(t, domain.UpdatePolicyPartial, cfg.Policy())
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 500, cfg.SlowStorageThresholdMs)
	assert.Equal(t, 0, cfg.CacheMaxAgeSeconds)
	assert.False(t, cfg.PprofEnabled)
	assert.Contains(t, cfg.PprofAllowedCIDRs, "127.0.0.0/8")
}

func TestLoadFrom_Overrides(t *testing.T) {
	vars := baseVars()
	vars["IS_OFFLINE"] = "true"
	vars["DYNAMODB_CREATE_TABLE"] = "true"
	vars["UPDATE_POLICY"] = "replace"
	vars["STORAGE_BACKEND"] = "memory"
	vars["KAFKA_BROKERS"] = "k1:9092,k2:9092"
	vars["CACHE_MAX_AGE_SECONDS"] = "30"
	vars["PPROF_ENABLED"] = "true"
	vars["PPROF_ALLOWED_CIDRS"] = "10.1.0.0/16"

	cfg, err := LoadFrom(vars)

	require.NoError(t, err)
	assert.True(t, cfg.IsOffline)
	assert.True(t, cfg.DynamoDBCreateTable)
	assert.Equal(t, domain.UpdatePolicyReplace, cfg.Policy())
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30, cfg.CacheMaxAgeSeconds)
	assert.True(t, cfg.PprofEnabled)
	assert.Equal(t, []string{"10.1.0.0/16"}, cfg.PprofAllowedCIDRs)
}

func TestLoadFrom_MissingTable(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVICES_TABLE")
}

func TestLoadFrom_MemoryBackendWithoutTable(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"STORAGE_BACKEND": "memory"})

	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Empty(t, cfg.ServicesTable)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		msg  string
	}{
		{"port zero", "HTTP_PORT", "0", "invalid HTTP port"},
		{"port too high", "HTTP_PORT", "70000", "invalid HTTP port"},
		{"unknown backend", "STORAGE_BACKEND", "postgres", "STORAGE_BACKEND"},
		{"unknown policy", "UPDATE_POLICY", "merge", "UPDATE_POLICY"},
		{"sample rate", "OTEL_SAMPLE_RATE", "1.5", "OTEL_SAMPLE_RATE"},
		{"negative cache age", "CACHE_MAX_AGE_SECONDS", "-1", "CACHE_MAX_AGE_SECONDS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars := baseVars()
			vars[tt.key] = tt.val

			cfg, err := LoadFrom(vars)

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("SERVICES_TABLE", "services-env")
	t.Setenv("HTTP_PORT", "8080")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "services-env", cfg.ServicesTable)
	assert.Equal(t, 8080, cfg.HTTPPort)
}
