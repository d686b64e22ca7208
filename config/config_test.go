package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "8080", cfg.Port)
				assert.Equal(t, "sqlite", cfg.DBDriver)
				assert.Equal(t, "inventory.db", cfg.DatabaseURL)
				assert.True(t, cfg.AutoMigrate)
				assert.Equal(t, "file_encryption_key", cfg.KeyAlias)
				assert.Equal(t, KeyStoreWrapped, cfg.KeyStore)
				assert.False(t, cfg.KeyExportable)
				assert.Equal(t, WrapProviderGCPKMS, cfg.KeyWrapProvider)
				assert.Equal(t, SaltModeAlias, cfg.SaltMode)
				assert.Equal(t, "INFO", cfg.LogLevel)
				assert.False(t, cfg.OtelEnabled)
				assert.False(t, cfg.OtelInsecure)
				assert.Equal(t, 1.0, cfg.OtelSamplingRate)
				assert.True(t, cfg.MetricsEnabled)
			},
		},
		{
			name: "keeper wrapped store",
			envVars: map[string]string{
				"KEY_STORE":            "Wrapped",
				"KEY_WRAP_PROVIDER":    "keeper",
				"KEEPER_URI":           "base64key://",
				"KEY_EXPORTABLE":       "true",
				"PASSPHRASE_SALT_MODE": "install",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, KeyStoreWrapped, cfg.KeyStore)
				assert.Equal(t, WrapProviderKeeper, cfg.KeyWrapProvider)
				assert.Equal(t, "base64key://", cfg.KeeperURI)
				assert.True(t, cfg.KeyExportable)
				assert.Equal(t, SaltModeInstall, cfg.SaltMode)
			},
		},
		{
			name: "otel",
			envVars: map[string]string{
				"OTEL_ENABLED":       "true",
				"OTEL_ENDPOINT":      "collector:4317",
				"OTEL_INSECURE":      "true",
				"OTEL_SERVICE_NAME":  "envelope-test",
				"OTEL_SAMPLING_RATE": "0.25",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.OtelEnabled)
				assert.Equal(t, "collector:4317", cfg.OtelEndpoint)
				assert.True(t, cfg.OtelInsecure)
				assert.Equal(t, "envelope-test", cfg.OtelServiceName)
				assert.Equal(t, 0.25, cfg.OtelSamplingRate)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			tt.validate(t, Load())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DBDriver:         "sqlite",
			DatabaseURL:      ":memory:",
			KeyAlias:         "file_encryption_key",
			KeyStore:         KeyStoreWrapped,
			KeyWrapProvider:  WrapProviderKeeper,
			KeeperURI:        "base64key://",
			SaltMode:         SaltModeAlias,
			OtelSamplingRate: 1,
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "unknown driver", mutate: func(c *Config) { c.DBDriver = "postgres" }},
		{name: "missing database url", mutate: func(c *Config) { c.DatabaseURL = "" }},
		{name: "empty alias", mutate: func(c *Config) { c.KeyAlias = "" }},
		{name: "unknown key store", mutate: func(c *Config) { c.KeyStore = "hsm" }},
		{name: "keeper without uri", mutate: func(c *Config) { c.KeeperURI = "" }},
		{name: "kms without key name", mutate: func(c *Config) { c.KeyWrapProvider = WrapProviderGCPKMS }},
		{name: "unknown wrap provider", mutate: func(c *Config) { c.KeyWrapProvider = "aws" }},
		{name: "unknown salt mode", mutate: func(c *Config) { c.SaltMode = "random" }},
		{name: "sampling rate out of range", mutate: func(c *Config) { c.OtelSamplingRate = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	memory := valid()
	memory.KeyStore = KeyStoreMemory
	memory.KeeperURI = ""
	assert.NoError(t, memory.Validate())
}

func TestConfig_SlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (&Config{LogLevel: "DEBUG"}).SlogLevel())
	assert.Equal(t, slog.LevelWarn, (&Config{LogLevel: "WARN"}).SlogLevel())
	assert.Equal(t, slog.LevelError, (&Config{LogLevel: "ERROR"}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (&Config{LogLevel: "verbose"}).SlogLevel())
}
