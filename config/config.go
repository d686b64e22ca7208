// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// 鍵ストアの種類。
const (
	KeyStoreWrapped = "wrapped"
	KeyStoreMemory  = "memory"
)

// 鍵ラップの提供元。
const (
	WrapProviderGCPKMS = "gcpkms"
	WrapProviderKeeper = "keeper"
)

// パスフレーズ導出に使うソルトの種類。
const (
	SaltModeAlias   = "alias"
	SaltModeInstall = "install"
)

// Config はアプリケーション設定を表す。
type Config struct {
	Port string

	DBDriver      string
	DatabaseURL   string
	AutoMigrate   bool
	MigrationsDir string

	KeyAlias        string
	KeyStore        string
	KeyExportable   bool
	KeyWrapProvider string
	KMSKeyName      string
	KeeperURI       string
	SaltMode        string

	LogLevel           string
	GoogleCloudProject string

	OtelEnabled      bool
	OtelEndpoint     string
	OtelInsecure     bool
	OtelServiceName  string
	OtelSamplingRate float64

	MetricsEnabled bool
}

// Load は.envと環境変数から設定を読み込む。既に設定済みの環境変数が優先される。
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port: env.GetString("PORT", "8080"),

		DBDriver:      strings.ToLower(env.GetString("DB_DRIVER", "sqlite")),
		DatabaseURL:   env.GetString("DATABASE_URL", "inventory.db"),
		AutoMigrate:   env.GetBool("AUTO_MIGRATE", true),
		MigrationsDir: env.GetString("MIGRATIONS_DIR", "migrations"),

		KeyAlias:        env.GetString("KEY_ALIAS", "file_encryption_key"),
		KeyStore:        strings.ToLower(env.GetString("KEY_STORE", KeyStoreWrapped)),
		KeyExportable:   env.GetBool("KEY_EXPORTABLE", false),
		KeyWrapProvider: strings.ToLower(env.GetString("KEY_WRAP_PROVIDER", WrapProviderGCPKMS)),
		KMSKeyName:      env.GetString("KMS_KEY_NAME", ""),
		KeeperURI:       env.GetString("KEEPER_URI", ""),
		SaltMode:        strings.ToLower(env.GetString("PASSPHRASE_SALT_MODE", SaltModeAlias)),

		LogLevel:           strings.ToUpper(env.GetString("LOG_LEVEL", "INFO")),
		GoogleCloudProject: env.GetString("GOOGLE_CLOUD_PROJECT", ""),

		OtelEnabled:      env.GetBool("OTEL_ENABLED", false),
		OtelEndpoint:     env.GetString("OTEL_ENDPOINT", "localhost:4317"),
		OtelInsecure:     env.GetBool("OTEL_INSECURE", false),
		OtelServiceName:  env.GetString("OTEL_SERVICE_NAME", "inventory-envelope"),
		OtelSamplingRate: env.GetFloat64("OTEL_SAMPLING_RATE", 1.0),

		MetricsEnabled: env.GetBool("METRICS_ENABLED", true),
	}
}

// Validate は設定値の組み合わせを検証する。
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or mysql, got %q", c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.KeyAlias == "" {
		return fmt.Errorf("KEY_ALIAS must not be empty")
	}

	switch c.KeyStore {
	case KeyStoreMemory:
	case KeyStoreWrapped:
		switch c.KeyWrapProvider {
		case WrapProviderGCPKMS:
			if c.KMSKeyName == "" {
				return fmt.Errorf("KMS_KEY_NAME is required when KEY_WRAP_PROVIDER=%s", WrapProviderGCPKMS)
			}
		case WrapProviderKeeper:
			if c.KeeperURI == "" {
				return fmt.Errorf("KEEPER_URI is required when KEY_WRAP_PROVIDER=%s", WrapProviderKeeper)
			}
		default:
			return fmt.Errorf("KEY_WRAP_PROVIDER must be gcpkms or keeper, got %q", c.KeyWrapProvider)
		}
	default:
		return fmt.Errorf("KEY_STORE must be wrapped or memory, got %q", c.KeyStore)
	}

	switch c.SaltMode {
	case SaltModeAlias, SaltModeInstall:
	default:
		return fmt.Errorf("PASSPHRASE_SALT_MODE must be alias or install, got %q", c.SaltMode)
	}

	if c.OtelSamplingRate < 0 || c.OtelSamplingRate > 1 {
		return fmt.Errorf("OTEL_SAMPLING_RATE must be between 0 and 1, got %v", c.OtelSamplingRate)
	}
	return nil
}

// SlogLevel はLOG_LEVELをslog.Levelに変換する。不明な値はINFOとして扱う。
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
