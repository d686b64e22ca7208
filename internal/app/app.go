// Package app は設定からサービス一式を組み立てる。
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gorm.io/gorm"

	"inventory-envelope/config"
	"inventory-envelope/internal/domain"
	"inventory-envelope/internal/infra"
	"inventory-envelope/internal/metrics"
	"inventory-envelope/internal/repository"
	"inventory-envelope/internal/usecase"
)

// App は組み立て済みのサービス群。
type App struct {
	DB          *gorm.DB
	KeyStore    usecase.SecureKeyStore
	Provisioner *usecase.KeyProvisioner
	Envelope    *usecase.EnvelopeService
	Passphrase  *usecase.PassphraseService
	Settings    *usecase.SettingsService
	Transfer    *usecase.TransferService
	Metrics     *metrics.Metrics

	closers []func() error
}

// New は設定に従ってDB・鍵ストア・各サービスを初期化する。
// 鍵を用意できない場合はErrProvisioningFailedを返す。
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	db, err := infra.NewDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	if cfg.AutoMigrate {
		if _, err := Migrate(ctx, cfg, db); err != nil {
			a.Close()
			return nil, err
		}
	}

	store, closeStore, err := NewKeyStore(ctx, cfg, db)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.KeyStore = store
	a.closers = append(a.closers, closeStore)

	if cfg.MetricsEnabled {
		a.Metrics = metrics.New(nil)
	}

	a.Provisioner = usecase.NewKeyProvisioner(store, KeySpec(cfg))
	a.Envelope, err = usecase.NewEnvelopeService(ctx, store, a.Provisioner, cfg.KeyAlias,
		usecase.WithMetrics(a.recorder()))
	if err != nil {
		a.Close()
		return nil, err
	}

	settingsRepo := repository.NewSettingsRepository(db)
	a.Settings = usecase.NewSettingsService(settingsRepo, a.Envelope, a.recorder())
	a.Transfer = usecase.NewTransferService(a.Envelope, a.Settings)
	a.Passphrase = usecase.NewPassphraseService(store, cfg.KeyAlias, SaltSource(cfg, settingsRepo))

	return a, nil
}

func (a *App) recorder() usecase.MetricsRecorder {
	if a.Metrics == nil {
		return nil
	}
	return a.Metrics
}

// Close は開いた接続を逆順に閉じる。
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// KeySpec は設定を反映した鍵仕様を返す。
func KeySpec(cfg *config.Config) domain.KeySpec {
	spec := domain.DefaultKeySpec()
	spec.Exportable = cfg.KeyExportable
	return spec
}

// SaltSource はPASSPHRASE_SALT_MODEに対応するソルト提供元を返す。
func SaltSource(cfg *config.Config, store usecase.KeyValueStore) usecase.SaltSource {
	if cfg.SaltMode == config.SaltModeInstall {
		return usecase.NewInstallSalt(store)
	}
	return usecase.AliasSalt{}
}

// NewKeyStore はKEY_STOREとKEY_WRAP_PROVIDERに対応する鍵ストアを生成する。
func NewKeyStore(ctx context.Context, cfg *config.Config, db *gorm.DB) (usecase.SecureKeyStore, func() error, error) {
	noop := func() error { return nil }

	if cfg.KeyStore == config.KeyStoreMemory {
		slog.WarnContext(ctx, "using in-memory key store; tokens will not survive a restart",
			"operation", "init_key_store",
		)
		return usecase.NewMemoryKeyStore(), noop, nil
	}

	var (
		wrapper usecase.KMSClient
		closer  func() error
	)
	switch cfg.KeyWrapProvider {
	case config.WrapProviderGCPKMS:
		client, err := infra.NewKMSClient(ctx, cfg.KMSKeyName)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing KMS client: %w", err)
		}
		wrapper, closer = client, client.Close
	case config.WrapProviderKeeper:
		client, err := infra.NewKeeperClient(ctx, cfg.KeeperURI)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing keeper: %w", err)
		}
		wrapper, closer = client, client.Close
	default:
		return nil, nil, fmt.Errorf("unsupported KEY_WRAP_PROVIDER %q", cfg.KeyWrapProvider)
	}

	repo := repository.NewManagedKeyRepository(db)
	return usecase.NewKeyStoreService(repo, wrapper), closer, nil
}

// Migrate はMIGRATIONS_DIRの未適用マイグレーションを実行する。
func Migrate(ctx context.Context, cfg *config.Config, db *gorm.DB) (int, error) {
	return NewMigrationService(cfg, db).ApplyMigrations(ctx)
}

// NewMigrationService はMIGRATIONS_DIRを読むMigrationServiceを生成する。
func NewMigrationService(cfg *config.Config, db *gorm.DB) *usecase.MigrationService {
	return usecase.NewMigrationService(repository.NewMigrationRepository(db), db, os.DirFS(cfg.MigrationsDir))
}
