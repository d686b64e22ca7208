package usecase

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"inventory-envelope/internal/domain"

	"gorm.io/gorm"
)

// MigrationRepository はスキーマ履歴を管理するリポジトリのインターフェース。
type MigrationRepository interface {
	EnsureTable(ctx context.Context) error
	ListApplied(ctx context.Context) ([]*domain.Migration, error)
	IsApplied(ctx context.Context, version string) (bool, error)
	// RecordApplied はtx内で履歴を書き込む。
	RecordApplied(ctx context.Context, tx *gorm.DB, migration *domain.Migration) error
}

// MigrationService はmanaged_keys・settings_entriesのスキーマを版管理する。
// SQLファイルは任意のfs.FS（通常はos.DirFS(MIGRATIONS_DIR)）から読み込む。
type MigrationService struct {
	repo   MigrationRepository
	db     *gorm.DB
	source fs.FS
}

// NewMigrationService は新しいMigrationServiceを生成する。
func NewMigrationService(repo MigrationRepository, db *gorm.DB, source fs.FS) *MigrationService {
	return &MigrationService{
		repo:   repo,
		db:     db,
		source: source,
	}
}

func (s *MigrationService) scanMigrationFiles() ([]*domain.Migration, error) {
	entries, err := fs.ReadDir(s.source, ".")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMigrationFileNotFound, err)
	}

	var migrations []*domain.Migration
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}

		version, name, err := parseMigrationFileName(entry.Name())
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, &domain.Migration{
			Version:  version,
			Name:     name,
			FilePath: entry.Name(),
			Status:   domain.MigrationStatusPending,
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// parseMigrationFileName は {version}_{name}.sql 形式のファイル名を分解する。
func parseMigrationFileName(filename string) (version, name string, err error) {
	version, name, ok := strings.Cut(strings.TrimSuffix(filename, ".sql"), "_")
	if !ok || version == "" || name == "" {
		return "", "", fmt.Errorf("%w: %s (expected format: {version}_{name}.sql)", domain.ErrInvalidMigrationFile, filename)
	}
	return version, name, nil
}

// ApplyMigrations は未適用マイグレーションを番号順に実行し、適用件数を返す。
func (s *MigrationService) ApplyMigrations(ctx context.Context) (int, error) {
	if err := s.repo.EnsureTable(ctx); err != nil {
		return 0, fmt.Errorf("%w: ensuring history table: %v", domain.ErrMigrationFailed, err)
	}

	pending, err := s.PendingMigrations(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list pending migrations",
			"operation", "apply_migrations",
			"error", err,
		)
		return 0, err
	}

	applied := 0
	for _, migration := range pending {
		if err := s.applyMigration(ctx, migration); err != nil {
			slog.ErrorContext(ctx, "failed to apply migration",
				"operation", "apply_migrations",
				"version", migration.Version,
				"error", err,
			)
			return applied, fmt.Errorf("%w: version %s: %v", domain.ErrMigrationFailed, migration.Version, err)
		}
		slog.InfoContext(ctx, "migration applied",
			"operation", "apply_migrations",
			"version", migration.Version,
			"name", migration.Name,
		)
		applied++
	}
	return applied, nil
}

// PendingMigrations は未適用のマイグレーションを番号順に返す。
func (s *MigrationService) PendingMigrations(ctx context.Context) ([]*domain.Migration, error) {
	all, err := s.scanMigrationFiles()
	if err != nil {
		return nil, err
	}

	var pending []*domain.Migration
	for _, migration := range all {
		applied, err := s.repo.IsApplied(ctx, migration.Version)
		if err != nil {
			return nil, fmt.Errorf("checking migration %s: %w", migration.Version, err)
		}
		if !applied {
			pending = append(pending, migration)
		}
	}
	return pending, nil
}

func (s *MigrationService) applyMigration(ctx context.Context, migration *domain.Migration) error {
	sqlBytes, err := fs.ReadFile(s.source, migration.FilePath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", migration.FilePath, err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range splitStatements(string(sqlBytes)) {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("executing migration SQL: %w", err)
			}
		}

		if err := s.repo.RecordApplied(ctx, tx, migration); err != nil {
			return fmt.Errorf("recording migration: %w", err)
		}
		return nil
	})
}

// splitStatements はセミコロン区切りのSQLを文ごとに分ける。
// MySQLドライバは1回のExecで複数文を受け付けない。
func splitStatements(sql string) []string {
	var stmts []string
	for _, part := range strings.Split(sql, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// GetMigrationStatus は全マイグレーションの適用状況を返す。
func (s *MigrationService) GetMigrationStatus(ctx context.Context) ([]*domain.Migration, error) {
	if err := s.repo.EnsureTable(ctx); err != nil {
		return nil, fmt.Errorf("ensuring history table: %w", err)
	}

	all, err := s.scanMigrationFiles()
	if err != nil {
		return nil, err
	}

	applied, err := s.repo.ListApplied(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch applied migrations",
			"operation", "get_migration_status",
			"error", err,
		)
		return nil, fmt.Errorf("failed to fetch applied migrations: %w", err)
	}

	appliedMap := make(map[string]*domain.Migration, len(applied))
	for _, migration := range applied {
		appliedMap[migration.Version] = migration
	}
	for _, migration := range all {
		if a, ok := appliedMap[migration.Version]; ok {
			migration.Status = domain.MigrationStatusApplied
			migration.AppliedAt = a.AppliedAt
		}
	}
	return all, nil
}
