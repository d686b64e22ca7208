package repository

import (
	"context"
	"log/slog"
	"time"

	"inventory-envelope/internal/domain"

	"gorm.io/gorm"
)

// SchemaHistoryModel はschema_migrationsの1行。適用したファイルの名前も残す。
type SchemaHistoryModel struct {
	Version   string    `gorm:"column:version;primaryKey;type:varchar(14)"`
	Name      string    `gorm:"column:name;type:varchar(255);not null;default:''"`
	AppliedAt time.Time `gorm:"column:applied_at;type:datetime(6);not null"`
}

// TableName はテーブル名を返す。
func (SchemaHistoryModel) TableName() string {
	return "schema_migrations"
}

func (m *SchemaHistoryModel) toDomain() *domain.Migration {
	appliedAt := m.AppliedAt
	return &domain.Migration{
		Version:   m.Version,
		Name:      m.Name,
		AppliedAt: &appliedAt,
		Status:    domain.MigrationStatusApplied,
	}
}

// MigrationRepository はmanaged_keys・settings_entriesのスキーマ履歴を管理するリポジトリ。
type MigrationRepository struct {
	db *gorm.DB
}

// NewMigrationRepository は新しいMigrationRepositoryを生成する。
func NewMigrationRepository(db *gorm.DB) *MigrationRepository {
	return &MigrationRepository{db: db}
}

// EnsureTable は履歴テーブルを作成する。既にあれば足りない列だけ追加する。
func (r *MigrationRepository) EnsureTable(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&SchemaHistoryModel{}); err != nil {
		slog.ErrorContext(ctx, "failed to prepare schema history",
			"operation", "ensure_table",
			"error", err,
		)
		return err
	}
	return nil
}

// ListApplied は適用済みの版を番号順に返す。
func (r *MigrationRepository) ListApplied(ctx context.Context) ([]*domain.Migration, error) {
	var rows []SchemaHistoryModel
	if err := r.db.WithContext(ctx).Order("version ASC").Find(&rows).Error; err != nil {
		slog.ErrorContext(ctx, "failed to list schema history",
			"operation", "list_applied",
			"error", err,
		)
		return nil, err
	}

	applied := make([]*domain.Migration, 0, len(rows))
	for i := range rows {
		applied = append(applied, rows[i].toDomain())
	}
	return applied, nil
}

// IsApplied は指定した版が履歴にあるか確認する。
func (r *MigrationRepository) IsApplied(ctx context.Context, version string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&SchemaHistoryModel{}).
		Where("version = ?", version).
		Count(&count).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to look up schema history",
			"operation", "is_applied",
			"version", version,
			"error", err,
		)
		return false, err
	}
	return count > 0, nil
}

// RecordApplied は適用した版を履歴に書き込み、migrationを適用済みにする。
// txを渡すとそのトランザクション内で書き込む。nilならリポジトリのDBを使う。
func (r *MigrationRepository) RecordApplied(ctx context.Context, tx *gorm.DB, migration *domain.Migration) error {
	if tx == nil {
		tx = r.db
	}
	row := &SchemaHistoryModel{
		Version:   migration.Version,
		Name:      migration.Name,
		AppliedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		slog.ErrorContext(ctx, "failed to record schema history",
			"operation", "record_applied",
			"version", migration.Version,
			"error", err,
		)
		return err
	}
	migration.AppliedAt = &row.AppliedAt
	migration.Status = domain.MigrationStatusApplied
	return nil
}
