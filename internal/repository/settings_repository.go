package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingEntryModel はsettings_entriesテーブルのモデル。値は暗号化済みトークン。
type SettingEntryModel struct {
	Name      string    `gorm:"type:varchar(64);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"type:datetime(6);not null;autoUpdateTime"`
}

// TableName はテーブル名を返す。
func (SettingEntryModel) TableName() string {
	return "settings_entries"
}

// SettingsRepository は文字列のキーバリューストアを提供する。
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository は新しいSettingsRepositoryを生成する。
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get は指定された名前の値を取得する。存在しない場合はfound=falseを返す。
func (r *SettingsRepository) Get(ctx context.Context, name string) (string, bool, error) {
	var model SettingEntryModel
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		slog.ErrorContext(ctx, "failed to get settings entry",
			"operation", "get",
			"name", name,
			"error", err,
		)
		return "", false, err
	}
	return model.Value, true, nil
}

// Put は指定された名前の値を保存する（upsert）。
func (r *SettingsRepository) Put(ctx context.Context, name, value string) error {
	model := &SettingEntryModel{Name: name, Value: value}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(model).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to put settings entry",
			"operation", "put",
			"name", name,
			"error", err,
		)
		return err
	}
	return nil
}

// PutIfAbsent は指定された名前が未登録のときだけ値を保存する。既存の値は変更しない。
func (r *SettingsRepository) PutIfAbsent(ctx context.Context, name, value string) error {
	model := &SettingEntryModel{Name: name, Value: value}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(model).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to insert settings entry",
			"operation", "put_if_absent",
			"name", name,
			"error", err,
		)
		return err
	}
	return nil
}
