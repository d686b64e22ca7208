// Package repository はデータアクセス層の実装を提供する。
package repository

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"inventory-envelope/internal/domain"
)

// ManagedKeyModel はgorm用のモデル定義。
type ManagedKeyModel struct {
	ID                           string    `gorm:"type:char(36);primaryKey"`
	Alias                        string    `gorm:"type:varchar(128);not null;uniqueIndex:uk_alias"`
	WrappedKey                   []byte    `gorm:"type:blob;not null"`
	Algorithm                    string    `gorm:"type:varchar(16);not null"`
	KeySize                      int       `gorm:"not null"`
	BlockMode                    string    `gorm:"type:varchar(16);not null"`
	Padding                      string    `gorm:"type:varchar(16);not null"`
	Purposes                     string    `gorm:"type:varchar(64);not null"`
	RandomizedEncryptionRequired bool      `gorm:"not null;default:false"`
	Exportable                   bool      `gorm:"not null;default:false"`
	CreatedAt                    time.Time `gorm:"type:datetime(6);not null;autoCreateTime"`
}

// TableName はテーブル名を返す。
func (ManagedKeyModel) TableName() string {
	return "managed_keys"
}

// BeforeCreate はレコード作成前にUUIDを生成する。
func (m *ManagedKeyModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

func (m *ManagedKeyModel) toDomain() *domain.ManagedKey {
	var purposes []domain.KeyPurpose
	for _, p := range strings.Split(m.Purposes, ",") {
		if p != "" {
			purposes = append(purposes, domain.KeyPurpose(p))
		}
	}
	return &domain.ManagedKey{
		ID:         m.ID,
		Alias:      m.Alias,
		WrappedKey: m.WrappedKey,
		Spec: domain.KeySpec{
			Algorithm:                    m.Algorithm,
			KeySize:                      m.KeySize,
			Purposes:                     purposes,
			BlockMode:                    m.BlockMode,
			Padding:                      m.Padding,
			RandomizedEncryptionRequired: m.RandomizedEncryptionRequired,
			Exportable:                   m.Exportable,
		},
		CreatedAt: m.CreatedAt,
	}
}

func newManagedKeyModel(key *domain.ManagedKey) *ManagedKeyModel {
	purposes := make([]string, len(key.Spec.Purposes))
	for i, p := range key.Spec.Purposes {
		purposes[i] = string(p)
	}
	return &ManagedKeyModel{
		ID:                           key.ID,
		Alias:                        key.Alias,
		WrappedKey:                   key.WrappedKey,
		Algorithm:                    key.Spec.Algorithm,
		KeySize:                      key.Spec.KeySize,
		BlockMode:                    key.Spec.BlockMode,
		Padding:                      key.Spec.Padding,
		Purposes:                     strings.Join(purposes, ","),
		RandomizedEncryptionRequired: key.Spec.RandomizedEncryptionRequired,
		Exportable:                   key.Spec.Exportable,
	}
}

// ManagedKeyRepository は管理鍵のデータアクセスを提供する。
type ManagedKeyRepository struct {
	db *gorm.DB
}

// NewManagedKeyRepository は新しいManagedKeyRepositoryを生成する。
func NewManagedKeyRepository(db *gorm.DB) *ManagedKeyRepository {
	return &ManagedKeyRepository{db: db}
}

// ExistsByAlias は指定されたエイリアスの鍵が存在するか確認する。
func (r *ManagedKeyRepository) ExistsByAlias(ctx context.Context, alias string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ManagedKeyModel{}).
		Where("alias = ?", alias).
		Count(&count).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to count keys by alias",
			"operation", "exists_by_alias",
			"alias", alias,
			"error", err,
		)
		return false, err
	}
	return count > 0, nil
}

// Create は新しい管理鍵を保存する。エイリアスが重複する場合はErrKeyAlreadyExistsを返す。
func (r *ManagedKeyRepository) Create(ctx context.Context, key *domain.ManagedKey) error {
	model := newManagedKeyModel(key)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrKeyAlreadyExists
		}
		slog.ErrorContext(ctx, "failed to create key",
			"operation", "create",
			"alias", key.Alias,
			"error", err,
		)
		return err
	}
	key.ID = model.ID
	key.CreatedAt = model.CreatedAt
	return nil
}

// FindByAlias は指定されたエイリアスの鍵を取得する。存在しない場合はnilを返す。
func (r *ManagedKeyRepository) FindByAlias(ctx context.Context, alias string) (*domain.ManagedKey, error) {
	var model ManagedKeyModel
	err := r.db.WithContext(ctx).
		Where("alias = ?", alias).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to find key",
			"operation", "find_by_alias",
			"alias", alias,
			"error", err,
		)
		return nil, err
	}
	return model.toDomain(), nil
}

// DeleteByAlias は指定されたエイリアスの鍵を削除する。存在しない場合は何もしない。
func (r *ManagedKeyRepository) DeleteByAlias(ctx context.Context, alias string) error {
	err := r.db.WithContext(ctx).
		Where("alias = ?", alias).
		Delete(&ManagedKeyModel{}).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete key",
			"operation", "delete_by_alias",
			"alias", alias,
			"error", err,
		)
		return err
	}
	return nil
}
