package repository

import (
	"context"
	"errors"
	"testing"

	"inventory-envelope/internal/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB はテスト用のインメモリSQLiteデータベースを作成する。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// :memory:は接続ごとに別DBになるので1本に絞る
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	statements := []string{
		`CREATE TABLE managed_keys (
			id TEXT PRIMARY KEY,
			alias TEXT NOT NULL,
			wrapped_key BLOB NOT NULL,
			algorithm TEXT NOT NULL,
			key_size INTEGER NOT NULL,
			block_mode TEXT NOT NULL,
			padding TEXT NOT NULL,
			purposes TEXT NOT NULL,
			randomized_encryption_required BOOLEAN NOT NULL DEFAULT 0,
			exportable BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(alias)
		)`,
		`CREATE TABLE settings_entries (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("failed to create table: %v", err)
		}
	}

	return db
}

func newTestKey(alias string) *domain.ManagedKey {
	return &domain.ManagedKey{
		Alias:      alias,
		WrappedKey: []byte("wrapped-key-1"),
		Spec:       domain.DefaultKeySpec(),
	}
}

func TestManagedKeyRepository_ExistsByAlias(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewManagedKeyRepository(db)

	if err := repo.Create(ctx, newTestKey("file_encryption_key")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	exists, err := repo.ExistsByAlias(ctx, "file_encryption_key")
	if err != nil {
		t.Fatalf("ExistsByAlias failed: %v", err)
	}
	if !exists {
		t.Error("expected exists=true, got false")
	}

	exists, err = repo.ExistsByAlias(ctx, "other_key")
	if err != nil {
		t.Fatalf("ExistsByAlias failed: %v", err)
	}
	if exists {
		t.Error("expected exists=false, got true")
	}
}

func TestManagedKeyRepository_Create(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewManagedKeyRepository(db)

	key := newTestKey("file_encryption_key")
	if err := repo.Create(ctx, key); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// UUID自動生成を確認
	if key.ID == "" {
		t.Error("expected ID to be generated, got empty")
	}
	if key.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set, got zero value")
	}

	// 同じエイリアスは二重に作成できない
	err := repo.Create(ctx, newTestKey("file_encryption_key"))
	if !errors.Is(err, domain.ErrKeyAlreadyExists) {
		t.Errorf("want ErrKeyAlreadyExists, got %v", err)
	}

	var count int64
	if err := db.Model(&ManagedKeyModel{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 record, got %d", count)
	}
}

func TestManagedKeyRepository_FindByAlias(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewManagedKeyRepository(db)

	key := newTestKey("file_encryption_key")
	key.Spec.Exportable = true
	if err := repo.Create(ctx, key); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := repo.FindByAlias(ctx, "file_encryption_key")
	if err != nil {
		t.Fatalf("FindByAlias failed: %v", err)
	}
	if found == nil {
		t.Fatal("expected key, got nil")
	}
	if string(found.WrappedKey) != "wrapped-key-1" {
		t.Errorf("expected wrapped key wrapped-key-1, got %s", found.WrappedKey)
	}
	if err := found.Spec.Validate(); err != nil {
		t.Errorf("expected stored spec to round-trip, got %v", err)
	}
	if !found.Spec.Exportable {
		t.Error("expected exportable=true")
	}

	// 存在しない場合はnil
	missing, err := repo.FindByAlias(ctx, "missing")
	if err != nil {
		t.Fatalf("FindByAlias failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil, got %+v", missing)
	}
}

func TestManagedKeyRepository_DeleteByAlias(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewManagedKeyRepository(db)

	if err := repo.Create(ctx, newTestKey("file_encryption_key")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.DeleteByAlias(ctx, "file_encryption_key"); err != nil {
		t.Fatalf("DeleteByAlias failed: %v", err)
	}

	exists, err := repo.ExistsByAlias(ctx, "file_encryption_key")
	if err != nil {
		t.Fatalf("ExistsByAlias failed: %v", err)
	}
	if exists {
		t.Error("expected key to be deleted")
	}

	// 存在しないエイリアスの削除はエラーにならない
	if err := repo.DeleteByAlias(ctx, "missing"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
