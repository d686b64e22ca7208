package repository

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"inventory-envelope/internal/domain"
)

func TestMigrationRepository_RecordAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewMigrationRepository(setupTestDB(t))

	if err := repo.EnsureTable(ctx); err != nil {
		t.Fatalf("EnsureTable failed: %v", err)
	}
	// 2回目も成功する
	if err := repo.EnsureTable(ctx); err != nil {
		t.Fatalf("EnsureTable failed on second call: %v", err)
	}

	applied, err := repo.IsApplied(ctx, "001")
	if err != nil {
		t.Fatalf("IsApplied failed: %v", err)
	}
	if applied {
		t.Error("expected applied=false before recording")
	}

	migration := &domain.Migration{Version: "001", Name: "create_managed_keys", Status: domain.MigrationStatusPending}
	if err := repo.RecordApplied(ctx, nil, migration); err != nil {
		t.Fatalf("RecordApplied failed: %v", err)
	}
	if !migration.IsApplied() || migration.AppliedAt == nil {
		t.Error("expected RecordApplied to mark the migration applied")
	}

	applied, err = repo.IsApplied(ctx, "001")
	if err != nil {
		t.Fatalf("IsApplied failed: %v", err)
	}
	if !applied {
		t.Error("expected applied=true after recording")
	}

	migrations, err := repo.ListApplied(ctx)
	if err != nil {
		t.Fatalf("ListApplied failed: %v", err)
	}
	if len(migrations) != 1 || migrations[0].Version != "001" {
		t.Fatalf("expected one applied migration 001, got %+v", migrations)
	}
	if migrations[0].Name != "create_managed_keys" {
		t.Errorf("expected name create_managed_keys, got %q", migrations[0].Name)
	}
	if !migrations[0].IsApplied() || migrations[0].AppliedAt == nil {
		t.Error("expected applied status with timestamp")
	}
}

func TestMigrationRepository_RecordAppliedRollsBackWithTx(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewMigrationRepository(db)
	if err := repo.EnsureTable(ctx); err != nil {
		t.Fatalf("EnsureTable failed: %v", err)
	}

	errBoom := errors.New("boom")
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.RecordApplied(ctx, tx, &domain.Migration{Version: "002", Name: "create_settings_entries"}); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected transaction error, got %v", err)
	}

	applied, err := repo.IsApplied(ctx, "002")
	if err != nil {
		t.Fatalf("IsApplied failed: %v", err)
	}
	if applied {
		t.Error("expected history row to be rolled back with the transaction")
	}
}
