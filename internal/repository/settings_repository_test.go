package repository

import (
	"context"
	"testing"
)

func TestSettingsRepository_GetMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(setupTestDB(t))

	value, found, err := repo.Get(ctx, "enc_hide_sensitive")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Error("expected found=false, got true")
	}
	if value != "" {
		t.Errorf("expected empty value, got %q", value)
	}
}

func TestSettingsRepository_PutAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(setupTestDB(t))

	if err := repo.Put(ctx, "enc_allow_share", "token-1"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	value, found, err := repo.Get(ctx, "enc_allow_share")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found || value != "token-1" {
		t.Errorf("expected token-1, got %q (found=%v)", value, found)
	}

	// 上書き
	if err := repo.Put(ctx, "enc_allow_share", "token-2"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	value, _, err = repo.Get(ctx, "enc_allow_share")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "token-2" {
		t.Errorf("expected token-2, got %q", value)
	}
}

func TestSettingsRepository_EntriesAreIndependent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewSettingsRepository(db)

	if err := repo.Put(ctx, "enc_hide_sensitive", "a"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := repo.Put(ctx, "enc_default_quantity", "b"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var count int64
	if err := db.Model(&SettingEntryModel{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 records, got %d", count)
	}
}

func TestSettingsRepository_PutIfAbsentKeepsExisting(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(setupTestDB(t))

	if err := repo.PutIfAbsent(ctx, "passphrase_install_salt", "first"); err != nil {
		t.Fatalf("PutIfAbsent failed: %v", err)
	}
	if err := repo.PutIfAbsent(ctx, "passphrase_install_salt", "second"); err != nil {
		t.Fatalf("PutIfAbsent on existing entry failed: %v", err)
	}

	value, found, err := repo.Get(ctx, "passphrase_install_salt")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found || value != "first" {
		t.Errorf("expected first, got %q (found=%v)", value, found)
	}
}
