package usecase

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"inventory-envelope/internal/domain"
)

// mockManagedKeyRepository はテスト用のモック。
type mockManagedKeyRepository struct {
	mu        sync.Mutex
	keys      map[string]*domain.ManagedKey
	existsErr error
	createErr error
	findErr   error
}

func newMockManagedKeyRepository() *mockManagedKeyRepository {
	return &mockManagedKeyRepository{keys: make(map[string]*domain.ManagedKey)}
}

func (m *mockManagedKeyRepository) ExistsByAlias(ctx context.Context, alias string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.keys[alias]
	return ok, nil
}

func (m *mockManagedKeyRepository) Create(ctx context.Context, key *domain.ManagedKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.keys[key.Alias]; ok {
		return domain.ErrKeyAlreadyExists
	}
	m.keys[key.Alias] = key
	return nil
}

func (m *mockManagedKeyRepository) FindByAlias(ctx context.Context, alias string) (*domain.ManagedKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.keys[alias], nil
}

func (m *mockManagedKeyRepository) DeleteByAlias(ctx context.Context, alias string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, alias)
	return nil
}

// mockKMSClient は先頭に固定の印を付けるだけのラッパー。
type mockKMSClient struct {
	mu           sync.Mutex
	encryptErr   error
	decryptErr   error
	decryptCalls int
}

var wrapPrefix = []byte("wrapped:")

func (m *mockKMSClient) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	if m.encryptErr != nil {
		return nil, m.encryptErr
	}
	return append(bytes.Clone(wrapPrefix), plaintext...), nil
}

func (m *mockKMSClient) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	m.mu.Lock()
	m.decryptCalls++
	m.mu.Unlock()
	if m.decryptErr != nil {
		return nil, m.decryptErr
	}
	if !bytes.HasPrefix(ciphertext, wrapPrefix) {
		return nil, errors.New("not wrapped by this client")
	}
	return bytes.Clone(ciphertext[len(wrapPrefix):]), nil
}

func TestKeyStoreService_GenerateKey(t *testing.T) {
	ctx := context.Background()
	repo := newMockManagedKeyRepository()
	service := NewKeyStoreService(repo, &mockKMSClient{})

	if err := service.GenerateKey(ctx, "test-key", domain.DefaultKeySpec()); err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	stored := repo.keys["test-key"]
	if stored == nil {
		t.Fatal("expected key to be stored")
	}
	if !bytes.HasPrefix(stored.WrappedKey, wrapPrefix) {
		t.Error("expected stored key to be wrapped")
	}
	if len(stored.WrappedKey) != len(wrapPrefix)+32 {
		t.Errorf("expected 32-byte key material, got %d", len(stored.WrappedKey)-len(wrapPrefix))
	}

	exists, err := service.KeyExists(ctx, "test-key")
	if err != nil || !exists {
		t.Errorf("expected key to exist, got exists=%v err=%v", exists, err)
	}
}

func TestKeyStoreService_GenerateKey_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unsupported spec", func(t *testing.T) {
		service := NewKeyStoreService(newMockManagedKeyRepository(), &mockKMSClient{})
		spec := domain.DefaultKeySpec()
		spec.BlockMode = "CBC"
		if err := service.GenerateKey(ctx, "k", spec); !errors.Is(err, domain.ErrUnsupportedKeySpec) {
			t.Errorf("expected ErrUnsupportedKeySpec, got %v", err)
		}
	})

	t.Run("kms failure", func(t *testing.T) {
		repo := newMockManagedKeyRepository()
		service := NewKeyStoreService(repo, &mockKMSClient{encryptErr: errors.New("kms unavailable")})
		if err := service.GenerateKey(ctx, "k", domain.DefaultKeySpec()); err == nil {
			t.Error("expected error, got nil")
		}
		if len(repo.keys) != 0 {
			t.Error("expected nothing to be stored")
		}
	})

	t.Run("duplicate alias", func(t *testing.T) {
		service := NewKeyStoreService(newMockManagedKeyRepository(), &mockKMSClient{})
		if err := service.GenerateKey(ctx, "k", domain.DefaultKeySpec()); err != nil {
			t.Fatalf("first GenerateKey failed: %v", err)
		}
		if err := service.GenerateKey(ctx, "k", domain.DefaultKeySpec()); !errors.Is(err, domain.ErrKeyAlreadyExists) {
			t.Errorf("expected ErrKeyAlreadyExists, got %v", err)
		}
	})
}

func TestKeyStoreService_GetKey(t *testing.T) {
	ctx := context.Background()
	kms := &mockKMSClient{}
	service := NewKeyStoreService(newMockManagedKeyRepository(), kms)

	if _, err := service.GetKey(ctx, "missing"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}

	if err := service.GenerateKey(ctx, "test-key", domain.DefaultKeySpec()); err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	handle, err := service.GetKey(ctx, "test-key")
	if err != nil {
		t.Fatalf("GetKey failed: %v", err)
	}
	nonce := make([]byte, domain.NonceSize)
	sealed, err := handle.Seal(nonce, []byte("hello"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if len(sealed) != len("hello")+domain.TagSize {
		t.Errorf("expected %d sealed bytes, got %d", len("hello")+domain.TagSize, len(sealed))
	}

	again, err := service.GetKey(ctx, "test-key")
	if err != nil {
		t.Fatalf("second GetKey failed: %v", err)
	}
	opened, err := again.Open(nonce, sealed)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if string(opened) != "hello" {
		t.Errorf("expected hello, got %q", opened)
	}
	if kms.decryptCalls != 1 {
		t.Errorf("expected key to be unwrapped once, got %d", kms.decryptCalls)
	}
}

func TestKeyStoreService_ExportRawMaterial(t *testing.T) {
	ctx := context.Background()

	t.Run("not exportable", func(t *testing.T) {
		service := NewKeyStoreService(newMockManagedKeyRepository(), &mockKMSClient{})
		if err := service.GenerateKey(ctx, "k", domain.DefaultKeySpec()); err != nil {
			t.Fatalf("GenerateKey failed: %v", err)
		}
		if _, err := service.ExportRawMaterial(ctx, "k"); !errors.Is(err, domain.ErrExportNotPermitted) {
			t.Errorf("expected ErrExportNotPermitted, got %v", err)
		}
	})

	t.Run("exportable", func(t *testing.T) {
		repo := newMockManagedKeyRepository()
		service := NewKeyStoreService(repo, &mockKMSClient{})
		spec := domain.DefaultKeySpec()
		spec.Exportable = true
		if err := service.GenerateKey(ctx, "k", spec); err != nil {
			t.Fatalf("GenerateKey failed: %v", err)
		}
		material, err := service.ExportRawMaterial(ctx, "k")
		if err != nil {
			t.Fatalf("ExportRawMaterial failed: %v", err)
		}
		if !bytes.Equal(material, repo.keys["k"].WrappedKey[len(wrapPrefix):]) {
			t.Error("exported material does not match stored key")
		}
	})

	t.Run("missing", func(t *testing.T) {
		service := NewKeyStoreService(newMockManagedKeyRepository(), &mockKMSClient{})
		if _, err := service.ExportRawMaterial(ctx, "k"); !errors.Is(err, domain.ErrKeyNotFound) {
			t.Errorf("expected ErrKeyNotFound, got %v", err)
		}
	})
}

func TestKeyStoreService_DeleteKey(t *testing.T) {
	ctx := context.Background()
	service := NewKeyStoreService(newMockManagedKeyRepository(), &mockKMSClient{})

	if err := service.GenerateKey(ctx, "k", domain.DefaultKeySpec()); err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	if _, err := service.GetKey(ctx, "k"); err != nil {
		t.Fatalf("GetKey failed: %v", err)
	}
	if err := service.DeleteKey(ctx, "k"); err != nil {
		t.Fatalf("DeleteKey failed: %v", err)
	}
	if _, err := service.GetKey(ctx, "k"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Errorf("expected cached handle to be dropped, got %v", err)
	}
}
