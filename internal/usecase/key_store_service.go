// Package usecase はアプリケーションのユースケースを実装する。
package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"inventory-envelope/internal/domain"
)

// KeyHandle は鍵ハンドルのインターフェース。生の鍵素材は公開しない。
type KeyHandle interface {
	Seal(nonce, plaintext []byte) ([]byte, error)
	Open(nonce, ciphertext []byte) ([]byte, error)
}

// SecureKeyStore は鍵の生成・保管・利用を担うストアのインターフェース。
type SecureKeyStore interface {
	KeyExists(ctx context.Context, alias string) (bool, error)
	GenerateKey(ctx context.Context, alias string, spec domain.KeySpec) error
	GetKey(ctx context.Context, alias string) (KeyHandle, error)
	// ExportRawMaterial はエクスポートが許可されていない鍵に対してErrExportNotPermittedを返す。
	ExportRawMaterial(ctx context.Context, alias string) ([]byte, error)
	DeleteKey(ctx context.Context, alias string) error
}

// ManagedKeyRepository はデータアクセスのインターフェース。
type ManagedKeyRepository interface {
	ExistsByAlias(ctx context.Context, alias string) (bool, error)
	Create(ctx context.Context, key *domain.ManagedKey) error
	FindByAlias(ctx context.Context, alias string) (*domain.ManagedKey, error)
	DeleteByAlias(ctx context.Context, alias string) error
}

// KMSClient は鍵のラップ/アンラップのインターフェース。
type KMSClient interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// KeyStoreService はKMSでラップした鍵をDBに保存するSecureKeyStore実装。
// アンラップした鍵はハンドルとしてエイリアスごとにキャッシュする。
type KeyStoreService struct {
	repo      ManagedKeyRepository
	kmsClient KMSClient
	handles   sync.Map // alias -> KeyHandle
}

// NewKeyStoreService は新しいKeyStoreServiceを生成する。
func NewKeyStoreService(repo ManagedKeyRepository, kmsClient KMSClient) *KeyStoreService {
	return &KeyStoreService{
		repo:      repo,
		kmsClient: kmsClient,
	}
}

// generateAESKey はAES-256鍵を生成する。
func generateAESKey() ([]byte, error) {
	key := make([]byte, domain.KeySizeBits/8)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating random key: %w", err)
	}
	return key, nil
}

// KeyExists は指定されたエイリアスの鍵が存在するか確認する。
func (s *KeyStoreService) KeyExists(ctx context.Context, alias string) (bool, error) {
	exists, err := s.repo.ExistsByAlias(ctx, alias)
	if err != nil {
		return false, fmt.Errorf("checking existing key: %w", err)
	}
	return exists, nil
}

// GenerateKey は新しい鍵を生成し、KMSでラップして保存する。
func (s *KeyStoreService) GenerateKey(ctx context.Context, alias string, spec domain.KeySpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	plainKey, err := generateAESKey()
	if err != nil {
		return err
	}
	defer zero(plainKey)

	wrappedKey, err := s.kmsClient.Encrypt(ctx, plainKey)
	if err != nil {
		return fmt.Errorf("wrapping key: %w", err)
	}

	key := &domain.ManagedKey{
		Alias:      alias,
		WrappedKey: wrappedKey,
		Spec:       spec,
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return fmt.Errorf("creating key: %w", err)
	}
	return nil
}

// GetKey は指定されたエイリアスの鍵ハンドルを返す。
func (s *KeyStoreService) GetKey(ctx context.Context, alias string) (KeyHandle, error) {
	if h, ok := s.handles.Load(alias); ok {
		return h.(KeyHandle), nil
	}

	plainKey, err := s.unwrap(ctx, alias)
	if err != nil {
		return nil, err
	}
	defer zero(plainKey)

	handle, err := newAESGCMHandle(plainKey)
	if err != nil {
		return nil, err
	}
	actual, _ := s.handles.LoadOrStore(alias, KeyHandle(handle))
	return actual.(KeyHandle), nil
}

// ExportRawMaterial はエクスポート可能な鍵の生の素材を返す。
func (s *KeyStoreService) ExportRawMaterial(ctx context.Context, alias string) ([]byte, error) {
	key, err := s.findKey(ctx, alias)
	if err != nil {
		return nil, err
	}
	if !key.Spec.Exportable {
		return nil, domain.ErrExportNotPermitted
	}

	plainKey, err := s.kmsClient.Decrypt(ctx, key.WrappedKey)
	if err != nil {
		return nil, fmt.Errorf("unwrapping key: %w", err)
	}
	return plainKey, nil
}

// DeleteKey は鍵を削除し、キャッシュ済みハンドルを破棄する。
func (s *KeyStoreService) DeleteKey(ctx context.Context, alias string) error {
	if err := s.repo.DeleteByAlias(ctx, alias); err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}
	s.handles.Delete(alias)
	return nil
}

func (s *KeyStoreService) findKey(ctx context.Context, alias string) (*domain.ManagedKey, error) {
	key, err := s.repo.FindByAlias(ctx, alias)
	if err != nil {
		return nil, fmt.Errorf("finding key: %w", err)
	}
	if key == nil {
		return nil, domain.ErrKeyNotFound
	}
	return key, nil
}

func (s *KeyStoreService) unwrap(ctx context.Context, alias string) ([]byte, error) {
	key, err := s.findKey(ctx, alias)
	if err != nil {
		return nil, err
	}

	plainKey, err := s.kmsClient.Decrypt(ctx, key.WrappedKey)
	if err != nil {
		return nil, fmt.Errorf("unwrapping key: %w", err)
	}
	return plainKey, nil
}
