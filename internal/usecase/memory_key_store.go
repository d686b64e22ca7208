package usecase

import (
	"bytes"
	"context"
	"sync"

	"inventory-envelope/internal/domain"
)

type memoryKey struct {
	material []byte
	spec     domain.KeySpec
	handle   KeyHandle
}

// MemoryKeyStore はプロセス内に鍵を保持するSecureKeyStore実装。
// テストおよび永続化不要な実行（KEY_STORE=memory）で使う。
type MemoryKeyStore struct {
	mu   sync.RWMutex
	keys map[string]*memoryKey
}

// NewMemoryKeyStore は空のMemoryKeyStoreを生成する。
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{keys: make(map[string]*memoryKey)}
}

// KeyExists は指定されたエイリアスの鍵が存在するか確認する。
func (m *MemoryKeyStore) KeyExists(ctx context.Context, alias string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.keys[alias]
	return ok, nil
}

// GenerateKey は新しい鍵を生成する。
func (m *MemoryKeyStore) GenerateKey(ctx context.Context, alias string, spec domain.KeySpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[alias]; ok {
		return domain.ErrKeyAlreadyExists
	}

	material, err := generateAESKey()
	if err != nil {
		return err
	}
	handle, err := newAESGCMHandle(material)
	if err != nil {
		return err
	}
	m.keys[alias] = &memoryKey{material: material, spec: spec, handle: handle}
	return nil
}

// GetKey は指定されたエイリアスの鍵ハンドルを返す。
func (m *MemoryKeyStore) GetKey(ctx context.Context, alias string) (KeyHandle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k, ok := m.keys[alias]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return k.handle, nil
}

// ExportRawMaterial はエクスポート可能な鍵の素材のコピーを返す。
func (m *MemoryKeyStore) ExportRawMaterial(ctx context.Context, alias string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k, ok := m.keys[alias]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	if !k.spec.Exportable {
		return nil, domain.ErrExportNotPermitted
	}
	return bytes.Clone(k.material), nil
}

// DeleteKey は鍵を削除する。存在しない場合は何もしない。
func (m *MemoryKeyStore) DeleteKey(ctx context.Context, alias string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k, ok := m.keys[alias]; ok {
		zero(k.material)
		delete(m.keys, alias)
	}
	return nil
}
