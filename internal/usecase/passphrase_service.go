package usecase

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/crypto/pbkdf2"

	"inventory-envelope/internal/domain"
)

const (
	passphraseIterations = 100000
	passphraseKeyLen     = 32
	installSaltSize      = 16

	// InstallSaltEntry はインストール固有ソルトの保存名。
	InstallSaltEntry = "passphrase_install_salt"
)

// KeyValueStore は設定値を名前で保存する永続ストア。
type KeyValueStore interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Put(ctx context.Context, name, value string) error
	// PutIfAbsent は未登録の名前にだけ値を書き込み、既存の値は残す。
	PutIfAbsent(ctx context.Context, name, value string) error
}

// SaltSource はパスフレーズ導出に使うソルトを提供する。
type SaltSource interface {
	Salt(ctx context.Context, alias string) ([]byte, error)
}

// AliasSalt はエイリアス自体をソルトとして使う。
type AliasSalt struct{}

// Salt はエイリアスのバイト列を返す。
func (AliasSalt) Salt(_ context.Context, alias string) ([]byte, error) {
	return []byte(alias), nil
}

// InstallSalt はインストールごとに生成したランダムなソルトを使う。
// 初回に生成してKeyValueStoreへ保存し、以降は同じ値を返す。
type InstallSalt struct {
	store KeyValueStore
}

// NewInstallSalt は新しいInstallSaltを生成する。
func NewInstallSalt(store KeyValueStore) *InstallSalt {
	return &InstallSalt{store: store}
}

// Salt は保存済みのソルトを返す。無ければ生成して保存する。
// 同時に初回生成した場合も、先に保存された値を全員が使う。
func (s *InstallSalt) Salt(ctx context.Context, _ string) ([]byte, error) {
	stored, found, err := s.store.Get(ctx, InstallSaltEntry)
	if err != nil {
		return nil, fmt.Errorf("reading install salt: %w", err)
	}
	if found {
		return decodeInstallSalt(stored)
	}

	salt := make([]byte, installSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating install salt: %w", err)
	}
	if err := s.store.PutIfAbsent(ctx, InstallSaltEntry, base64.StdEncoding.EncodeToString(salt)); err != nil {
		return nil, fmt.Errorf("storing install salt: %w", err)
	}

	stored, found, err = s.store.Get(ctx, InstallSaltEntry)
	if err != nil {
		return nil, fmt.Errorf("reading install salt: %w", err)
	}
	if !found {
		return nil, errors.New("install salt missing after insert")
	}
	return decodeInstallSalt(stored)
}

// 壊れたソルトを作り直すと既存DBが開けなくなるのでエラーにする。
func decodeInstallSalt(stored string) ([]byte, error) {
	salt, err := base64.StdEncoding.DecodeString(stored)
	if err != nil || len(salt) != installSaltSize {
		return nil, fmt.Errorf("%w: stored install salt is not %d bytes of base64", domain.ErrParseFailed, installSaltSize)
	}
	return salt, nil
}

// PassphraseService は暗号化DB用のパスフレーズを提供する。
// 鍵素材を取り出せるストアではその素材を、取り出せない場合はPBKDF2で導出した値を使う。
// 結果はプロセス内で一度だけ計算される。
type PassphraseService struct {
	store SecureKeyStore
	alias string
	salt  SaltSource

	mu     sync.Mutex
	cached []byte
}

// NewPassphraseService は新しいPassphraseServiceを生成する。saltがnilの場合はAliasSaltを使う。
func NewPassphraseService(store SecureKeyStore, alias string, salt SaltSource) *PassphraseService {
	if salt == nil {
		salt = AliasSalt{}
	}
	if alias == "" {
		alias = domain.DefaultKeyAlias
	}
	return &PassphraseService{
		store: store,
		alias: alias,
		salt:  salt,
	}
}

// ExportPassphrase はパスフレーズのコピーを返す。
func (s *PassphraseService) ExportPassphrase(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached == nil {
		passphrase, err := s.derive(ctx)
		if err != nil {
			return nil, err
		}
		s.cached = passphrase
	}
	return bytes.Clone(s.cached), nil
}

func (s *PassphraseService) derive(ctx context.Context) ([]byte, error) {
	material, err := s.store.ExportRawMaterial(ctx, s.alias)
	switch {
	case err == nil && len(material) > 0:
		return material, nil
	case err == nil, errors.Is(err, domain.ErrExportNotPermitted):
		// 取り出せない鍵はPBKDF2へフォールバック
	default:
		return nil, fmt.Errorf("exporting key material: %w", err)
	}

	salt, err := s.salt.Salt(ctx, s.alias)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "deriving passphrase",
		"operation", "export_passphrase",
		"alias", s.alias,
		"method", "pbkdf2",
	)
	return pbkdf2.Key([]byte(s.alias), salt, passphraseIterations, passphraseKeyLen, sha256.New), nil
}
