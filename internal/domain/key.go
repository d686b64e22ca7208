// Package domain はドメインモデルとビジネスルールを定義する。
package domain

import (
	"fmt"
	"time"
)

// DefaultKeyAlias はアプリケーション全体で共有する管理鍵のエイリアス。
const DefaultKeyAlias = "file_encryption_key"

const (
	// NonceSize はAES-GCMのノンス長（バイト）。
	NonceSize = 12
	// TagSize は認証タグ長（バイト）。
	TagSize = 16
	// KeySizeBits は管理鍵の鍵長（ビット）。
	KeySizeBits = 256
	// MinTokenSize はトークンをデコードした際に必要な最小バイト数。
	MinTokenSize = NonceSize + TagSize
)

// KeyPurpose は鍵に許可された操作を表す。
type KeyPurpose string

const (
	KeyPurposeEncrypt KeyPurpose = "encrypt"
	KeyPurposeDecrypt KeyPurpose = "decrypt"
)

// KeySpec は鍵生成時のパラメータを表す。
type KeySpec struct {
	Algorithm                    string
	KeySize                      int
	Purposes                     []KeyPurpose
	BlockMode                    string
	Padding                      string
	RandomizedEncryptionRequired bool
	// Exportable がfalseの場合、ストアは生の鍵素材を返さない（ハードウェア鍵と同じ扱い）。
	Exportable bool
}

// DefaultKeySpec はAES-256/GCM/NoPadding、暗号化・復号用途の鍵仕様を返す。
// ノンスは呼び出し側が与えるため、RandomizedEncryptionRequiredは無効。
func DefaultKeySpec() KeySpec {
	return KeySpec{
		Algorithm:                    "AES",
		KeySize:                      KeySizeBits,
		Purposes:                     []KeyPurpose{KeyPurposeEncrypt, KeyPurposeDecrypt},
		BlockMode:                    "GCM",
		Padding:                      "NoPadding",
		RandomizedEncryptionRequired: false,
	}
}

// Validate はサポート外の鍵仕様を拒否する。
func (s KeySpec) Validate() error {
	if s.Algorithm != "AES" || s.KeySize != KeySizeBits || s.BlockMode != "GCM" || s.Padding != "NoPadding" {
		return fmt.Errorf("%w: %s-%d/%s/%s", ErrUnsupportedKeySpec, s.Algorithm, s.KeySize, s.BlockMode, s.Padding)
	}
	if s.RandomizedEncryptionRequired {
		return fmt.Errorf("%w: randomized encryption must be disabled", ErrUnsupportedKeySpec)
	}
	var canEncrypt, canDecrypt bool
	for _, p := range s.Purposes {
		switch p {
		case KeyPurposeEncrypt:
			canEncrypt = true
		case KeyPurposeDecrypt:
			canDecrypt = true
		}
	}
	if !canEncrypt || !canDecrypt {
		return fmt.Errorf("%w: encrypt and decrypt purposes are required", ErrUnsupportedKeySpec)
	}
	return nil
}

// ManagedKey はセキュアキーストアに保存された管理鍵を表す。
// WrappedKey はラップ済みの鍵素材で、平文の鍵は含まない。
type ManagedKey struct {
	ID         string
	Alias      string
	WrappedKey []byte
	Spec       KeySpec
	CreatedAt  time.Time
}
