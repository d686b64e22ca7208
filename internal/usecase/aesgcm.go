package usecase

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"inventory-envelope/internal/domain"
)

// aesGCMHandle はAES-256-GCMの鍵ハンドル。生の鍵は保持しない。
type aesGCMHandle struct {
	aead cipher.AEAD
}

func newAESGCMHandle(key []byte) (*aesGCMHandle, error) {
	if len(key) != domain.KeySizeBits/8 {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", domain.ErrUnsupportedKeySpec, domain.KeySizeBits/8, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithTagSize(block, domain.TagSize)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	return &aesGCMHandle{aead: aead}, nil
}

// Seal は平文を暗号化し、認証タグを付与した暗号文を返す。
func (h *aesGCMHandle) Seal(nonce, plaintext []byte) ([]byte, error) {
	if len(nonce) != domain.NonceSize {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", domain.NonceSize, len(nonce))
	}
	return h.aead.Seal(nil, nonce, plaintext, nil), nil
}

// Open は認証タグを検証して暗号文を復号する。
func (h *aesGCMHandle) Open(nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != domain.NonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes, got %d", domain.ErrMalformedToken, domain.NonceSize, len(nonce))
	}
	plaintext, err := h.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, domain.ErrAuthenticationFailed
	}
	return plaintext, nil
}

// zero は鍵素材をメモリから消去する。
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
