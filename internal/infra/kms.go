package infra

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"

	kms "cloud.google.com/go/kms/apiv1"
	kmspb "cloud.google.com/go/kms/apiv1/kmspb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// errKMSIntegrity はKMSとの往復で鍵素材が化けたことを示す。
var errKMSIntegrity = errors.New("kms integrity check failed")

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func crc32c(b []byte) int64 {
	return int64(crc32.Checksum(b, castagnoli))
}

// KMSClient はCloud KMSで管理鍵をラップ・アンラップする。
// 送受信する鍵素材はCRC32Cで検証する。
type KMSClient struct {
	client  *kms.KeyManagementClient
	keyName string
}

// NewKMSClient はkeyNameのCryptoKeyを使うKMSClientを生成する。
func NewKMSClient(ctx context.Context, keyName string) (*KMSClient, error) {
	if keyName == "" {
		return nil, fmt.Errorf("KMS key name is required")
	}

	client, err := kms.NewKeyManagementClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating KMS client: %w", err)
	}

	return &KMSClient{
		client:  client,
		keyName: keyName,
	}, nil
}

// Encrypt は鍵素材をCloud KMSでラップする。
func (c *KMSClient) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	resp, err := c.client.Encrypt(ctx, &kmspb.EncryptRequest{
		Name:            c.keyName,
		Plaintext:       plaintext,
		PlaintextCrc32C: wrapperspb.Int64(crc32c(plaintext)),
	})
	if err != nil {
		return nil, fmt.Errorf("wrapping with %s: %w", c.keyName, err)
	}
	if err := verifyWrapResponse(resp); err != nil {
		return nil, fmt.Errorf("wrapping with %s: %w", c.keyName, err)
	}
	return resp.Ciphertext, nil
}

// Decrypt はラップ済みの鍵素材をCloud KMSで復元する。
func (c *KMSClient) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	resp, err := c.client.Decrypt(ctx, &kmspb.DecryptRequest{
		Name:             c.keyName,
		Ciphertext:       ciphertext,
		CiphertextCrc32C: wrapperspb.Int64(crc32c(ciphertext)),
	})
	if err != nil {
		return nil, fmt.Errorf("unwrapping with %s: %w", c.keyName, err)
	}
	if err := verifyUnwrapResponse(resp); err != nil {
		return nil, fmt.Errorf("unwrapping with %s: %w", c.keyName, err)
	}
	return resp.Plaintext, nil
}

// Close はKMSクライアントを閉じる。
func (c *KMSClient) Close() error {
	return c.client.Close()
}

func verifyWrapResponse(resp *kmspb.EncryptResponse) error {
	if !resp.GetVerifiedPlaintextCrc32C() {
		return fmt.Errorf("%w: request checksum not verified", errKMSIntegrity)
	}
	if resp.GetCiphertextCrc32C() == nil || resp.GetCiphertextCrc32C().GetValue() != crc32c(resp.GetCiphertext()) {
		return fmt.Errorf("%w: wrapped key checksum mismatch", errKMSIntegrity)
	}
	return nil
}

func verifyUnwrapResponse(resp *kmspb.DecryptResponse) error {
	if resp.GetPlaintextCrc32C() == nil || resp.GetPlaintextCrc32C().GetValue() != crc32c(resp.GetPlaintext()) {
		return fmt.Errorf("%w: key material checksum mismatch", errKMSIntegrity)
	}
	return nil
}
