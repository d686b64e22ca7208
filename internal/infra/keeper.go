package infra

import (
	"context"
	"fmt"

	"gocloud.dev/secrets"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KeeperClient はgocloud.devのsecrets.Keeperで管理鍵をラップする。
// KEEPER_URIは base64key://... （ローカル鍵）または hashivault://... を受け付ける。
type KeeperClient struct {
	keeper *secrets.Keeper
}

// NewKeeperClient はuriのKeeperを開く。
func NewKeeperClient(ctx context.Context, uri string) (*KeeperClient, error) {
	if uri == "" {
		return nil, fmt.Errorf("keeper URI is required")
	}
	keeper, err := secrets.OpenKeeper(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("opening keeper: %w", err)
	}
	return &KeeperClient{keeper: keeper}, nil
}

// Encrypt は鍵素材をラップする。
func (c *KeeperClient) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	wrapped, err := c.keeper.Encrypt(ctx, plaintext)
	if err != nil {
		return nil, fmt.Errorf("wrapping with keeper: %w", err)
	}
	return wrapped, nil
}

// Decrypt はラップ済みの鍵素材を復元する。
func (c *KeeperClient) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	plain, err := c.keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("unwrapping with keeper: %w", err)
	}
	return plain, nil
}

// Close はKeeperを閉じる。
func (c *KeeperClient) Close() error {
	return c.keeper.Close()
}
