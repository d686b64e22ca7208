package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"inventory-envelope/internal/domain"
)

// KeyProvisioner は管理鍵が存在することを保証する。
// 同一エイリアスに対する同時呼び出しは1回の確認・生成にまとめられる。
type KeyProvisioner struct {
	store SecureKeyStore
	spec  domain.KeySpec
	group singleflight.Group
}

// NewKeyProvisioner は新しいKeyProvisionerを生成する。
func NewKeyProvisioner(store SecureKeyStore, spec domain.KeySpec) *KeyProvisioner {
	return &KeyProvisioner{
		store: store,
		spec:  spec,
	}
}

// EnsureKey は鍵が無ければ生成する。既に存在する場合は何もしない。
func (p *KeyProvisioner) EnsureKey(ctx context.Context, alias string) error {
	_, err, _ := p.group.Do(alias, func() (interface{}, error) {
		return nil, p.ensure(ctx, alias)
	})
	return err
}

func (p *KeyProvisioner) ensure(ctx context.Context, alias string) error {
	exists, err := p.store.KeyExists(ctx, alias)
	if err != nil {
		return fmt.Errorf("%w: alias %q: %w", domain.ErrProvisioningFailed, alias, err)
	}
	if exists {
		return nil
	}

	if err := p.store.GenerateKey(ctx, alias, p.spec); err != nil {
		// 別プロセスが先に生成した
		if errors.Is(err, domain.ErrKeyAlreadyExists) {
			return nil
		}
		return fmt.Errorf("%w: alias %q: %w", domain.ErrProvisioningFailed, alias, err)
	}

	slog.InfoContext(ctx, "managed key generated",
		"operation", "ensure_key",
		"alias", alias,
		"exportable", p.spec.Exportable,
	)
	return nil
}

// Recreate は鍵を削除して作り直す。既存のトークンとパスフレーズは使えなくなる。
func (p *KeyProvisioner) Recreate(ctx context.Context, alias string) error {
	if err := p.store.DeleteKey(ctx, alias); err != nil {
		return fmt.Errorf("%w: deleting alias %q: %w", domain.ErrProvisioningFailed, alias, err)
	}
	slog.WarnContext(ctx, "managed key deleted",
		"operation", "recreate_key",
		"alias", alias,
	)
	return p.EnsureKey(ctx, alias)
}
