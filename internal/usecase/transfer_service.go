package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"inventory-envelope/internal/domain"
)

// ByteCipher はバイト列をトークンへ暗号化・復号する。
type ByteCipher interface {
	EncryptBytes(ctx context.Context, plaintext []byte) (string, error)
	DecryptBytes(ctx context.Context, token string) ([]byte, error)
}

// SharePolicy は品目の共有可否を判定する。
type SharePolicy interface {
	AllowShare(ctx context.Context) bool
}

// TransferService は品目を暗号化ファイル形式でエクスポート・インポートする。
type TransferService struct {
	cipher ByteCipher
	policy SharePolicy
}

// NewTransferService は新しいTransferServiceを生成する。
func NewTransferService(cipher ByteCipher, policy SharePolicy) *TransferService {
	return &TransferService{
		cipher: cipher,
		policy: policy,
	}
}

// ExportItem は品目をJSONにして暗号化したトークンを返す。
// 共有が無効な場合はErrSharingDisabledを返す。
func (s *TransferService) ExportItem(ctx context.Context, item domain.ItemRecord) (string, error) {
	if !s.policy.AllowShare(ctx) {
		return "", domain.ErrSharingDisabled
	}

	payload, err := json.Marshal(item)
	if err != nil {
		return "", fmt.Errorf("encoding item: %w", err)
	}

	token, err := s.cipher.EncryptBytes(ctx, payload)
	if err != nil {
		slog.ErrorContext(ctx, "failed to export item",
			"operation", "export_item",
			"error", err,
		)
		return "", fmt.Errorf("encrypting item: %w", err)
	}
	return token, nil
}

// ImportItem はトークンを復号して品目を返す。取り込んだ品目のSourceは"file"になる。
// 失敗時は部分的な品目を返さない。
func (s *TransferService) ImportItem(ctx context.Context, token string) (*domain.ItemRecord, error) {
	payload, err := s.cipher.DecryptBytes(ctx, token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt imported item",
			"operation", "import_item",
			"error", err,
		)
		return nil, err
	}

	var item *domain.ItemRecord
	if err := json.Unmarshal(payload, &item); err != nil {
		slog.ErrorContext(ctx, "failed to decode imported item",
			"operation", "import_item",
			"error", err,
		)
		return nil, fmt.Errorf("%w: item payload: %v", domain.ErrParseFailed, err)
	}
	if item == nil {
		slog.ErrorContext(ctx, "imported item payload is null",
			"operation", "import_item",
		)
		return nil, fmt.Errorf("%w: item payload is null", domain.ErrParseFailed)
	}

	item.Source = domain.ItemSourceFile
	return item, nil
}
