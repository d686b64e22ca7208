package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"inventory-envelope/internal/domain"
)

var tracer = otel.Tracer("inventory-envelope/usecase")

// KeyEnsurer は鍵の存在を保証するインターフェース。
type KeyEnsurer interface {
	EnsureKey(ctx context.Context, alias string) error
}

// EnvelopeOption はEnvelopeServiceの任意設定。
type EnvelopeOption func(*EnvelopeService)

// WithMetrics は操作結果の記録先を設定する。
func WithMetrics(r MetricsRecorder) EnvelopeOption {
	return func(s *EnvelopeService) {
		s.metrics = recorderOrNoop(r)
	}
}

// EnvelopeService は管理鍵でAES-256-GCMの暗号化・復号を行う。
// トークンは base64(nonce ‖ ciphertext ‖ tag) の自己完結形式。
// 生成後は状態を持たず、並行利用できる。
type EnvelopeService struct {
	store   SecureKeyStore
	alias   string
	metrics MetricsRecorder
}

// NewEnvelopeService は鍵を用意したうえでEnvelopeServiceを生成する。
// 鍵の用意に失敗した場合はErrProvisioningFailedを返し、サービスは生成しない。
func NewEnvelopeService(ctx context.Context, store SecureKeyStore, ensurer KeyEnsurer, alias string, opts ...EnvelopeOption) (*EnvelopeService, error) {
	if alias == "" {
		alias = domain.DefaultKeyAlias
	}
	if err := ensurer.EnsureKey(ctx, alias); err != nil {
		if !errors.Is(err, domain.ErrProvisioningFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrProvisioningFailed, err)
		}
		return nil, err
	}

	s := &EnvelopeService{
		store:   store,
		alias:   alias,
		metrics: noopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Alias は使用している鍵のエイリアスを返す。
func (s *EnvelopeService) Alias() string {
	return s.alias
}

// Encrypt は文字列をUTF-8バイト列として暗号化し、トークンを返す。
func (s *EnvelopeService) Encrypt(ctx context.Context, plaintext string) (string, error) {
	return s.EncryptBytes(ctx, []byte(plaintext))
}

// Decrypt はトークンを復号して元の文字列を返す。
func (s *EnvelopeService) Decrypt(ctx context.Context, token string) (string, error) {
	plaintext, err := s.DecryptBytes(ctx, token)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// EncryptBytes は毎回新しいnonceで平文を暗号化する。
func (s *EnvelopeService) EncryptBytes(ctx context.Context, plaintext []byte) (token string, err error) {
	ctx, span := tracer.Start(ctx, "envelope.encrypt",
		trace.WithAttributes(attribute.Int("envelope.plaintext_size", len(plaintext))))
	defer func() { s.finish(span, "encrypt", err) }()

	handle, err := s.store.GetKey(ctx, s.alias)
	if err != nil {
		return "", fmt.Errorf("loading key %q: %w", s.alias, err)
	}

	nonce := make([]byte, domain.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed, err := handle.Seal(nonce, plaintext)
	if err != nil {
		return "", fmt.Errorf("sealing: %w", err)
	}

	out := make([]byte, 0, len(nonce)+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// DecryptBytes はトークンを検証・復号する。
// 改ざんや別鍵のトークンはErrAuthenticationFailed、形式不正はErrMalformedTokenになる。
func (s *EnvelopeService) DecryptBytes(ctx context.Context, token string) (plaintext []byte, err error) {
	ctx, span := tracer.Start(ctx, "envelope.decrypt")
	defer func() { s.finish(span, "decrypt", err) }()

	raw, err := decodeToken(token)
	if err != nil {
		return nil, err
	}

	handle, err := s.store.GetKey(ctx, s.alias)
	if err != nil {
		return nil, fmt.Errorf("loading key %q: %w", s.alias, err)
	}

	return handle.Open(raw[:domain.NonceSize], raw[domain.NonceSize:])
}

// decodeToken はbase64を解いて最小長を確認する。
// 改行を含む折り返し形式のトークンも受け付けるが、パディング前の未使用ビットは0でなければならない。
func decodeToken(token string) ([]byte, error) {
	token = strings.NewReplacer("\r", "", "\n", "").Replace(token)
	raw, err := base64.StdEncoding.Strict().DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedToken, err)
	}
	if len(raw) < domain.MinTokenSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", domain.ErrMalformedToken, len(raw), domain.MinTokenSize)
	}
	return raw, nil
}

func (s *EnvelopeService) finish(span trace.Span, operation string, err error) {
	defer span.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errorResult(err))
		s.metrics.RecordEnvelopeOperation(operation, errorResult(err))
		return
	}
	s.metrics.RecordEnvelopeOperation(operation, "success")
}

// errorResult はメトリクスのresultラベルを返す。
func errorResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrMalformedToken):
		return "malformed_token"
	case errors.Is(err, domain.ErrAuthenticationFailed):
		return "authentication_failed"
	case errors.Is(err, domain.ErrKeyNotFound):
		return "key_not_found"
	default:
		return "error"
	}
}
