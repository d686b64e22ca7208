package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"inventory-envelope/internal/domain"
)

// StringCipher は文字列をトークンへ暗号化・復号する。
type StringCipher interface {
	Encrypt(ctx context.Context, plaintext string) (string, error)
	Decrypt(ctx context.Context, token string) (string, error)
}

// SettingsService は設定値を項目ごとに暗号化して保存する。
// 読み出しは失敗しても既定値を返し、エラーにはならない。
type SettingsService struct {
	store   KeyValueStore
	cipher  StringCipher
	metrics MetricsRecorder
}

// NewSettingsService は新しいSettingsServiceを生成する。recorderはnilでもよい。
func NewSettingsService(store KeyValueStore, cipher StringCipher, recorder MetricsRecorder) *SettingsService {
	return &SettingsService{
		store:   store,
		cipher:  cipher,
		metrics: recorderOrNoop(recorder),
	}
}

// HideSensitive は機密項目を隠すかどうかを返す。既定値はfalse。
func (s *SettingsService) HideSensitive(ctx context.Context) bool {
	return s.readBool(ctx, domain.FieldHideSensitive, domain.DefaultSettings().HideSensitive)
}

// UpdateHideSensitive はHideSensitiveを保存する。
func (s *SettingsService) UpdateHideSensitive(ctx context.Context, v bool) error {
	return s.write(ctx, domain.FieldHideSensitive, strconv.FormatBool(v))
}

// AllowShare は品目の共有を許可するかどうかを返す。既定値はtrue。
func (s *SettingsService) AllowShare(ctx context.Context) bool {
	return s.readBool(ctx, domain.FieldAllowShare, domain.DefaultSettings().AllowShare)
}

// UpdateAllowShare はAllowShareを保存する。
func (s *SettingsService) UpdateAllowShare(ctx context.Context, v bool) error {
	return s.write(ctx, domain.FieldAllowShare, strconv.FormatBool(v))
}

// UseDefaultQuantity は既定数量を使うかどうかを返す。既定値はfalse。
func (s *SettingsService) UseDefaultQuantity(ctx context.Context) bool {
	return s.readBool(ctx, domain.FieldUseDefaultQuantity, domain.DefaultSettings().UseDefaultQuantity)
}

// UpdateUseDefaultQuantity はUseDefaultQuantityを保存する。
func (s *SettingsService) UpdateUseDefaultQuantity(ctx context.Context, v bool) error {
	return s.write(ctx, domain.FieldUseDefaultQuantity, strconv.FormatBool(v))
}

// DefaultQuantity は既定数量を返す。既定値は1。
func (s *SettingsService) DefaultQuantity(ctx context.Context) int {
	return s.readInt(ctx, domain.FieldDefaultQuantity, domain.DefaultSettings().DefaultQuantity)
}

// UpdateDefaultQuantity はDefaultQuantityを保存する。
func (s *SettingsService) UpdateDefaultQuantity(ctx context.Context, v int) error {
	return s.write(ctx, domain.FieldDefaultQuantity, strconv.Itoa(v))
}

// GetSettings は全項目を個別に復号して返す。
func (s *SettingsService) GetSettings(ctx context.Context) domain.Settings {
	return domain.Settings{
		HideSensitive:      s.HideSensitive(ctx),
		AllowShare:         s.AllowShare(ctx),
		UseDefaultQuantity: s.UseDefaultQuantity(ctx),
		DefaultQuantity:    s.DefaultQuantity(ctx),
	}
}

// UpdateField は文字列で与えられた値を検証して1項目を保存する。
// 値が項目の型として解釈できない場合はErrParseFailedを返す。
func (s *SettingsService) UpdateField(ctx context.Context, field domain.SettingsField, raw string) error {
	switch field {
	case domain.FieldDefaultQuantity:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", domain.ErrParseFailed, field, raw)
		}
		return s.UpdateDefaultQuantity(ctx, v)
	case domain.FieldHideSensitive, domain.FieldAllowShare, domain.FieldUseDefaultQuantity:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", domain.ErrParseFailed, field, raw)
		}
		return s.write(ctx, field, strconv.FormatBool(v))
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownSettingsField, field)
	}
}

func (s *SettingsService) write(ctx context.Context, field domain.SettingsField, value string) error {
	token, err := s.cipher.Encrypt(ctx, value)
	if err != nil {
		return fmt.Errorf("encrypting %s: %w", field, err)
	}
	if err := s.store.Put(ctx, field.EntryName(), token); err != nil {
		return fmt.Errorf("storing %s: %w", field, err)
	}
	return nil
}

// read は保存値を復号する。項目が無い場合はfound=falseを返す。
func (s *SettingsService) read(ctx context.Context, field domain.SettingsField) (value string, found bool, err error) {
	token, found, err := s.store.Get(ctx, field.EntryName())
	if err != nil || !found {
		return "", found, err
	}
	value, err = s.cipher.Decrypt(ctx, token)
	if err != nil {
		return "", true, err
	}
	return value, true, nil
}

func (s *SettingsService) readBool(ctx context.Context, field domain.SettingsField, def bool) bool {
	value, found, err := s.read(ctx, field)
	if err == nil && !found {
		return def
	}
	if err == nil {
		v, perr := strconv.ParseBool(value)
		if perr == nil {
			return v
		}
		err = fmt.Errorf("%w: %v", domain.ErrParseFailed, perr)
	}
	s.fallback(ctx, field, err)
	return def
}

func (s *SettingsService) readInt(ctx context.Context, field domain.SettingsField, def int) int {
	value, found, err := s.read(ctx, field)
	if err == nil && !found {
		return def
	}
	if err == nil {
		v, perr := strconv.Atoi(value)
		if perr == nil {
			return v
		}
		err = fmt.Errorf("%w: %v", domain.ErrParseFailed, perr)
	}
	s.fallback(ctx, field, err)
	return def
}

func (s *SettingsService) fallback(ctx context.Context, field domain.SettingsField, err error) {
	s.metrics.RecordSettingsFallback(string(field))
	slog.WarnContext(ctx, "settings value unreadable, using default",
		"operation", "read_setting",
		"field", string(field),
		"reason", fallbackReason(err),
		"error", err,
	)
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrParseFailed):
		return "parse_failed"
	default:
		return errorResult(err)
	}
}
