package domain

import "fmt"

// Settings はアプリケーション設定を表す。各項目は個別に暗号化して保存される。
type Settings struct {
	HideSensitive      bool `json:"hide_sensitive"`
	AllowShare         bool `json:"allow_share"`
	UseDefaultQuantity bool `json:"use_default_quantity"`
	DefaultQuantity    int  `json:"default_quantity"`
}

// DefaultSettings は復号できない項目に使う既定値を返す。
func DefaultSettings() Settings {
	return Settings{
		HideSensitive:      false,
		AllowShare:         true,
		UseDefaultQuantity: false,
		DefaultQuantity:    1,
	}
}

// SettingsField は設定項目を表す。
type SettingsField string

const (
	FieldHideSensitive      SettingsField = "hide_sensitive"
	FieldAllowShare         SettingsField = "allow_share"
	FieldUseDefaultQuantity SettingsField = "use_default_quantity"
	FieldDefaultQuantity    SettingsField = "default_quantity"
)

// SettingsFields は全設定項目を保存順に返す。
func SettingsFields() []SettingsField {
	return []SettingsField{
		FieldHideSensitive,
		FieldAllowShare,
		FieldUseDefaultQuantity,
		FieldDefaultQuantity,
	}
}

// ParseSettingsField は項目名を検証してSettingsFieldに変換する。
func ParseSettingsField(name string) (SettingsField, error) {
	for _, f := range SettingsFields() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSettingsField, name)
}

// EntryName はキーバリューストア上の保存名を返す。
func (f SettingsField) EntryName() string {
	return "enc_" + string(f)
}
