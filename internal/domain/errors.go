package domain

import "errors"

var (
	// ErrProvisioningFailed は鍵の確保に失敗した場合のエラー。サブシステムは利用できない。
	ErrProvisioningFailed = errors.New("key provisioning failed")

	// ErrAuthenticationFailed は認証タグの検証に失敗した場合のエラー（改ざん・破損・鍵違い）。
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrMalformedToken はトークンのBase64デコードに失敗した、または長さが不足している場合のエラー。
	ErrMalformedToken = errors.New("malformed token")

	// ErrParseFailed は復号した値を期待する型として解釈できない場合のエラー。
	ErrParseFailed = errors.New("parse failed")

	// ErrKeyNotFound は指定されたエイリアスの鍵が存在しない場合のエラー。
	ErrKeyNotFound = errors.New("key not found")

	// ErrKeyAlreadyExists は指定されたエイリアスに既に鍵が存在する場合のエラー。
	ErrKeyAlreadyExists = errors.New("key already exists")

	// ErrExportNotPermitted はストアが生の鍵素材のエクスポートを拒否した場合のエラー。
	ErrExportNotPermitted = errors.New("raw key export not permitted")

	// ErrUnsupportedKeySpec は鍵仕様がAES-256/GCM/NoPadding以外の場合のエラー。
	ErrUnsupportedKeySpec = errors.New("unsupported key spec")

	// ErrUnknownSettingsField は設定項目名が不正な場合のエラー。
	ErrUnknownSettingsField = errors.New("unknown settings field")

	// ErrSharingDisabled は共有が設定で無効化されている場合のエラー。
	ErrSharingDisabled = errors.New("sharing is disabled")

	// ErrMigrationFailed はマイグレーション実行時のエラー。
	ErrMigrationFailed = errors.New("migration failed")

	// ErrMigrationFileNotFound はマイグレーションファイルが見つからない場合のエラー。
	ErrMigrationFileNotFound = errors.New("migration file not found")

	// ErrInvalidMigrationFile はマイグレーションファイルのフォーマットが不正な場合のエラー。
	ErrInvalidMigrationFile = errors.New("invalid migration file")
)
