package domain

import "time"

// MigrationStatus はマイグレーションの適用状態を表す
type MigrationStatus string

const (
	MigrationStatusPending MigrationStatus = "pending"
	MigrationStatusApplied MigrationStatus = "applied"
)

// Migration はmanaged_keys・settings_entriesなどのスキーマ変更を表すドメインモデル
type Migration struct {
	Version   string          // 例: "001", "002"
	Name      string          // ファイル名から抽出
	AppliedAt *time.Time      // 未適用の場合はnil
	FilePath  string
	Status    MigrationStatus
}

// IsApplied は適用済みかどうかを返す。
func (m *Migration) IsApplied() bool {
	return m.Status == MigrationStatusApplied
}
