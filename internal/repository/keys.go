// internal/repository/keys.go
package repository

import "go_cyber_aware/internal/model"

// キー命名はこのファイルに集約する。
const keyPrefix = "cyberaware"

// 論理キー名
const (
	KeyXPTotal           = "xpTotal"
	KeyCurrentStreak     = "currentStreak"
	KeyLongestStreak     = "longestStreak"
	KeyLastLoginDate     = "lastLoginDate"
	KeyLastCompletedDate = "lastCompletedDate"
	KeyTodayScore        = "todayScore"
	KeyQuizHistory       = "quizHistory"
	KeyCertAttempts      = "certificationAttempts"
	KeyCertificate       = "certificate"
	KeyCertActiveAttempt = "certificationActiveAttempt"
	KeyMigrationComplete = "migrationComplete"
)

// MigratableKeys はスコープ導入前のレコードから移行対象となる論理キー
var MigratableKeys = []string{
	KeyXPTotal,
	KeyCurrentStreak,
	KeyLongestStreak,
	KeyLastLoginDate,
	KeyLastCompletedDate,
	KeyTodayScore,
	KeyQuizHistory,
	KeyCertAttempts,
	KeyCertificate,
}

// ScopedKey はスコープ付きの物理キーを返します (例: cyberaware:user:42:xpTotal)。
func ScopedKey(scope model.ScopeID, logical string) string {
	return keyPrefix + ":" + string(scope) + ":" + logical
}

// LegacyKey はスコープ導入前の物理キー (論理キーそのもの)。
func LegacyKey(logical string) string {
	return logical
}

// LegacyClaimKey は旧データを引き取ったスコープを記録するグローバルキー。
// 旧データはサーバー全体で1スコープだけが受け取る。
func LegacyClaimKey() string {
	return keyPrefix + ":legacyClaimedBy"
}

// LegacyLockScope は旧データの引き取りを直列化するためのロック名。
// user: / device: で始まらないので利用者のスコープとは衝突しない。
const LegacyLockScope model.ScopeID = "legacy-claim"

func lockKey(scope model.ScopeID) string {
	return "lock:" + keyPrefix + ":" + string(scope)
}
