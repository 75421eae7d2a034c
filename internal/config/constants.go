// internal/config/constants.go
package config

import "time"

// アプリケーション情報
const (
	AppName    = "CyberAwareProgress"
	AppVersion = "1.0.0"
)

// ストアの種類
const (
	StoreDriverMemory = "memory"
	StoreDriverGorm   = "gorm"
	StoreDriverRedis  = "redis"
)

// デフォルト設定値
const (
	DefaultServerPort   = ":8080"
	DefaultLogLevel     = "info"
	DefaultStoreDriver  = StoreDriverMemory
	DefaultRedisLockTTL = 5 * time.Second
	MinRedisLockTTL     = time.Second
	DefaultTimezone     = "UTC"

	DefaultDailyQuestionCount = 5
	DefaultXPPerCorrectAnswer = 10

	DefaultExamMaxAttempts   = 3
	DefaultExamPassingScore  = 80
	DefaultExamValidityYears = 2
	DefaultExamTimeLimit     = 60 * time.Minute
	DefaultExamQuestionCount = 50
	DefaultExamPassBonusXP   = 500
)

// DefaultStreakRewards は7日サイクルの各日に付与するXP (index = streakDay-1)
var DefaultStreakRewards = []int{10, 15, 20, 25, 30, 40, 100}
