// internal/model/progress.go
package model

import "fmt"

// SessionMode はクイズセッションの種別
type SessionMode string

const (
	SessionModeDaily    SessionMode = "daily"
	SessionModePractice SessionMode = "practice"
)

func (m SessionMode) Valid() bool {
	return m == SessionModeDaily || m == SessionModePractice
}

// QuizSession は完了したクイズ1回分の履歴エントリです。
type QuizSession struct {
	Date  Date        `json:"date"`
	Score int         `json:"score"`
	Total int         `json:"total"`
	Mode  SessionMode `json:"mode"`
}

// Validate は履歴エントリとして記録可能かを検証します。
func (s QuizSession) Validate() error {
	if !s.Date.Valid() {
		return fmt.Errorf("%w: session date is required", ErrInvalidInput)
	}
	if !s.Mode.Valid() {
		return fmt.Errorf("%w: unknown session mode %q", ErrInvalidInput, s.Mode)
	}
	return ValidateScore(s.Score, s.Total)
}

// ValidateScore は total > 0 かつ 0 <= score <= total を検証します。
func ValidateScore(score, total int) error {
	if total <= 0 {
		return fmt.Errorf("%w: total must be positive", ErrInvalidInput)
	}
	if score < 0 || score > total {
		return fmt.Errorf("%w: score must be between 0 and total", ErrInvalidInput)
	}
	return nil
}

// DailyChallenge は日替わりチャレンジの完了状況
type DailyChallenge struct {
	LastCompletedDate Date `json:"last_completed_date"`
	LastScore         int  `json:"last_score"`
}

// UserProgress はスコープ(ユーザー)ごとの学習進捗です。
// レベルは保存せず、常に XPTotal から導出します。
type UserProgress struct {
	XPTotal        int            `json:"xp_total"`
	LoginStreak    int            `json:"login_streak"`
	LongestStreak  int            `json:"longest_streak"`
	LastLoginDate  Date           `json:"last_login_date"`
	DailyChallenge DailyChallenge `json:"daily_challenge"`
	QuizHistory    []QuizSession  `json:"quiz_history"`
}

func (p *UserProgress) Level() Level {
	return LevelFor(p.XPTotal)
}

// XPResult は XP 付与の結果
type XPResult struct {
	XPTotal   int    `json:"xp_total"`
	XPGained  int    `json:"xp_gained"`
	Level     Level  `json:"level"`
	LeveledUp bool   `json:"leveled_up"`
	NewLevel  *Level `json:"new_level,omitempty"`
}

// LevelSnapshot はプログレスバー表示用の読み取り専用ビュー
type LevelSnapshot struct {
	XPTotal       int    `json:"xp_total"`
	Level         Level  `json:"level"`
	NextLevel     *Level `json:"next_level,omitempty"`
	XPToNextLevel int    `json:"xp_to_next_level"`
}

// StreakResult はデイリーアクティビティ登録の結果
type StreakResult struct {
	LoginStreak     int       `json:"login_streak"`
	StreakDay       int       `json:"streak_day"`
	AlreadyLoggedIn bool      `json:"already_logged_in"`
	LongestStreak   int       `json:"longest_streak"`
	RewardXP        int       `json:"reward_xp"`
	XP              *XPResult `json:"xp,omitempty"`
}

// CompletionResult は日替わりチャレンジ完了の結果
type CompletionResult struct {
	AlreadyCompleted bool          `json:"already_completed"`
	Date             Date          `json:"date"`
	Score            int           `json:"score"`
	Total            int           `json:"total"`
	Streak           *StreakResult `json:"streak,omitempty"`
	XP               *XPResult     `json:"xp,omitempty"`
}

// DailyStatus は指定日の日替わりチャレンジ状況
type DailyStatus struct {
	Date      Date `json:"date"`
	Completed bool `json:"completed"`
	LastScore int  `json:"last_score"`
}

// PracticeResult は練習クイズ完了の結果
type PracticeResult struct {
	Session QuizSession `json:"session"`
	XP      *XPResult   `json:"xp,omitempty"`
}
