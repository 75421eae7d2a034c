// internal/model/certification.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// CertificationState は認定試験の状態
type CertificationState string

const (
	StateNotAttempted       CertificationState = "not_attempted"
	StateInProgress         CertificationState = "in_progress"
	StatePassed             CertificationState = "passed"
	StateFailed             CertificationState = "failed"
	StateMaxAttemptsReached CertificationState = "max_attempts_reached"
)

// Attempt は受験1回分の記録
type Attempt struct {
	Timestamp time.Time `json:"timestamp"`
	Score     int       `json:"score"`
	Passed    bool      `json:"passed"`
	TimedOut  bool      `json:"timed_out,omitempty"`
}

// Certificate は合格時に一度だけ発行される認定証です。
// ExpiryDate は発行時に計算し、以後再計算しない。
type Certificate struct {
	ID         string    `json:"id"`
	Score      int       `json:"score"`
	IssueDate  time.Time `json:"issue_date"`
	ExpiryDate time.Time `json:"expiry_date"`
}

// IsExpired は now 時点で有効期限切れかどうかを返します。
func (c *Certificate) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiryDate)
}

// AttemptHandle は開始済み(未提出)の受験を識別します。
type AttemptHandle struct {
	ID            uuid.UUID `json:"id"`
	StartedAt     time.Time `json:"started_at"`
	QuestionCount int       `json:"question_count"`
	// Questions は開始時のレスポンス専用。永続化しない。
	Questions []Question `json:"questions,omitempty"`
}

// CertificationRecord はユーザーごとの受験履歴と認定証
type CertificationRecord struct {
	Attempts      []Attempt      `json:"attempts"`
	Certificate   *Certificate   `json:"certificate,omitempty"`
	ActiveAttempt *AttemptHandle `json:"active_attempt,omitempty"`
}

// State は保存済みレコードから状態を導出します。
func (r *CertificationRecord) State(maxAttempts int) CertificationState {
	switch {
	case r.Certificate != nil:
		return StatePassed
	case r.ActiveAttempt != nil:
		return StateInProgress
	case len(r.Attempts) == 0:
		return StateNotAttempted
	case len(r.Attempts) >= maxAttempts:
		return StateMaxAttemptsReached
	default:
		return StateFailed
	}
}

// AttemptsRemaining は残り受験回数 (0未満にはならない)
func (r *CertificationRecord) AttemptsRemaining(maxAttempts int) int {
	remaining := maxAttempts - len(r.Attempts)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// AttemptResult は受験提出の結果
type AttemptResult struct {
	Attempt           Attempt            `json:"attempt"`
	Score             int                `json:"score"`
	Passed            bool               `json:"passed"`
	TimedOut          bool               `json:"timed_out"`
	Certificate       *Certificate       `json:"certificate,omitempty"`
	State             CertificationState `json:"state"`
	AttemptsRemaining int                `json:"attempts_remaining"`
	XP                *XPResult          `json:"xp,omitempty"`
}

// CertificationStatus は保存済みレコードの読み取り専用ビュー
type CertificationStatus struct {
	State             CertificationState `json:"state"`
	IsCertified       bool               `json:"is_certified"`
	Certificate       *Certificate       `json:"certificate,omitempty"`
	Attempts          []Attempt          `json:"attempts"`
	CanRetake         bool               `json:"can_retake"`
	AttemptsRemaining int                `json:"attempts_remaining"`
	MaxAttempts       int                `json:"max_attempts"`
}
