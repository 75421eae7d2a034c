// internal/model/request.go
package model

// ActivityRequest はデイリーアクティビティ登録リクエスト。date 省略時はサーバーの「今日」。
type ActivityRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// AwardXPRequest は XP 付与リクエスト
type AwardXPRequest struct {
	Amount *int   `json:"amount" validate:"required"`
	Reason string `json:"reason" validate:"required,max=100"`
}

// CompleteQuizRequest は日替わり・練習クイズ完了リクエスト
type CompleteQuizRequest struct {
	Date  string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Score *int   `json:"score" validate:"required,min=0"`
	Total *int   `json:"total" validate:"required,min=1"`
}

// SubmitAttemptRequest は認定試験の提出リクエスト
type SubmitAttemptRequest struct {
	CorrectCount   *int `json:"correct_count" validate:"required,min=0"`
	TotalCount     *int `json:"total_count" validate:"required,min=1"`
	ElapsedSeconds int  `json:"elapsed_seconds" validate:"min=0"`
}

// ProgressResponse は GET /progress のレスポンス
type ProgressResponse struct {
	Level   *LevelSnapshot `json:"level"`
	Streak  *StreakResult  `json:"streak"`
	Daily   *DailyStatus   `json:"daily"`
	History []QuizSession  `json:"history"`
}
