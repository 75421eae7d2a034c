// internal/model/question.go
package model

// Difficulty は問題の難易度
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Option は選択肢
type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question は問題バンクの1問です。コンテンツ側が提供する静的データ。
type Question struct {
	ID          string     `json:"id"`
	Question    string     `json:"question"`
	Options     []Option   `json:"options"`
	Explanation string     `json:"explanation"`
	Difficulty  Difficulty `json:"difficulty"`
}
