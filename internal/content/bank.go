// internal/content/bank.go
package content

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go_cyber_aware/internal/model"
)

//go:embed questions.json
var defaultBank []byte

var ErrEmptyBank = errors.New("question bank is empty")

// LoadBank は問題バンクを読み込みます。path が空なら埋め込みのバンクを使います。
func LoadBank(path string) ([]model.Question, error) {
	data := defaultBank
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("content.LoadBank: %w", err)
		}
		data = b
	}
	return ParseBank(data)
}

// ParseBank は JSON を問題リストに変換し、各問題を検証します。
func ParseBank(data []byte) ([]model.Question, error) {
	var questions []model.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("content.ParseBank: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrEmptyBank
	}
	seen := make(map[string]bool, len(questions))
	for i, q := range questions {
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("content.ParseBank: question %d: %w", i, err)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("content.ParseBank: duplicate question id %q", q.ID)
		}
		seen[q.ID] = true
	}
	return questions, nil
}

func validateQuestion(q model.Question) error {
	if q.ID == "" || q.Question == "" {
		return errors.New("id and question text are required")
	}
	if len(q.Options) < 2 {
		return errors.New("at least two options are required")
	}
	correct := 0
	for _, o := range q.Options {
		if o.Correct {
			correct++
		}
	}
	if correct == 0 {
		return errors.New("no correct option")
	}
	switch q.Difficulty {
	case model.DifficultyBeginner, model.DifficultyIntermediate, model.DifficultyAdvanced:
	default:
		return fmt.Errorf("unknown difficulty %q", q.Difficulty)
	}
	return nil
}
