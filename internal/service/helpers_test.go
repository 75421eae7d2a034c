package service

import (
	"fmt"
	"time"

	"go_cyber_aware/internal/config"
	"go_cyber_aware/internal/model"
	"go_cyber_aware/internal/repository"
)

// テスト用の共通セットアップ

func ymd(y int, m time.Month, d int) model.Date {
	return model.Date{Year: y, Month: m, Day: d}
}

func testBank(n int) []model.Question {
	bank := make([]model.Question, 0, n)
	for i := 1; i <= n; i++ {
		bank = append(bank, model.Question{
			ID:       fmt.Sprintf("q%03d", i),
			Question: fmt.Sprintf("question %d", i),
			Options: []model.Option{
				{Text: "a", Correct: true},
				{Text: "b"},
			},
			Explanation: "because",
			Difficulty:  model.DifficultyBeginner,
		})
	}
	return bank
}

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		DailyQuestionCount: config.DefaultDailyQuestionCount,
		XPPerCorrectAnswer: config.DefaultXPPerCorrectAnswer,
		StreakRewards:      append([]int(nil), config.DefaultStreakRewards...),
		Timezone:           "UTC",
		Exam: config.ExamConfig{
			MaxAttempts:   3,
			PassingScore:  80,
			ValidityYears: 2,
			TimeLimit:     60 * time.Minute,
			QuestionCount: 50,
			PassBonusXP:   500,
		},
	}
}

func newMemoryRepo() (repository.ProgressRepository, repository.ScopeLocker) {
	return repository.NewProgressRepository(repository.NewMemoryStore()), repository.NewLocalLocker()
}

func repositoryLocker() repository.ScopeLocker {
	return repository.NewLocalLocker()
}
