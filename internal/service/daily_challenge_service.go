// internal/service/daily_challenge_service.go
package service

import (
	"context"
	"errors"
	"fmt"

	"go_cyber_aware/internal/config"
	"go_cyber_aware/internal/middleware"
	"go_cyber_aware/internal/model"
	"go_cyber_aware/internal/repository"
)

type DailyChallengeService interface {
	// GetDailyQuestions は日付から決まる問題セットを返します。同じ日付・同じバンクなら常に同じ結果です。
	GetDailyQuestions(date model.Date, count int) ([]model.Question, error)
	CompleteDailyChallenge(ctx context.Context, scope model.ScopeID, date model.Date, score, total int) (*model.CompletionResult, error)
	GetDailyStatus(ctx context.Context, scope model.ScopeID, date model.Date) (*model.DailyStatus, error)
}

type dailyChallengeService struct {
	unit        stateUnit
	bank        []model.Question
	xpPerAnswer int
	rewards     []int
}

func NewDailyChallengeService(repo repository.ProgressRepository, locker repository.ScopeLocker, bank []model.Question, cfg config.EngineConfig) DailyChallengeService {
	return &dailyChallengeService{
		unit:        stateUnit{repo: repo, locker: locker},
		bank:        bank,
		xpPerAnswer: cfg.XPPerCorrectAnswer,
		rewards:     cfg.StreakRewards,
	}
}

func (s *dailyChallengeService) GetDailyQuestions(date model.Date, count int) ([]model.Question, error) {
	if !date.Valid() {
		return nil, fmt.Errorf("%w: invalid date", model.ErrInvalidInput)
	}
	if count <= 0 || count > len(s.bank) {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", model.ErrInvalidInput, len(s.bank))
	}
	return seededSample(s.bank, date.Seed(), count), nil
}

func (s *dailyChallengeService) CompleteDailyChallenge(ctx context.Context, scope model.ScopeID, date model.Date, score, total int) (*model.CompletionResult, error) {
	logger := middleware.GetLogger(ctx).With("scope", scope.String(), "date", date.String())
	if !date.Valid() {
		return nil, fmt.Errorf("%w: invalid date", model.ErrInvalidInput)
	}
	if err := model.ValidateScore(score, total); err != nil {
		return nil, err
	}

	result := &model.CompletionResult{Date: date, Score: score, Total: total}
	err := s.unit.update(ctx, scope, false, func(st *scopeState) error {
		p := st.progress
		if p.DailyChallenge.LastCompletedDate == date {
			result.AlreadyCompleted = true
			result.Score = p.DailyChallenge.LastScore
			return nil
		}

		// ★ 完了済みの日より前の日付は受け付けない (同じ日の二重記録になるため)
		if !p.DailyChallenge.LastCompletedDate.IsZero() && date.Before(p.DailyChallenge.LastCompletedDate) {
			return fmt.Errorf("%w: %s is before the last completed date %s", model.ErrInvalidInput, date, p.DailyChallenge.LastCompletedDate)
		}
		// ストリークは履歴より先に検証する (失敗時に何も変えない)
		streak, err := applyDailyActivity(p, date, s.rewards)
		if err != nil {
			return err
		}

		p.DailyChallenge = model.DailyChallenge{LastCompletedDate: date, LastScore: score}
		p.QuizHistory = append(p.QuizHistory, model.QuizSession{
			Date:  date,
			Score: score,
			Total: total,
			Mode:  model.SessionModeDaily,
		})
		result.Streak = streak
		result.XP = applyXP(p, scoreXP(score, s.xpPerAnswer))
		st.markProgress()
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrInvalidInput) {
			logger.Warn("Daily challenge completion rejected", "error", err)
		} else {
			logger.Error("Failed to complete daily challenge", "error", err)
		}
		return nil, err
	}

	if result.AlreadyCompleted {
		logger.Info("Daily challenge already completed")
	} else {
		logger.Info("Daily challenge completed", "score", score, "total", total, "login_streak", result.Streak.LoginStreak)
	}
	return result, nil
}

func (s *dailyChallengeService) GetDailyStatus(ctx context.Context, scope model.ScopeID, date model.Date) (*model.DailyStatus, error) {
	if !date.Valid() {
		return nil, fmt.Errorf("%w: invalid date", model.ErrInvalidInput)
	}
	p, err := s.unit.repo.LoadProgress(ctx, scope)
	if err != nil {
		return nil, err
	}
	status := &model.DailyStatus{Date: date}
	if p.DailyChallenge.LastCompletedDate == date {
		status.Completed = true
		status.LastScore = p.DailyChallenge.LastScore
	}
	return status, nil
}
