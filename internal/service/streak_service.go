// internal/service/streak_service.go
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

// streakCycleDays は報酬サイクルの日数
const streakCycleDays = 7

type StreakService interface {
	RegisterDailyActivity(ctx context.Context, scope model.ScopeID, today model.Date) (*model.StreakResult, error)
	GetStreak(ctx context.Context, scope model.ScopeID) (*model.StreakResult, error)
}

type streakService struct {
	unit    stateUnit
	rewards []int
}

func NewStreakService(repo repository.ProgressRepository, locker repository.ScopeLocker, cfg config.EngineConfig) StreakService {
	return &streakService{
		unit:    stateUnit{repo: repo, locker: locker},
		rewards: cfg.StreakRewards,
	}
}

func (s *streakService) RegisterDailyActivity(ctx context.Context, scope model.ScopeID, today model.Date) (*model.StreakResult, error) {
	logger := middleware.GetLogger(ctx).With("scope", scope.String(), "today", today.String())
	if !today.Valid() {
		return nil, fmt.Errorf("%w: invalid date", model.ErrInvalidInput)
	}

	var result *model.StreakResult
	err := s.unit.update(ctx, scope, false, func(st *scopeState) error {
		var err error
		result, err = applyDailyActivity(st.progress, today, s.rewards)
		if err != nil {
			return err
		}
		if !result.AlreadyLoggedIn {
			st.markProgress()
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrInvalidInput) {
			logger.Warn("Daily activity rejected", "error", err)
		} else {
			logger.Error("Failed to register daily activity", "error", err)
		}
		return nil, err
	}

	if !result.AlreadyLoggedIn {
		logger.Info("Daily activity registered", "login_streak", result.LoginStreak, "streak_day", result.StreakDay, "reward_xp", result.RewardXP)
	}
	return result, nil
}

func (s *streakService) GetStreak(ctx context.Context, scope model.ScopeID) (*model.StreakResult, error) {
	p, err := s.unit.repo.LoadProgress(ctx, scope)
	if err != nil {
		return nil, err
	}
	return &model.StreakResult{
		LoginStreak:   p.LoginStreak,
		StreakDay:     streakDay(p.LoginStreak),
		LongestStreak: p.LongestStreak,
	}, nil
}

// applyDailyActivity はストリークを更新します。
// 同日なら変更なし、前日の続きなら +1、日が空いたら 1 に戻します。
// 最終ログイン日より前の日付は巻き戻しになるため ErrInvalidInput (状態は変えない)。
func applyDailyActivity(p *model.UserProgress, today model.Date, rewards []int) (*model.StreakResult, error) {
	if p.LastLoginDate == today {
		return &model.StreakResult{
			LoginStreak:     p.LoginStreak,
			StreakDay:       streakDay(p.LoginStreak),
			AlreadyLoggedIn: true,
			LongestStreak:   p.LongestStreak,
		}, nil
	}
	if !p.LastLoginDate.IsZero() && today.Before(p.LastLoginDate) {
		return nil, fmt.Errorf("%w: %s is before the last activity date %s", model.ErrInvalidInput, today, p.LastLoginDate)
	}

	if !p.LastLoginDate.IsZero() && p.LastLoginDate.AddDays(1) == today {
		p.LoginStreak++
	} else {
		p.LoginStreak = 1
	}
	p.LastLoginDate = today
	if p.LoginStreak > p.LongestStreak {
		p.LongestStreak = p.LoginStreak
	}

	day := streakDay(p.LoginStreak)
	result := &model.StreakResult{
		LoginStreak:   p.LoginStreak,
		StreakDay:     day,
		LongestStreak: p.LongestStreak,
	}
	if day <= len(rewards) && rewards[day-1] > 0 {
		result.RewardXP = rewards[day-1]
		result.XP = applyXP(p, result.RewardXP)
	}
	return result, nil
}

// streakDay は 1〜7 の報酬サイクル上の位置。ストリーク 0 は 0。
func streakDay(streak int) int {
	if streak <= 0 {
		return 0
	}
	return ((streak - 1) % streakCycleDays) + 1
}
