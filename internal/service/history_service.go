// internal/service/history_service.go
package service

import (
	"context"
	"fmt"

	"go_cyber_aware/internal/config"
	"go_cyber_aware/internal/middleware"
	"go_cyber_aware/internal/model"
	"go_cyber_aware/internal/repository"
)

type HistoryService interface {
	// RecordSession は履歴に1件追加します (追記のみ、呼び出し順)。
	RecordSession(ctx context.Context, scope model.ScopeID, entry model.QuizSession) error
	PracticeQuestions(count int) ([]model.Question, error)
	CompletePracticeSession(ctx context.Context, scope model.ScopeID, date model.Date, score, total int) (*model.PracticeResult, error)
	GetHistory(ctx context.Context, scope model.ScopeID) ([]model.QuizSession, error)
}

type historyService struct {
	unit        stateUnit
	bank        []model.Question
	xpPerAnswer int
}

func NewHistoryService(repo repository.ProgressRepository, locker repository.ScopeLocker, bank []model.Question, cfg config.EngineConfig) HistoryService {
	return &historyService{
		unit:        stateUnit{repo: repo, locker: locker},
		bank:        bank,
		xpPerAnswer: cfg.XPPerCorrectAnswer,
	}
}

func (s *historyService) RecordSession(ctx context.Context, scope model.ScopeID, entry model.QuizSession) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	err := s.unit.update(ctx, scope, false, func(st *scopeState) error {
		st.progress.QuizHistory = append(st.progress.QuizHistory, entry)
		st.markProgress()
		return nil
	})
	if err != nil {
		middleware.GetLogger(ctx).Error("Failed to record quiz session", "error", err, "scope", scope.String())
		return err
	}
	return nil
}

func (s *historyService) PracticeQuestions(count int) ([]model.Question, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", model.ErrInvalidInput)
	}
	return randomSample(s.bank, count), nil
}

// CompletePracticeSession は練習結果を履歴に追加し XP を付与します。ストリークと日替わりには触れません。
func (s *historyService) CompletePracticeSession(ctx context.Context, scope model.ScopeID, date model.Date, score, total int) (*model.PracticeResult, error) {
	logger := middleware.GetLogger(ctx).With("scope", scope.String())
	entry := model.QuizSession{Date: date, Score: score, Total: total, Mode: model.SessionModePractice}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	result := &model.PracticeResult{Session: entry}
	err := s.unit.update(ctx, scope, false, func(st *scopeState) error {
		st.progress.QuizHistory = append(st.progress.QuizHistory, entry)
		result.XP = applyXP(st.progress, scoreXP(score, s.xpPerAnswer))
		st.markProgress()
		return nil
	})
	if err != nil {
		logger.Error("Failed to complete practice session", "error", err)
		return nil, err
	}

	logger.Info("Practice session completed", "score", score, "total", total)
	return result, nil
}

func (s *historyService) GetHistory(ctx context.Context, scope model.ScopeID) ([]model.QuizSession, error) {
	p, err := s.unit.repo.LoadProgress(ctx, scope)
	if err != nil {
		return nil, err
	}
	if p.QuizHistory == nil {
		return []model.QuizSession{}, nil
	}
	return p.QuizHistory, nil
}
