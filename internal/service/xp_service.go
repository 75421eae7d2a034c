// internal/service/xp_service.go
package service

import (
	"context"
	"fmt"
	"math"

	"go_cyber_aware/internal/middleware"
	"go_cyber_aware/internal/model"
	"go_cyber_aware/internal/repository"
)

// maxXPTotal は累計XPの上限。どの経路で加算してもこれを超えない。
const maxXPTotal = math.MaxInt32

type XPService interface {
	AwardXP(ctx context.Context, scope model.ScopeID, amount int, reason string) (*model.XPResult, error)
	GetLevel(ctx context.Context, scope model.ScopeID) (*model.LevelSnapshot, error)
}

type xpService struct {
	unit stateUnit
}

func NewXPService(repo repository.ProgressRepository, locker repository.ScopeLocker) XPService {
	return &xpService{unit: stateUnit{repo: repo, locker: locker}}
}

func (s *xpService) AwardXP(ctx context.Context, scope model.ScopeID, amount int, reason string) (*model.XPResult, error) {
	logger := middleware.GetLogger(ctx).With("scope", scope.String())
	if amount < 0 {
		return nil, fmt.Errorf("%w: xp amount must not be negative", model.ErrInvalidInput)
	}

	var result *model.XPResult
	err := s.unit.update(ctx, scope, false, func(st *scopeState) error {
		// 利用者が指定した量は黙って切り詰めず、エラーにする
		if amount > 0 && amount > maxXPTotal-st.progress.XPTotal {
			return fmt.Errorf("%w: xp amount too large", model.ErrInvalidInput)
		}
		result = applyXP(st.progress, amount)
		if amount > 0 {
			st.markProgress()
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to award xp", "error", err, "amount", amount, "reason", reason)
		return nil, err
	}

	logger.Info("XP awarded", "amount", amount, "reason", reason, "xp_total", result.XPTotal, "leveled_up", result.LeveledUp)
	return result, nil
}

func (s *xpService) GetLevel(ctx context.Context, scope model.ScopeID) (*model.LevelSnapshot, error) {
	p, err := s.unit.repo.LoadProgress(ctx, scope)
	if err != nil {
		return nil, err
	}
	return levelSnapshot(p.XPTotal), nil
}

// applyXP は XP を加算し、加算前後のレベルを比較した結果を返します。
// 報酬やボーナスで上限を超える場合は maxXPTotal で頭打ちにし、XPGained は実際の加算量。
func applyXP(p *model.UserProgress, amount int) *model.XPResult {
	if amount < 0 {
		amount = 0
	}
	if p.XPTotal < 0 {
		p.XPTotal = 0
	}
	room := maxXPTotal - p.XPTotal
	if room < 0 {
		room = 0
	}
	if amount > room {
		amount = room
	}

	before := model.LevelFor(p.XPTotal)
	p.XPTotal += amount
	after := model.LevelFor(p.XPTotal)

	result := &model.XPResult{
		XPTotal:  p.XPTotal,
		XPGained: amount,
		Level:    after,
	}
	if after.Number != before.Number {
		result.LeveledUp = true
		newLevel := after
		result.NewLevel = &newLevel
	}
	return result
}

// scoreXP は正答数に応じた XP。掛け算のオーバーフローも上限で止める。
func scoreXP(score, perAnswer int) int {
	if score <= 0 || perAnswer <= 0 {
		return 0
	}
	if score > maxXPTotal/perAnswer {
		return maxXPTotal
	}
	return score * perAnswer
}

func levelSnapshot(xpTotal int) *model.LevelSnapshot {
	current := model.LevelFor(xpTotal)
	snap := &model.LevelSnapshot{XPTotal: xpTotal, Level: current}
	if next, ok := model.NextLevel(current); ok {
		snap.NextLevel = &next
		snap.XPToNextLevel = next.Threshold - xpTotal
	}
	return snap
}
