// internal/service/scope_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go_cyber_aware/internal/middleware"
	"go_cyber_aware/internal/model"
	"go_cyber_aware/internal/repository"
)

const (
	scopePrefixUser   = "user:"
	scopePrefixDevice = "device:"
)

type ScopeService interface {
	// ResolveScope は認証済みならユーザーID、未認証なら端末IDからスコープを決めます。
	ResolveScope(identity model.Identity) (model.ScopeID, error)
	// MigrateLegacyState はスコープ導入前のデータを移行します。旧データを受け取るのはサーバー全体で最初の1スコープだけです。
	MigrateLegacyState(ctx context.Context, scope model.ScopeID) (bool, error)
}

type scopeService struct {
	unit     stateUnit
	migrated sync.Map // model.ScopeID -> struct{}
}

func NewScopeService(repo repository.ProgressRepository, locker repository.ScopeLocker) ScopeService {
	return &scopeService{unit: stateUnit{repo: repo, locker: locker}}
}

func (s *scopeService) ResolveScope(identity model.Identity) (model.ScopeID, error) {
	if userID := strings.TrimSpace(identity.UserID); userID != "" {
		return model.ScopeID(scopePrefixUser + userID), nil
	}
	if deviceID := strings.TrimSpace(identity.DeviceID); deviceID != "" {
		return model.ScopeID(scopePrefixDevice + deviceID), nil
	}
	return "", fmt.Errorf("%w: no user or device identity", model.ErrInvalidInput)
}

func (s *scopeService) MigrateLegacyState(ctx context.Context, scope model.ScopeID) (bool, error) {
	if _, done := s.migrated.Load(scope); done {
		return false, nil
	}
	logger := middleware.GetLogger(ctx).With("scope", scope.String())

	unlock, err := s.unit.locker.Lock(ctx, scope)
	if err != nil {
		return false, fmt.Errorf("lock scope %s: %w", scope, err)
	}
	defer unlock()

	// 旧データはサーバー全体で共有されるため、引き取りは全スコープで直列化する。
	// ロック順は常に スコープ → legacy なのでデッドロックしない。
	unlockLegacy, err := s.unit.locker.Lock(ctx, repository.LegacyLockScope)
	if err != nil {
		return false, fmt.Errorf("lock legacy claim: %w", err)
	}
	defer unlockLegacy()

	migrated, err := s.unit.repo.MigrateLegacy(ctx, scope)
	if err != nil {
		logger.Error("Failed to migrate legacy state", "error", err)
		return false, err
	}
	s.migrated.Store(scope, struct{}{})
	if migrated {
		logger.Info("Legacy state migrated into scope")
	}
	return migrated, nil
}
