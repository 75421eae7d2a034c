// internal/service/state.go
package service

import (
	"context"
	"fmt"

	"go_cyber_aware/internal/model"
	"go_cyber_aware/internal/repository"
)

// scopeState は1回の操作で読み込んだスコープの状態です。
// 変更した部分は mark* で印を付け、最後にまとめて保存します。
type scopeState struct {
	progress      *model.UserProgress
	record        *model.CertificationRecord
	progressDirty bool
	recordDirty   bool
}

func (s *scopeState) markProgress() { s.progressDirty = true }
func (s *scopeState) markRecord()   { s.recordDirty = true }

// stateUnit はスコープロックの下で 読み込み → 変更 → 一括保存 を行います。
type stateUnit struct {
	repo   repository.ProgressRepository
	locker repository.ScopeLocker
}

func (u *stateUnit) update(ctx context.Context, scope model.ScopeID, withRecord bool, fn func(st *scopeState) error) error {
	// --- ステップ1: スコープのロックを取得 ---
	unlock, err := u.locker.Lock(ctx, scope)
	if err != nil {
		return fmt.Errorf("lock scope %s: %w", scope, err)
	}
	defer unlock()

	// --- ステップ2: 最新の状態を読み込む (ロック取得後に読むこと) ---
	st := &scopeState{}
	if st.progress, err = u.repo.LoadProgress(ctx, scope); err != nil {
		return err
	}
	if withRecord {
		if st.record, err = u.repo.LoadCertification(ctx, scope); err != nil {
			return err
		}
	}

	// --- ステップ3: 変更。エラーなら何も保存しない ---
	if err := fn(st); err != nil {
		return err
	}

	// --- ステップ4: 変更した部分だけを1回の SetMany で保存 ---
	var p *model.UserProgress
	var r *model.CertificationRecord
	if st.progressDirty {
		p = st.progress
	}
	if st.recordDirty {
		r = st.record
	}
	if p == nil && r == nil {
		return nil
	}
	return u.repo.Save(ctx, scope, p, r)
}
