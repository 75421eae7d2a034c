// internal/repository/progress_repository.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go_cyber_aware/internal/middleware"
	"go_cyber_aware/internal/model"

	"github.com/google/uuid"
)

// ProgressRepository はスコープ単位で進捗と認定レコードを読み書きします。
// 壊れた値は警告ログを出してゼロ値として扱い、エラーにはしません。
type ProgressRepository interface {
	LoadProgress(ctx context.Context, scope model.ScopeID) (*model.UserProgress, error)
	LoadCertification(ctx context.Context, scope model.ScopeID) (*model.CertificationRecord, error)
	// Save は nil でない部分を1回の SetMany でまとめて書き込みます。
	Save(ctx context.Context, scope model.ScopeID, progress *model.UserProgress, record *model.CertificationRecord) error
	// MigrateLegacy はスコープ導入前のキーをスコープ付きキーへコピーします。
	// 何かコピーした場合のみ true を返します。
	MigrateLegacy(ctx context.Context, scope model.ScopeID) (bool, error)
}

type kvProgressRepository struct {
	store Store
}

func NewProgressRepository(store Store) ProgressRepository {
	return &kvProgressRepository{store: store}
}

// readField は1つの論理キーを読み込み、デコードと検証を行います。
// 値が無い、または壊れている場合はゼロ値を返します。
func readField[T any](ctx context.Context, store Store, scope model.ScopeID, logical string, validate func(T) error) (T, error) {
	var zero T
	key := ScopedKey(scope, logical)
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
	}
	if !found {
		return zero, nil
	}

	value, err := decodeValue[T](raw)
	if err == nil && validate != nil {
		err = validate(value)
	}
	if err != nil {
		middleware.GetLogger(ctx).Warn("Discarding corrupt persisted value",
			"error", fmt.Errorf("%w: %w", model.ErrCorruptState, err),
			"scope", scope.String(),
			"key", logical,
		)
		return zero, nil
	}
	return value, nil
}

// decodeValue は JSON としてデコードします。
// 引用符なしで保存された古い文字列値 (例: 2024-05-01) も受け付けます。
func decodeValue[T any](raw string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(raw), &v)
	if err == nil {
		return v, nil
	}
	var retry T
	if json.Unmarshal([]byte(strconv.Quote(raw)), &retry) == nil {
		return retry, nil
	}
	return v, err
}

func nonNegative(n int) error {
	if n < 0 {
		return fmt.Errorf("negative value %d", n)
	}
	return nil
}

func validDate(d model.Date) error {
	if !d.IsZero() && !d.Valid() {
		return fmt.Errorf("invalid date %v", d)
	}
	return nil
}

func validAttempts(attempts []model.Attempt) error {
	for i, a := range attempts {
		if a.Timestamp.IsZero() || a.Score < 0 || a.Score > 100 {
			return fmt.Errorf("attempt %d is malformed", i)
		}
	}
	return nil
}

func validCertificate(c *model.Certificate) error {
	if c == nil {
		return nil
	}
	if c.ID == "" || c.Score < 0 || c.Score > 100 || !c.ExpiryDate.After(c.IssueDate) {
		return errors.New("certificate is malformed")
	}
	return nil
}

func validHandle(h *model.AttemptHandle) error {
	if h == nil {
		return nil
	}
	if h.ID == uuid.Nil || h.StartedAt.IsZero() {
		return errors.New("active attempt is malformed")
	}
	return nil
}

func (r *kvProgressRepository) LoadProgress(ctx context.Context, scope model.ScopeID) (*model.UserProgress, error) {
	var (
		p   model.UserProgress
		err error
	)
	if p.XPTotal, err = readField(ctx, r.store, scope, KeyXPTotal, nonNegative); err != nil {
		return nil, fmt.Errorf("kvProgressRepository.LoadProgress: %w", err)
	}
	if p.LoginStreak, err = readField(ctx, r.store, scope, KeyCurrentStreak, nonNegative); err != nil {
		return nil, fmt.Errorf("kvProgressRepository.LoadProgress: %w", err)
	}
	if p.LongestStreak, err = readField(ctx, r.store, scope, KeyLongestStreak, nonNegative); err != nil {
		return nil, fmt.Errorf("kvProgressRepository.LoadProgress: %w", err)
	}
	if p.LastLoginDate, err = readField(ctx, r.store, scope, KeyLastLoginDate, validDate); err != nil {
		return nil, fmt.Errorf("kvProgressRepository.LoadProgress: %w", err)
	}
	if p.DailyChallenge.LastCompletedDate, err = readField(ctx, r.store, scope, KeyLastCompletedDate, validDate); err != nil {
		return nil, fmt.Errorf("kvProgressRepository.LoadProgress: %w", err)
	}
	if p.DailyChallenge.LastScore, err = readField(ctx, r.store, scope, KeyTodayScore, nonNegative); err != nil {
		return nil, fmt.Errorf("kvProgressRepository.LoadProgress: %w", err)
	}
	history, err := readField[[]model.QuizSession](ctx, r.store, scope, KeyQuizHistory, nil)
	if err != nil {
		return nil, fmt.Errorf("kvProgressRepository.LoadProgress: %w", err)
	}
	p.QuizHistory = sanitizeHistory(ctx, scope, history)

	// 最長ストリークは現在のストリーク以上
	if p.LongestStreak < p.LoginStreak {
		p.LongestStreak = p.LoginStreak
	}
	return &p, nil
}

// sanitizeHistory は不正なエントリだけを取り除きます。
func sanitizeHistory(ctx context.Context, scope model.ScopeID, history []model.QuizSession) []model.QuizSession {
	out := make([]model.QuizSession, 0, len(history))
	for _, s := range history {
		if err := s.Validate(); err != nil {
			middleware.GetLogger(ctx).Warn("Dropping corrupt history entry",
				"error", err,
				"scope", scope.String(),
			)
			continue
		}
		out = append(out, s)
	}
	return out
}

func (r *kvProgressRepository) LoadCertification(ctx context.Context, scope model.ScopeID) (*model.CertificationRecord, error) {
	attempts, err := readField(ctx, r.store, scope, KeyCertAttempts, validAttempts)
	if err != nil {
		return nil, fmt.Errorf("kvProgressRepository.LoadCertification: %w", err)
	}
	cert, err := readField(ctx, r.store, scope, KeyCertificate, validCertificate)
	if err != nil {
		return nil, fmt.Errorf("kvProgressRepository.LoadCertification: %w", err)
	}
	active, err := readField(ctx, r.store, scope, KeyCertActiveAttempt, validHandle)
	if err != nil {
		return nil, fmt.Errorf("kvProgressRepository.LoadCertification: %w", err)
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}
	return &model.CertificationRecord{
		Attempts:      attempts,
		Certificate:   cert,
		ActiveAttempt: active,
	}, nil
}

func (r *kvProgressRepository) Save(ctx context.Context, scope model.ScopeID, progress *model.UserProgress, record *model.CertificationRecord) error {
	values := make(map[string]string)
	put := func(logical string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", logical, err)
		}
		values[ScopedKey(scope, logical)] = string(b)
		return nil
	}

	var errs []error
	if progress != nil {
		history := progress.QuizHistory
		if history == nil {
			history = []model.QuizSession{}
		}
		errs = append(errs,
			put(KeyXPTotal, progress.XPTotal),
			put(KeyCurrentStreak, progress.LoginStreak),
			put(KeyLongestStreak, progress.LongestStreak),
			put(KeyLastLoginDate, progress.LastLoginDate),
			put(KeyLastCompletedDate, progress.DailyChallenge.LastCompletedDate),
			put(KeyTodayScore, progress.DailyChallenge.LastScore),
			put(KeyQuizHistory, history),
		)
	}
	if record != nil {
		attempts := record.Attempts
		if attempts == nil {
			attempts = []model.Attempt{}
		}
		var active *model.AttemptHandle
		if record.ActiveAttempt != nil {
			h := *record.ActiveAttempt
			h.Questions = nil
			active = &h
		}
		errs = append(errs,
			put(KeyCertAttempts, attempts),
			put(KeyCertificate, record.Certificate),
			put(KeyCertActiveAttempt, active),
		)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("kvProgressRepository.Save: %w", err)
	}
	if len(values) == 0 {
		return nil
	}

	if err := r.store.SetMany(ctx, values); err != nil {
		return fmt.Errorf("kvProgressRepository.Save: %w: %w", model.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *kvProgressRepository) MigrateLegacy(ctx context.Context, scope model.ScopeID) (bool, error) {
	logger := middleware.GetLogger(ctx)
	sentinelKey := ScopedKey(scope, KeyMigrationComplete)

	done, found, err := r.store.Get(ctx, sentinelKey)
	if err != nil {
		return false, fmt.Errorf("kvProgressRepository.MigrateLegacy: %w: %w", model.ErrStoreUnavailable, err)
	}
	if found && done == "true" {
		return false, nil
	}

	values := map[string]string{sentinelKey: "true"}

	// --- 旧データが既に別スコープに引き取られていれば、完了フラグだけ書く ---
	claimedBy, claimed, err := r.store.Get(ctx, LegacyClaimKey())
	if err != nil {
		return false, fmt.Errorf("kvProgressRepository.MigrateLegacy: %w: %w", model.ErrStoreUnavailable, err)
	}
	if claimed {
		if err := r.store.SetMany(ctx, values); err != nil {
			return false, fmt.Errorf("kvProgressRepository.MigrateLegacy: %w: %w", model.ErrStoreUnavailable, err)
		}
		logger.Debug("Legacy progress already claimed", "scope", scope.String(), "claimed_by", claimedBy)
		return false, nil
	}

	// --- 旧キーを読み、スコープ側に無いものだけコピーする ---
	legacyFound := false
	copied := 0
	for _, logical := range MigratableKeys {
		legacy, ok, err := r.store.Get(ctx, LegacyKey(logical))
		if err != nil {
			return false, fmt.Errorf("kvProgressRepository.MigrateLegacy: %w: %w", model.ErrStoreUnavailable, err)
		}
		if !ok {
			continue
		}
		legacyFound = true
		// 既にスコープ付きの値があれば上書きしない
		_, exists, err := r.store.Get(ctx, ScopedKey(scope, logical))
		if err != nil {
			return false, fmt.Errorf("kvProgressRepository.MigrateLegacy: %w: %w", model.ErrStoreUnavailable, err)
		}
		if exists {
			continue
		}
		values[ScopedKey(scope, logical)] = legacy
		copied++
	}
	// ★ 引き取りの記録はコピーと同じバッチで書く (部分的に残さない)
	if legacyFound {
		values[LegacyClaimKey()] = string(scope)
	}

	if err := r.store.SetMany(ctx, values); err != nil {
		return false, fmt.Errorf("kvProgressRepository.MigrateLegacy: %w: %w", model.ErrStoreUnavailable, err)
	}
	if copied > 0 {
		logger.Info("Migrated legacy progress", "scope", scope.String(), "keys", copied)
	}
	return copied > 0, nil
}
