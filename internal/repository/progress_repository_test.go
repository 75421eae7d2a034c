package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"go_cyber_aware/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScope = model.ScopeID("user:42")

// failingStore は常にエラーを返すストア
type failingStore struct{}

var errBackend = errors.New("backend down")

func (failingStore) Get(context.Context, string) (string, bool, error) { return "", false, errBackend }
func (failingStore) SetMany(context.Context, map[string]string) error  { return errBackend }
func (failingStore) Ping(context.Context) error                        { return errBackend }

func TestProgressRepository_LoadEmpty(t *testing.T) {
	ctx := context.Background()
	repo := NewProgressRepository(NewMemoryStore())

	p, err := repo.LoadProgress(ctx, testScope)
	require.NoError(t, err)
	assert.Equal(t, 0, p.XPTotal)
	assert.Equal(t, 0, p.LoginStreak)
	assert.True(t, p.LastLoginDate.IsZero())
	assert.Empty(t, p.QuizHistory)

	r, err := repo.LoadCertification(ctx, testScope)
	require.NoError(t, err)
	assert.Empty(t, r.Attempts)
	assert.Nil(t, r.Certificate)
	assert.Nil(t, r.ActiveAttempt)
}

func TestProgressRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := newGormTestStore(t)
	repo := NewProgressRepository(store)

	issued := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	progress := &model.UserProgress{
		XPTotal:       450,
		LoginStreak:   3,
		LongestStreak: 5,
		LastLoginDate: model.Date{Year: 2024, Month: time.May, Day: 1},
		DailyChallenge: model.DailyChallenge{
			LastCompletedDate: model.Date{Year: 2024, Month: time.May, Day: 1},
			LastScore:         4,
		},
		QuizHistory: []model.QuizSession{
			{Date: model.Date{Year: 2024, Month: time.May, Day: 1}, Score: 4, Total: 5, Mode: model.SessionModeDaily},
		},
	}
	record := &model.CertificationRecord{
		Attempts: []model.Attempt{{Timestamp: issued, Score: 86, Passed: true}},
		Certificate: &model.Certificate{
			ID:         "CSA-TEST-ABCDEF",
			Score:      86,
			IssueDate:  issued,
			ExpiryDate: issued.AddDate(2, 0, 0),
		},
		ActiveAttempt: &model.AttemptHandle{
			ID:        uuid.New(),
			StartedAt: issued,
			Questions: []model.Question{{ID: "q001"}},
		},
	}

	require.NoError(t, repo.Save(ctx, testScope, progress, record))

	gotP, err := repo.LoadProgress(ctx, testScope)
	require.NoError(t, err)
	assert.Equal(t, progress, gotP)

	gotR, err := repo.LoadCertification(ctx, testScope)
	require.NoError(t, err)
	require.Len(t, gotR.Attempts, 1)
	assert.True(t, issued.Equal(gotR.Attempts[0].Timestamp))
	require.NotNil(t, gotR.Certificate)
	assert.Equal(t, "CSA-TEST-ABCDEF", gotR.Certificate.ID)
	assert.True(t, issued.AddDate(2, 0, 0).Equal(gotR.Certificate.ExpiryDate))
	require.NotNil(t, gotR.ActiveAttempt)
	assert.Equal(t, record.ActiveAttempt.ID, gotR.ActiveAttempt.ID)
	assert.Empty(t, gotR.ActiveAttempt.Questions, "問題は永続化しない")
	assert.Len(t, record.ActiveAttempt.Questions, 1, "呼び出し元の値は変更しない")
}

func TestProgressRepository_SaveOnlyProvidedParts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := NewProgressRepository(store)

	require.NoError(t, repo.Save(ctx, testScope, &model.UserProgress{XPTotal: 10}, nil))

	_, found, err := store.Get(ctx, ScopedKey(testScope, KeyCertAttempts))
	require.NoError(t, err)
	assert.False(t, found)

	v, found, err := store.Get(ctx, ScopedKey(testScope, KeyXPTotal))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "10", v)
}

func TestProgressRepository_CorruptValues(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		values map[string]string
		check  func(t *testing.T, p *model.UserProgress, r *model.CertificationRecord)
	}{
		{
			name:   "異常系: XP が数値でない",
			values: map[string]string{KeyXPTotal: "not-a-number", KeyCurrentStreak: "2"},
			check: func(t *testing.T, p *model.UserProgress, r *model.CertificationRecord) {
				assert.Equal(t, 0, p.XPTotal)
				assert.Equal(t, 2, p.LoginStreak)
			},
		},
		{
			name:   "異常系: XP が負数",
			values: map[string]string{KeyXPTotal: "-5"},
			check: func(t *testing.T, p *model.UserProgress, r *model.CertificationRecord) {
				assert.Equal(t, 0, p.XPTotal)
			},
		},
		{
			name:   "異常系: 日付が不正",
			values: map[string]string{KeyLastLoginDate: `"2024-02-30"`},
			check: func(t *testing.T, p *model.UserProgress, r *model.CertificationRecord) {
				assert.True(t, p.LastLoginDate.IsZero())
			},
		},
		{
			name:   "異常系: 履歴が JSON でない",
			values: map[string]string{KeyQuizHistory: "[{broken"},
			check: func(t *testing.T, p *model.UserProgress, r *model.CertificationRecord) {
				assert.Empty(t, p.QuizHistory)
			},
		},
		{
			name: "異常系: 不正な履歴エントリだけ除外",
			values: map[string]string{KeyQuizHistory: `[
				{"date":"2024-05-01","score":3,"total":5,"mode":"daily"},
				{"date":"2024-05-02","score":9,"total":5,"mode":"daily"},
				{"date":"2024-05-03","score":1,"total":5,"mode":"unknown"}
			]`},
			check: func(t *testing.T, p *model.UserProgress, r *model.CertificationRecord) {
				require.Len(t, p.QuizHistory, 1)
				assert.Equal(t, 3, p.QuizHistory[0].Score)
			},
		},
		{
			name:   "異常系: 最長ストリークが現在値より小さい",
			values: map[string]string{KeyCurrentStreak: "6", KeyLongestStreak: "2"},
			check: func(t *testing.T, p *model.UserProgress, r *model.CertificationRecord) {
				assert.Equal(t, 6, p.LongestStreak)
			},
		},
		{
			name:   "異常系: 受験履歴のスコアが範囲外",
			values: map[string]string{KeyCertAttempts: `[{"timestamp":"2024-05-01T00:00:00Z","score":150,"passed":true}]`},
			check: func(t *testing.T, p *model.UserProgress, r *model.CertificationRecord) {
				assert.Empty(t, r.Attempts)
			},
		},
		{
			name:   "異常系: 認定証の有効期限が発行日以前",
			values: map[string]string{KeyCertificate: `{"id":"X","score":90,"issue_date":"2024-05-01T00:00:00Z","expiry_date":"2024-05-01T00:00:00Z"}`},
			check: func(t *testing.T, p *model.UserProgress, r *model.CertificationRecord) {
				assert.Nil(t, r.Certificate)
			},
		},
		{
			name:   "正常系: 引用符なしの旧形式の日付",
			values: map[string]string{KeyLastLoginDate: "2024-05-01"},
			check: func(t *testing.T, p *model.UserProgress, r *model.CertificationRecord) {
				assert.Equal(t, model.Date{Year: 2024, Month: time.May, Day: 1}, p.LastLoginDate)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			scoped := make(map[string]string, len(tt.values))
			for k, v := range tt.values {
				scoped[ScopedKey(testScope, k)] = v
			}
			require.NoError(t, store.SetMany(ctx, scoped))
			repo := NewProgressRepository(store)

			p, err := repo.LoadProgress(ctx, testScope)
			require.NoError(t, err)
			r, err := repo.LoadCertification(ctx, testScope)
			require.NoError(t, err)
			tt.check(t, p, r)
		})
	}
}

func TestProgressRepository_StoreUnavailable(t *testing.T) {
	ctx := context.Background()
	repo := NewProgressRepository(failingStore{})

	_, err := repo.LoadProgress(ctx, testScope)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
	assert.ErrorIs(t, err, errBackend)

	_, err = repo.LoadCertification(ctx, testScope)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)

	err = repo.Save(ctx, testScope, &model.UserProgress{}, nil)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)

	_, err = repo.MigrateLegacy(ctx, testScope)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
}

func TestProgressRepository_MigrateLegacy(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 旧キーをコピーし、2回目は何もしない", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.SetMany(ctx, map[string]string{
			LegacyKey(KeyXPTotal):       "120",
			LegacyKey(KeyCurrentStreak): "3",
			LegacyKey(KeyLastLoginDate): "2024-05-01",
		}))
		repo := NewProgressRepository(store)

		migrated, err := repo.MigrateLegacy(ctx, testScope)
		require.NoError(t, err)
		assert.True(t, migrated)

		p, err := repo.LoadProgress(ctx, testScope)
		require.NoError(t, err)
		assert.Equal(t, 120, p.XPTotal)
		assert.Equal(t, 3, p.LoginStreak)
		assert.Equal(t, model.Date{Year: 2024, Month: time.May, Day: 1}, p.LastLoginDate)

		// 旧キーが変わっても再移行しない
		require.NoError(t, store.SetMany(ctx, map[string]string{LegacyKey(KeyXPTotal): "999"}))
		migrated, err = repo.MigrateLegacy(ctx, testScope)
		require.NoError(t, err)
		assert.False(t, migrated)

		p, err = repo.LoadProgress(ctx, testScope)
		require.NoError(t, err)
		assert.Equal(t, 120, p.XPTotal)
	})

	t.Run("正常系: 既存のスコープ付きの値は上書きしない", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.SetMany(ctx, map[string]string{
			LegacyKey(KeyXPTotal):            "120",
			ScopedKey(testScope, KeyXPTotal): "50",
		}))
		repo := NewProgressRepository(store)

		migrated, err := repo.MigrateLegacy(ctx, testScope)
		require.NoError(t, err)
		assert.False(t, migrated)

		p, err := repo.LoadProgress(ctx, testScope)
		require.NoError(t, err)
		assert.Equal(t, 50, p.XPTotal)
	})

	t.Run("正常系: 旧データを受け取るのは最初のスコープだけ", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.SetMany(ctx, map[string]string{
			LegacyKey(KeyXPTotal):     "900",
			LegacyKey(KeyCertificate): `{"id":"CSA-X","score":90,"issue_date":"2024-05-01T00:00:00Z","expiry_date":"2026-05-01T00:00:00Z"}`,
		}))
		repo := NewProgressRepository(store)
		first := model.ScopeID("device:alice")
		second := model.ScopeID("device:mallory")

		migrated, err := repo.MigrateLegacy(ctx, first)
		require.NoError(t, err)
		assert.True(t, migrated)

		claimedBy, found, err := store.Get(ctx, LegacyClaimKey())
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, string(first), claimedBy)

		migrated, err = repo.MigrateLegacy(ctx, second)
		require.NoError(t, err)
		assert.False(t, migrated)

		p, err := repo.LoadProgress(ctx, second)
		require.NoError(t, err)
		assert.Equal(t, 0, p.XPTotal)
		rec, err := repo.LoadCertification(ctx, second)
		require.NoError(t, err)
		assert.Nil(t, rec.Certificate)

		// 2つ目のスコープも完了扱いになる
		done, found, err := store.Get(ctx, ScopedKey(second, KeyMigrationComplete))
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "true", done)

		rec, err = repo.LoadCertification(ctx, first)
		require.NoError(t, err)
		require.NotNil(t, rec.Certificate)
		assert.Equal(t, "CSA-X", rec.Certificate.ID)
	})

	t.Run("正常系: 旧データが無ければ引き取りを記録しない", func(t *testing.T) {
		store := NewMemoryStore()
		repo := NewProgressRepository(store)

		_, err := repo.MigrateLegacy(ctx, testScope)
		require.NoError(t, err)

		_, found, err := store.Get(ctx, LegacyClaimKey())
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("正常系: 旧データなしでも完了フラグを書く", func(t *testing.T) {
		store := NewMemoryStore()
		repo := NewProgressRepository(store)

		migrated, err := repo.MigrateLegacy(ctx, testScope)
		require.NoError(t, err)
		assert.False(t, migrated)

		v, found, err := store.Get(ctx, ScopedKey(testScope, KeyMigrationComplete))
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "true", v)
	})
}

func TestScopedKey(t *testing.T) {
	assert.Equal(t, "cyberaware:user:42:xpTotal", ScopedKey("user:42", KeyXPTotal))
	assert.Equal(t, "xpTotal", LegacyKey(KeyXPTotal))
	assert.NotEqual(t, ScopedKey("user:1", KeyXPTotal), ScopedKey("device:1", KeyXPTotal))
}
