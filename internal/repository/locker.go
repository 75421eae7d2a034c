// internal/repository/locker.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go_cyber_aware/internal/middleware"
	"go_cyber_aware/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ScopeLocker はスコープ単位の排他制御です。
// Lock が返す unlock は必ず1回呼び出してください。
type ScopeLocker interface {
	Lock(ctx context.Context, scope model.ScopeID) (unlock func(), err error)
}

// LocalLocker は同一プロセス内でスコープごとに直列化します。
type LocalLocker struct {
	mu    sync.Mutex
	slots map[model.ScopeID]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[model.ScopeID]chan struct{})}
}

func (l *LocalLocker) slot(scope model.ScopeID) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[scope]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[scope] = ch
	}
	return ch
}

func (l *LocalLocker) Lock(ctx context.Context, scope model.ScopeID) (func(), error) {
	ch := l.slot(scope)
	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("LocalLocker.Lock: %w", ctx.Err())
	}
}

const lockRetryInterval = 25 * time.Millisecond

// unlockScript は自分が取得したロックの場合のみ削除します。
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript は自分が保持しているロックの TTL だけを延長します。
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker は複数プロセス間でスコープを排他します (SET NX + TTL)。
// 保持中は TTL の 1/3 ごとにリースを延長するので、処理が TTL より長くても他プロセスに奪われない。
// TTL はプロセスが落ちたときにロックが残る最大時間になる。
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// minLockTTL 未満の TTL は延長が間に合わないため切り上げる
const minLockTTL = 300 * time.Millisecond

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl < minLockTTL {
		ttl = minLockTTL
	}
	return &RedisLocker{client: client, ttl: ttl}
}

var errLockNotAcquired = errors.New("scope lock not acquired")

func (l *RedisLocker) Lock(ctx context.Context, scope model.ScopeID) (func(), error) {
	logger := middleware.GetLogger(ctx)
	key := lockKey(scope)
	token := uuid.NewString()

	// --- 取得できるまで再試行 (ctx のキャンセルで諦める) ---
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("RedisLocker.Lock: %w: %w", model.ErrStoreUnavailable, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("RedisLocker.Lock: %w: %w", errLockNotAcquired, ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}

	// --- 保持中はリースを延長し続ける ---
	// リクエストがキャンセルされても unlock までは保持する
	bgCtx := context.WithoutCancel(ctx)
	stop := make(chan struct{})
	renewed := make(chan struct{})
	go func() {
		defer close(renewed)
		ticker := time.NewTicker(l.ttl / 3)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				renewCtx, cancel := context.WithTimeout(bgCtx, time.Second)
				n, err := renewScript.Run(renewCtx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int()
				cancel()
				if err != nil {
					logger.Warn("Failed to renew scope lock", "scope", scope.String(), "error", err)
					continue
				}
				if n == 0 {
					// ★ 期限切れで他プロセスに渡った。書き込みは続くので大きな声で残す
					logger.Error("Scope lock lost before release", "scope", scope.String())
					return
				}
			}
		}
	}()

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			close(stop)
			<-renewed

			releaseCtx, cancel := context.WithTimeout(bgCtx, time.Second)
			defer cancel()
			n, err := unlockScript.Run(releaseCtx, l.client, []string{key}, token).Int()
			if err != nil {
				logger.Error("Failed to release scope lock", "scope", scope.String(), "error", err)
				return
			}
			if n == 0 {
				logger.Warn("Scope lock already expired at release", "scope", scope.String())
			}
		})
	}
	return unlock, nil
}
