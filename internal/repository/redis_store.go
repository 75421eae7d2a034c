// internal/repository/redis_store.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go_cyber_aware/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// RedisOptions は Redis 接続設定
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient は Redis クライアントを生成し、疎通を確認します。
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("NewRedisClient: %w", err)
	}
	return client, nil
}

// RedisStore は Redis 上のストア。SetMany は MULTI/EXEC で書き込みます。
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		middleware.GetLogger(ctx).Error("Error reading redis key", "error", err, "key", key)
		return "", false, fmt.Errorf("RedisStore.Get: %w", err)
	}
	return val, true, nil
}

func (s *RedisStore) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, k, v, 0)
		}
		return nil
	})
	if err != nil {
		middleware.GetLogger(ctx).Error("Error writing redis keys", "error", err, "count", len(values))
		return fmt.Errorf("RedisStore.SetMany: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
