// cmd/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"go_cyber_aware/internal/config"
	"go_cyber_aware/internal/content"
	"go_cyber_aware/internal/handlers"
	"go_cyber_aware/internal/repository"
	"go_cyber_aware/internal/service"
)

func main() {
	// 設定ファイル読み込み用の一時的なロガー
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)
	log.Println("Log Config Loading...")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs"
	}
	if err := config.LoadConfig(configPath); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := newLogger(config.Cfg.Log.Level, tempLogger)
	slog.SetDefault(logger)
	log.Println("Log Config Loaded...")

	slog.Info("Application starting...",
		slog.String("app", config.AppName),
		slog.String("version", config.AppVersion),
	)

	// 1. ストアとロック (接続確認を含むので起動時だけタイムアウトを付ける)
	initCtx, initCancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, locker, closeStore, err := openStore(initCtx, &config.Cfg, logger)
	initCancel()
	if err != nil {
		slog.Error("Error initializing store", slog.String("driver", config.Cfg.Store.Driver), slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	// 2. 問題バンク
	bank, err := content.LoadBank(config.Cfg.Content.QuestionBankPath)
	if err != nil {
		slog.Error("Error loading question bank", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("Question bank loaded", slog.Int("questions", len(bank)))

	// 3. Dependency Injection
	repo := repository.NewProgressRepository(store)
	engine := config.Cfg.Engine
	svc := handlers.Services{
		Scope:         service.NewScopeService(repo, locker),
		XP:            service.NewXPService(repo, locker),
		Streak:        service.NewStreakService(repo, locker, engine),
		Daily:         service.NewDailyChallengeService(repo, locker, bank, engine),
		History:       service.NewHistoryService(repo, locker, bank, engine),
		Certification: service.NewCertificationService(repo, locker, bank, engine),
	}

	// 4. Router
	router := handlers.NewRouter(&config.Cfg, logger, svc, store, time.Now)

	// 5. Start Server
	server := &http.Server{
		Addr:         config.Cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", config.Cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", config.Cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}

// newLogger は設定のログレベルと APP_ENV に応じたロガーを作ります。
// dev では tint、それ以外は JSON。
func newLogger(level string, tempLogger *slog.Logger) *slog.Logger {
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", level))
	}

	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		})
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	return slog.New(handler)
}

// openStore は設定されたドライバのストアとスコープロックを返します。
// redis の場合のみロックもプロセス間で共有されます。
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Store, repository.ScopeLocker, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		// 開発・テスト用。再起動で進捗は消える
		logger.Warn("Using in-memory store; progress is lost on restart")
		return repository.NewMemoryStore(), repository.NewLocalLocker(), func() {}, nil

	case config.StoreDriverGorm:
		// --- PostgreSQL / SQLite (database.url が "sqlite:" で始まれば SQLite) ---
		db, err := repository.NewDB(cfg.Database.URL, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, nil, err
		}
		closeDB := func() {
			if err := sqlDB.Close(); err != nil {
				slog.Error("Error closing database connection", slog.Any("error", err))
			} else {
				slog.Info("Database connection closed.")
			}
		}
		// kv_records テーブルが無ければ作成
		store := repository.NewGormStore(db)
		if err := store.Migrate(ctx); err != nil {
			closeDB()
			return nil, nil, nil, err
		}
		// ★ ロックはプロセス内のみ。複数インスタンスで動かす場合は redis を使うこと ★
		return store, repository.NewLocalLocker(), closeDB, nil

	case config.StoreDriverRedis:
		// --- Redis: ストアとロックを同じクライアントで共有 ---
		client, err := repository.NewRedisClient(ctx, repository.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		closeRedis := func() {
			if err := client.Close(); err != nil {
				slog.Error("Error closing redis connection", slog.Any("error", err))
			} else {
				slog.Info("Redis connection closed.")
			}
		}
		// ロックは保持中に延長されるので、lock_ttl はリクエストのタイムアウトより短くてよい
		return repository.NewRedisStore(client), repository.NewRedisLocker(client, cfg.Redis.LockTTL), closeRedis, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
