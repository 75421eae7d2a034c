// internal/handlers/router.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"go_cyber_aware/internal/config"
	"go_cyber_aware/internal/middleware"
	"go_cyber_aware/internal/service"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// Services はルーターが使うサービス群
type Services struct {
	Scope         service.ScopeService
	XP            service.XPService
	Streak        service.StreakService
	Daily         service.DailyChallengeService
	History       service.HistoryService
	Certification service.CertificationService
}

// NewRouter はミドルウェアとルートを設定した chi ルーターを返します。
func NewRouter(cfg *config.Config, logger *slog.Logger, svc Services, store Pinger, clock Clock) http.Handler {
	cal := NewCalendar(clock, cfg.Location(), !cfg.Auth.Enabled)

	progressHandler := NewProgressHandler(svc.XP, svc.Streak, svc.Daily, svc.History, cal)
	challengeHandler := NewChallengeHandler(svc.Daily, svc.History, cfg.Engine.DailyQuestionCount, cal)
	certHandler := NewCertificationHandler(svc.Certification, cal)
	healthHandler := NewHealthHandler(store)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	})
	r.Use(c.Handler)

	r.Get("/health", healthHandler.GetHealth)

	r.Route("/api/v1", func(r chi.Router) {
		// 問題の取得は利用者の状態に依存しない
		r.Get("/daily/questions", challengeHandler.GetDailyQuestions)
		r.Get("/practice/questions", challengeHandler.GetPracticeQuestions)

		r.Group(func(r chi.Router) {
			if cfg.Auth.Enabled {
				logger.Info("Authentication is ENABLED. Applying JWTIdentityMiddleware.")
				r.Use(middleware.JWTIdentityMiddleware(cfg))
			} else {
				logger.Warn("Authentication is DISABLED. Applying DevIdentityMiddleware.")
				r.Use(middleware.DevIdentityMiddleware)
			}
			r.Use(middleware.ScopeMiddleware(svc.Scope))

			r.Get("/progress", progressHandler.GetProgress)
			r.Post("/activity", progressHandler.PostActivity)
			r.Post("/xp", progressHandler.PostXP)
			r.Get("/history", progressHandler.GetHistory)

			r.Get("/daily/status", challengeHandler.GetDailyStatus)
			r.Post("/daily/complete", challengeHandler.PostDailyComplete)
			r.Post("/practice/sessions", challengeHandler.PostPracticeSession)

			r.Route("/certification", func(r chi.Router) {
				r.Get("/", certHandler.GetStatus)
				r.Post("/attempts", certHandler.StartAttempt)
				r.Post("/attempts/{attempt_id}/submit", certHandler.SubmitAttempt)
			})
		})
	})

	return r
}
