// internal/handlers/progress_handler.go
package handlers

import (
	"net/http"

	"go_cyber_aware/internal/model"
	"go_cyber_aware/internal/service"
	"go_cyber_aware/internal/webutil"
)

type ProgressHandler struct {
	xp      service.XPService
	streak  service.StreakService
	daily   service.DailyChallengeService
	history service.HistoryService
	cal     Calendar
}

func NewProgressHandler(xp service.XPService, streak service.StreakService, daily service.DailyChallengeService, history service.HistoryService, cal Calendar) *ProgressHandler {
	return &ProgressHandler{xp: xp, streak: streak, daily: daily, history: history, cal: cal}
}

// GetProgress はレベル・ストリーク・今日のチャレンジ・履歴をまとめて返します。
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	scope, logger, ok := requestScope(w, r, "GetProgress")
	if !ok {
		return
	}
	ctx := r.Context()

	level, err := h.xp.GetLevel(ctx, scope)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	streak, err := h.streak.GetStreak(ctx, scope)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	daily, err := h.daily.GetDailyStatus(ctx, scope, h.cal.today())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	history, err := h.history.GetHistory(ctx, scope)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, model.ProgressResponse{
		Level:   level,
		Streak:  streak,
		Daily:   daily,
		History: history,
	})
}

// PostActivity はデイリーアクティビティ (ログイン) を登録します。
func (h *ProgressHandler) PostActivity(w http.ResponseWriter, r *http.Request) {
	scope, logger, ok := requestScope(w, r, "PostActivity")
	if !ok {
		return
	}

	var req model.ActivityRequest
	if r.ContentLength != 0 {
		if err := webutil.DecodeJSONBody(r, &req); err != nil {
			webutil.HandleError(w, logger, err)
			return
		}
	}
	today, err := h.cal.dateOrToday(req.Date)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	result, err := h.streak.RegisterDailyActivity(r.Context(), scope, today)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, result)
}

// PostXP は任意の理由で XP を付与します (シミュレーター等の外部コンテンツ向け)。
func (h *ProgressHandler) PostXP(w http.ResponseWriter, r *http.Request) {
	scope, logger, ok := requestScope(w, r, "PostXP")
	if !ok {
		return
	}

	var req model.AwardXPRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	result, err := h.xp.AwardXP(r.Context(), scope, *req.Amount, req.Reason)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, result)
}

func (h *ProgressHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	scope, logger, ok := requestScope(w, r, "GetHistory")
	if !ok {
		return
	}
	history, err := h.history.GetHistory(r.Context(), scope)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, history)
}
