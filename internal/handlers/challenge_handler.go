// internal/handlers/challenge_handler.go
package handlers

import (
	"net/http"

	"go_cyber_aware/internal/model"
	"go_cyber_aware/internal/service"
	"go_cyber_aware/internal/webutil"
)

// ChallengeHandler は日替わりチャレンジと練習クイズを扱います。
type ChallengeHandler struct {
	daily        service.DailyChallengeService
	history      service.HistoryService
	defaultCount int
	cal          Calendar
}

func NewChallengeHandler(daily service.DailyChallengeService, history service.HistoryService, defaultCount int, cal Calendar) *ChallengeHandler {
	return &ChallengeHandler{daily: daily, history: history, defaultCount: defaultCount, cal: cal}
}

type questionsResponse struct {
	Date      *model.Date      `json:"date,omitempty"`
	Questions []model.Question `json:"questions"`
}

// GetDailyQuestions は日付から決まる問題セットを返します (?date=YYYY-MM-DD&count=N)。
// 問題の閲覧は状態を変えないため、過去・未来の日付も指定できます。
func (h *ChallengeHandler) GetDailyQuestions(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(r, "GetDailyQuestions")

	d := h.cal.today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := model.ParseDate(raw)
		if err != nil {
			webutil.HandleError(w, logger, model.NewAppError("INVALID_DATE", "日付はYYYY-MM-DD形式で指定してください。", "date", err))
			return
		}
		d = parsed
	}
	count, err := intQuery(r, "count", h.defaultCount)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	questions, err := h.daily.GetDailyQuestions(d, count)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, questionsResponse{Date: &d, Questions: questions})
}

func (h *ChallengeHandler) GetDailyStatus(w http.ResponseWriter, r *http.Request) {
	scope, logger, ok := requestScope(w, r, "GetDailyStatus")
	if !ok {
		return
	}
	status, err := h.daily.GetDailyStatus(r.Context(), scope, h.cal.today())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, status)
}

func (h *ChallengeHandler) PostDailyComplete(w http.ResponseWriter, r *http.Request) {
	scope, logger, ok := requestScope(w, r, "PostDailyComplete")
	if !ok {
		return
	}

	var req model.CompleteQuizRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	d, err := h.cal.dateOrToday(req.Date)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	result, err := h.daily.CompleteDailyChallenge(r.Context(), scope, d, *req.Score, *req.Total)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, result)
}

func (h *ChallengeHandler) GetPracticeQuestions(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(r, "GetPracticeQuestions")
	count, err := intQuery(r, "count", h.defaultCount)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	questions, err := h.history.PracticeQuestions(count)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, questionsResponse{Questions: questions})
}

func (h *ChallengeHandler) PostPracticeSession(w http.ResponseWriter, r *http.Request) {
	scope, logger, ok := requestScope(w, r, "PostPracticeSession")
	if !ok {
		return
	}

	var req model.CompleteQuizRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	d, err := h.cal.dateOrToday(req.Date)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	result, err := h.history.CompletePracticeSession(r.Context(), scope, d, *req.Score, *req.Total)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusCreated, result)
}
