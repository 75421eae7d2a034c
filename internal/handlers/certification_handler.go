// internal/handlers/certification_handler.go
package handlers

import (
	"net/http"
	"time"

	"go_cyber_aware/internal/model"
	"go_cyber_aware/internal/service"
	"go_cyber_aware/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CertificationHandler struct {
	service service.CertificationService
	cal     Calendar
}

func NewCertificationHandler(s service.CertificationService, cal Calendar) *CertificationHandler {
	return &CertificationHandler{service: s, cal: cal}
}

func (h *CertificationHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	scope, logger, ok := requestScope(w, r, "GetCertificationStatus")
	if !ok {
		return
	}
	status, err := h.service.GetStatus(r.Context(), scope)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, status)
}

// StartAttempt は受験を開始し、受験IDと出題を返します。
func (h *CertificationHandler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	scope, logger, ok := requestScope(w, r, "StartAttempt")
	if !ok {
		return
	}
	handle, err := h.service.StartAttempt(r.Context(), scope, h.cal.now())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusCreated, handle)
}

func (h *CertificationHandler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	scope, logger, ok := requestScope(w, r, "SubmitAttempt")
	if !ok {
		return
	}

	attemptID, err := uuid.Parse(chi.URLParam(r, "attempt_id"))
	if err != nil {
		appErr := model.NewAppError("INVALID_ATTEMPT_ID", "受験IDの形式が正しくありません。", "attempt_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	var req model.SubmitAttemptRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	elapsed := time.Duration(req.ElapsedSeconds) * time.Second
	result, err := h.service.SubmitAttempt(r.Context(), scope, attemptID, *req.CorrectCount, *req.TotalCount, elapsed, h.cal.now())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, result)
}
