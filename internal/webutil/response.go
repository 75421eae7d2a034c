// internal/webutil/response.go
package webutil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go_cyber_aware/internal/model"

	"github.com/go-playground/validator/v10"
)

// HandleError はエラーを解釈し、適切なJSONエラーレスポンスを返します。
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	statusCode := MapErrorToStatusCode(err)

	var errResp model.APIErrorResponse
	var appErr *model.AppError

	if errors.As(err, &appErr) {
		errResp = model.APIErrorResponse{Error: appErr.Detail}
	} else {
		errResp = model.APIErrorResponse{Error: detailFor(err)}
	}

	if statusCode >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err, "status", statusCode)
	} else {
		logger.Warn("Request rejected", "error", err, "status", statusCode)
	}
	RespondWithJSON(w, statusCode, errResp)
}

// MapErrorToStatusCode はアプリケーションエラーをHTTPステータスコードにマッピングします
func MapErrorToStatusCode(err error) int {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		err = appErr.Unwrap()
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrConflict),
		errors.Is(err, model.ErrAlreadyCertified),
		errors.Is(err, model.ErrAttemptNotActive):
		return http.StatusConflict
	case errors.Is(err, model.ErrForbidden), errors.Is(err, model.ErrMaxAttemptsExceeded):
		return http.StatusForbidden
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// detailFor は AppError でないエラーからクライアント向けの詳細を作ります。
// 予期せぬエラーの内容はクライアントに返さない。
func detailFor(err error) model.ErrorDetail {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return model.ErrorDetail{Code: "INVALID_INPUT", Message: "入力値が正しくありません。"}
	case errors.Is(err, model.ErrNotFound):
		return model.ErrorDetail{Code: "NOT_FOUND", Message: "リソースが見つかりません。"}
	case errors.Is(err, model.ErrAlreadyCertified):
		return model.ErrorDetail{Code: "ALREADY_CERTIFIED", Message: "すでに認定済みです。"}
	case errors.Is(err, model.ErrAttemptNotActive):
		return model.ErrorDetail{Code: "ATTEMPT_NOT_ACTIVE", Message: "この受験は開始されていないか、提出済みです。"}
	case errors.Is(err, model.ErrMaxAttemptsExceeded):
		return model.ErrorDetail{Code: "MAX_ATTEMPTS_EXCEEDED", Message: "受験回数の上限に達しました。"}
	case errors.Is(err, model.ErrStoreUnavailable):
		return model.ErrorDetail{Code: "STORE_UNAVAILABLE", Message: "データストアに接続できません。"}
	case errors.Is(err, model.ErrUnauthorized):
		return model.ErrorDetail{Code: "UNAUTHORIZED", Message: "認証が必要です。"}
	case errors.Is(err, model.ErrForbidden):
		return model.ErrorDetail{Code: "FORBIDDEN", Message: "この操作は許可されていません。"}
	case errors.Is(err, model.ErrConflict):
		return model.ErrorDetail{Code: "CONFLICT", Message: "リソースが競合しています。"}
	default:
		return model.ErrorDetail{Code: "INTERNAL_SERVER_ERROR", Message: "サーバー内部でエラーが発生しました。"}
	}
}

// RespondWithJSON はJSONレスポンスを返します
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Error marshaling JSON response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":"INTERNAL_SERVER_ERROR", "message":"レスポンス生成中にエラーが発生しました。"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// NewValidationErrorResponse はバリデーションエラーを日本語メッセージ付きの AppError に変換します。
func NewValidationErrorResponse(errs validator.ValidationErrors) *model.AppError {
	var fields []string
	var messages []string

	for _, err := range errs {
		fields = append(fields, err.Field())
		messages = append(messages, err.Translate(Trans))
	}

	return model.NewAppError(
		"VALIDATION_ERROR",
		strings.Join(messages, " "),
		strings.Join(fields, ","),
		model.ErrInvalidInput,
	)
}
