// internal/model/error.go
package model

import "errors"

// アプリケーション固有のエラー
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternalServer = errors.New("internal server error")
	ErrForbidden      = errors.New("forbidden")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("resource conflict") // 重複エラー用
)

// エンジン固有のエラー
var (
	ErrMaxAttemptsExceeded = errors.New("certification: maximum attempts exceeded")
	ErrAlreadyCertified    = errors.New("certification: already certified")
	ErrAttemptNotActive    = errors.New("certification: attempt is not active")
	ErrStoreUnavailable    = errors.New("persisted store unavailable")
	// ErrCorruptState はログ出力専用。呼び出し元には返さない。
	ErrCorruptState = errors.New("corrupt persisted state")
)

// ErrorDetail はエラーレスポンスの詳細
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// APIErrorResponse はAPIエラーレスポンスの構造体
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// AppError はクライアント向けの詳細と内部エラーをまとめて保持します。
type AppError struct {
	Detail ErrorDetail
	Err    error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Detail.Code + ": " + e.Err.Error()
	}
	return e.Detail.Code + ": " + e.Detail.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError は AppError を生成します。
func NewAppError(code, message, field string, err error) *AppError {
	return &AppError{
		Detail: ErrorDetail{
			Code:    code,
			Message: message,
			Field:   field,
		},
		Err: err,
	}
}
