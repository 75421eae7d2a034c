package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// logCtxKey はコンテキストにロガーを格納するためのキーです。
type logCtxKey struct{}

// maxLoggedBody はデバッグログに出すボディの最大バイト数
const maxLoggedBody = 4 << 10

// sensitiveHeaders はログ出力時に値をマスキングするヘッダー名のリストです (小文字で定義)。
var sensitiveHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true, // リクエストヘッダー
	"set-cookie":    true, // レスポンスヘッダー
	"x-device-id":   true, // 匿名利用者の識別子
}

// responseRecorder はステータスコードとレスポンスボディ(先頭のみ)を記録します。
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	bytesOut   int
	body       bytes.Buffer
}

func (rr *responseRecorder) WriteHeader(statusCode int) {
	rr.statusCode = statusCode
	rr.ResponseWriter.WriteHeader(statusCode)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if room := maxLoggedBody - rr.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		rr.body.Write(b[:room]) // 先頭だけキャプチャ
	}
	n, err := rr.ResponseWriter.Write(b)
	rr.bytesOut += n
	return n, err
}

// LoggingMiddleware はリクエスト単位のロガーをコンテキストに格納し、開始と完了をログ出力します。
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// --- ステップ1: リクエスト到着時の準備 ---
			startTime := time.Now()

			// リクエストID付きのロガーを生成し、コンテキストに格納
			requestLogger := logger.With("req_id", middleware.GetReqID(r.Context()))
			ctx := context.WithValue(r.Context(), logCtxKey{}, requestLogger)
			r = r.WithContext(ctx)

			// ★★★ 開始ログの出力 ★★★
			requestLogger.Info("Request started",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			// リクエストボディはデバッグ時のみ読み取り、ハンドラ用に戻しておく
			debug := logger.Enabled(ctx, slog.LevelDebug)
			var reqBody []byte
			if debug && r.Body != nil {
				reqBody, _ = io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(reqBody), r.Body))
			}

			// --- ステップ2: 次のハンドラに処理を移譲 ---
			rr := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rr, r)

			// --- ステップ3: レスポンス返却直前のログ出力 ---
			// ログレベルはステータスで決める (5xx は ERROR、4xx は WARN)
			logLevel := slog.LevelInfo
			if rr.statusCode >= 500 {
				logLevel = slog.LevelError
			} else if rr.statusCode >= 400 {
				logLevel = slog.LevelWarn
			}

			// ★★★ 終了ログ（概要ログ）の出力 ★★★
			requestLogger.Log(ctx, logLevel, "Request completed",
				"status", rr.statusCode,
				"latency_ms", float64(time.Since(startTime).Nanoseconds())/1e6,
				"bytes_out", rr.bytesOut,
			)

			// ★★★ 詳細ログの出力 (デバッグレベル、機微なヘッダーはマスク) ★★★
			if debug {
				requestLogger.Debug("Request detail",
					"headers", formatHeaders(r.Header),
					"body", string(reqBody),
				)
				requestLogger.Debug("Response detail",
					"status", rr.statusCode,
					"headers", formatHeaders(rr.Header()),
					"body", rr.body.String(),
				)
			}
		})
	}
}

// GetLogger はコンテキストから slog.Logger を取得します。
func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(logCtxKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger はロガーを格納したコンテキストを返します (HTTP 以外の呼び出し元向け)。
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, logCtxKey{}, logger)
}

// formatHeaders はヘッダー情報をログ出力用に整形・マスキングするヘルパー関数
func formatHeaders(headers http.Header) map[string]string {
	result := make(map[string]string)
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			result[key] = "[SENSITIVE]"
		} else {
			result[key] = strings.Join(values, ", ")
		}
	}
	return result
}
