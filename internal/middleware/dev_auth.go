// internal/middleware/dev_auth.go
package middleware

import (
	"context"
	"net/http"

	"go_cyber_aware/internal/model"
)

// DevUserIDHeader は開発時にユーザーIDを直接指定するヘッダー
const DevUserIDHeader = "X-User-ID"

// DevIdentityMiddleware は開発時用ミドルウェアです。
// X-User-ID と X-Device-ID ヘッダーをそのまま Identity として設定します (検証なし)。
func DevIdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := model.Identity{
			UserID:   r.Header.Get(DevUserIDHeader),
			DeviceID: r.Header.Get(DeviceIDHeader),
		}
		GetLogger(r.Context()).Debug("[DEV AUTH] identity set to context (no validation)",
			"user_id", identity.UserID,
			"device_id", identity.DeviceID,
		)

		ctx := context.WithValue(r.Context(), model.IdentityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
