// internal/middleware/scope.go
package middleware

import (
	"context"
	"net/http"

	"go_cyber_aware/internal/model"
	"go_cyber_aware/internal/webutil"
)

// ScopeResolver は Identity からスコープを決め、旧データの移行を行います。
type ScopeResolver interface {
	ResolveScope(identity model.Identity) (model.ScopeID, error)
	MigrateLegacyState(ctx context.Context, scope model.ScopeID) (bool, error)
}

// ScopeMiddleware はリクエストのスコープを解決してコンテキストに格納します。
// 識別子が無いリクエストは 401 を返します。
func ScopeMiddleware(resolver ScopeResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())

			identity, err := GetIdentityFromContext(r.Context())
			if err != nil {
				webutil.HandleError(w, logger, err)
				return
			}

			scope, err := resolver.ResolveScope(identity)
			if err != nil {
				appErr := model.NewAppError("UNAUTHORIZED", "ログインするか X-Device-ID ヘッダーを指定してください。", "", model.ErrUnauthorized)
				webutil.HandleError(w, logger, appErr)
				return
			}

			if _, err := resolver.MigrateLegacyState(r.Context(), scope); err != nil {
				webutil.HandleError(w, logger, err)
				return
			}

			ctx := context.WithValue(r.Context(), model.ScopeIDKey, scope)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetScopeFromContext は ScopeMiddleware が設定したスコープを返します。
func GetScopeFromContext(ctx context.Context) (model.ScopeID, error) {
	scope, ok := ctx.Value(model.ScopeIDKey).(model.ScopeID)
	if !ok || scope == "" {
		return "", model.NewAppError("INTERNAL_SERVER_ERROR", "コンテキストからスコープを取得できませんでした。", "", model.ErrInternalServer)
	}
	return scope, nil
}
