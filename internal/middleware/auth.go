package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go_cyber_aware/internal/config"
	"go_cyber_aware/internal/model"
	"go_cyber_aware/internal/webutil"

	"github.com/golang-jwt/jwt/v5"
)

// DeviceIDHeader は未認証クライアントの端末IDを運ぶヘッダー
const DeviceIDHeader = "X-Device-ID"

// JWTIdentityMiddleware は Bearer トークンがあれば検証し、subject をユーザーIDとして扱います。
// トークンが無い場合は X-Device-ID による匿名アクセスとして通します。
func JWTIdentityMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())
			identity := model.Identity{DeviceID: r.Header.Get(DeviceIDHeader)}

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				headerParts := strings.Split(authHeader, " ")
				if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
					logger.Warn("JWT auth failed: Invalid Authorization header format")
					appErr := model.NewAppError("UNAUTHORIZED", "Authorizationヘッダーの形式が正しくありません。", "", model.ErrUnauthorized)
					webutil.HandleError(w, logger, appErr)
					return
				}

				subject, err := parseSubject(headerParts[1], cfg.Auth.JWTSecret)
				if err != nil {
					logger.Warn("JWT auth failed: Invalid token", "error", err)
					appErr := model.NewAppError("INVALID_TOKEN", "トークンが無効です。", "", model.ErrUnauthorized)
					webutil.HandleError(w, logger, appErr)
					return
				}
				identity.UserID = subject
			}

			ctx := context.WithValue(r.Context(), model.IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseSubject は署名と有効期限を検証し、sub クレームを返します。
func parseSubject(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("subject (sub) claim missing")
	}
	return subject, nil
}

// GetIdentityFromContext はミドルウェアが設定した Identity を返します。
func GetIdentityFromContext(ctx context.Context) (model.Identity, error) {
	identity, ok := ctx.Value(model.IdentityKey).(model.Identity)
	if !ok {
		return model.Identity{}, model.NewAppError("INTERNAL_SERVER_ERROR", "コンテキストから利用者情報を取得できませんでした。", "", model.ErrInternalServer)
	}
	return identity, nil
}
