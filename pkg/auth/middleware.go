package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserIDFromContext は context から userID を取得する
func UserIDFromContext(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(userIDKey).(int64)
	return v, ok
}

// WithUserID は context に userID をセットする
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// CredentialChecker は username/password を検証し、一致したユーザーの ID を返す
type CredentialChecker interface {
	CheckCredentials(ctx context.Context, username, password string) (int64, error)
}

// Realm は WWW-Authenticate ヘッダーに載せる保護領域名
const Realm = "portfolio admin"

// RequireBasicAuth は HTTP Basic 認証必須ミドルウェア。資格情報を検証し、userID を context にセットする
func RequireBasicAuth(checker CredentialChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				unauthorized(w)
				return
			}

			userID, err := checker.CheckCredentials(r.Context(), username, password)
			if err != nil {
				slog.WarnContext(r.Context(), "admin authentication failed", "username", username, "error", err)
				unauthorized(w)
				return
			}

			ctx := WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+Realm+`", charset="UTF-8"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "unauthorized"})
}
