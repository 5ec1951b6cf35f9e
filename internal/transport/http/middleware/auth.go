package httpmw

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const ctxKeyUserID ctxKey = "user_id"

// IdentityGate resolves an opaque session token to a user id. Messaging
// trusts the result completely and fails closed when it is absent.
type IdentityGate interface {
	Resolve(ctx context.Context, token string) (int64, error)
}

func AuthMiddleware(gate IdentityGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || len(auth) <= 7 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"missing bearer token"}`))
				return
			}

			userID, err := gate.Resolve(r.Context(), strings.TrimSpace(auth[7:]))
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid session"}`))
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserIDFromCtx(ctx context.Context) int64 {
	if v := ctx.Value(ctxKeyUserID); v != nil {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}
