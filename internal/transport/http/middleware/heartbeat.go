package httpmw

import (
	"context"
	"net/http"
)

// Heartbeater is satisfied by presence.Tracker.
type Heartbeater interface {
	Heartbeat(ctx context.Context, userID int64) error
}

// HeartbeatMiddleware обновляет last_active_at на каждом авторизованном
// запросе. Explicit POST /heartbeat covers idle clients; this covers
// active ones for free.
func HeartbeatMiddleware(tracker Heartbeater) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID := UserIDFromCtx(r.Context()); userID != 0 {
				// best-effort: ошибки не прерывают запрос
				_ = tracker.Heartbeat(r.Context(), userID)
			}
			next.ServeHTTP(w, r)
		})
	}
}
