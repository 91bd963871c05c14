package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Logging emits one structured line per request: method, path, status,
// latency and the acting user.
func Logging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			t1 := time.Now()

			next.ServeHTTP(ww, r)

			actorID := "anonymous"
			if actor, ok := ActorFromContext(r.Context()); ok {
				actorID = actor.ID
			}

			log.InfoContext(r.Context(), "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status_code", ww.Status()),
				slog.Float64("latency_ms", float64(time.Since(t1))/float64(time.Millisecond)),
				slog.String("actor_id", actorID),
			)
		})
	}
}
