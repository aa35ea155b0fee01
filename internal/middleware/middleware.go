package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"agromarket/internal/models"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type TokenParser interface {
	Parse(token string) (models.Actor, error)
}

type actorKey struct{}

// ActorFrom returns the actor attached by Auth, or the zero actor for
// anonymous requests.
func ActorFrom(ctx context.Context) models.Actor {
	actor, _ := ctx.Value(actorKey{}).(models.Actor)
	return actor
}

func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// Auth resolves the bearer token into an actor. Requests without a token pass
// through anonymously and are rejected by the operations that need a caller.
// A token that does not verify is rejected right away.
func Auth(parser TokenParser, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if len(header) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				unauthorized(w)
				return
			}

			actor, err := parser.Parse(strings.TrimSpace(token))
			if err != nil {
				log.Debug().Err(err).Str("request_id", chimw.GetReqID(r.Context())).Msg("token rejected")
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"reason":"invalid or expired access token"}`))
}

// Logging writes one structured line per request.
func Logging(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(rec, r)

			status := rec.Status()
			if status == 0 {
				status = http.StatusOK
			}

			event := log.Info()
			if status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", rec.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
