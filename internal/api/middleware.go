package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/skylog-app/skylog/internal/api/ratelimit"
	"github.com/skylog-app/skylog/internal/api/respond"
	"github.com/skylog-app/skylog/internal/auth"
)

type ctxKey int

const actorKey ctxKey = iota

// ActorFrom returns the authenticated actor stored by AuthMiddleware.
func ActorFrom(ctx context.Context) (*auth.Actor, bool) {
	a, ok := ctx.Value(actorKey).(*auth.Actor)
	return a, ok
}

// AuthMiddleware resolves the bearer token and stores the actor in the
// request context. Requests without a valid token never reach handlers.
func AuthMiddleware(authorizer auth.Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respond.WriteUnauthorized(w, "missing bearer token")
				return
			}
			actor, err := authorizer.Authorize(r.Context(), token)
			if err != nil {
				respond.WriteUnauthorized(w, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
		})
	}
}

// RateLimitMiddleware drops requests over the per-user allowance with 429.
// Runs after AuthMiddleware so the bucket keys on the authenticated user.
func RateLimitMiddleware(limiter *ratelimit.PerUser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				respond.WriteUnauthorized(w, "missing bearer token")
				return
			}
			if !limiter.Allow(actor.UserID) {
				respond.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, prefix))
}
