package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/khanhtranq/inventory-service/internal/apperr"
	"github.com/khanhtranq/inventory-service/internal/http/apierr"
)

// Headers carrying the verified actor identity. Token verification is
// the upstream gateway's job; by the time a request reaches this
// service the identity has already been checked.
const (
	ActorIDHeader   = "X-Actor-Id"
	ActorRoleHeader = "X-Actor-Role"
)

// Actor is the verified caller identity attached to the request.
type Actor struct {
	ID   string
	Role string
}

type actorContextKey struct{}

// ActorFromContext extracts the actor from the context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

// RequireIdentity rejects requests without an actor identity with 401
// and attaches the actor to the context otherwise.
func RequireIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID := r.Header.Get(ActorIDHeader)
			if actorID == "" {
				res := apierr.New(apperr.UnauthenticatedErr)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(res.StatusCode)
				//nolint:errcheck
				json.NewEncoder(w).Encode(res)
				return
			}

			actor := Actor{
				ID:   actorID,
				Role: r.Header.Get(ActorRoleHeader),
			}

			ctx := context.WithValue(r.Context(), actorContextKey{}, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
