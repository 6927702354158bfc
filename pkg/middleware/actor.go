package middleware

import (
	"context"
	"net/http"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ActorKey is the context key for the authenticated actor
	ActorKey ContextKey = "actor"
)

// Role identifies what kind of principal is acting on a settlement.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleOperator Role = "OPERATOR"
	RoleMerchant Role = "MERCHANT"
	RoleVendor   Role = "VENDOR"
)

// Actor is the authenticated principal extracted from the request.
// Authentication itself lives upstream; this service only consumes the
// identity headers the gateway injects.
type Actor struct {
	UserID    string
	CompanyID string
	Role      Role
}

// ActorMiddleware reads the identity headers set by the auth gateway and puts
// the actor on the request context. A missing role header defaults to
// OPERATOR, matching the gateway's behavior for back-office traffic.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := Actor{
			UserID:    r.Header.Get("X-User-ID"),
			CompanyID: r.Header.Get("X-Company-ID"),
			Role:      Role(r.Header.Get("X-User-Role")),
		}
		if actor.Role == "" {
			actor.Role = RoleOperator
		}

		ctx := context.WithValue(r.Context(), ActorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetActor extracts the actor from the request context
func GetActor(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(Actor)
	return actor, ok
}
