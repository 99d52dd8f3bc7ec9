package handlers

import (
	"context"
	"net/http"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// BEARER TOKEN AUTHENTICATION
// ══════════════════════════════════════════════════════════════════════════════

// TokenResolver maps an opaque bearer token to a user ID.
// Implementations return an error for unknown or expired tokens.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// BearerAuth authenticates requests with a bearer token and injects the
// resolved user ID into the request context.
type BearerAuth struct {
	resolver TokenResolver
}

// NewBearerAuth creates a bearer token authenticator.
func NewBearerAuth(resolver TokenResolver) *BearerAuth {
	return &BearerAuth{resolver: resolver}
}

// Middleware rejects requests without a valid token.
func (a *BearerAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractBearerToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing_token","message":"Authorization bearer token is required"}`, http.StatusUnauthorized)
			return
		}

		userID, err := a.resolver.Resolve(r.Context(), token)
		if err != nil || userID == "" {
			http.Error(w, `{"error":"invalid_token","message":"Invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyUserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ExtractBearerToken pulls the token out of the Authorization header.
// Returns an empty string when the header is absent or malformed.
func ExtractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// UserIDFrom returns the authenticated user ID from the request context.
// An empty string means the request did not pass BearerAuth.
func UserIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyUserID).(string)
	return id
}
