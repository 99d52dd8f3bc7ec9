// Package handlers contains HTTP middleware and handler building blocks.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// ContextKey keys values injected into request contexts by middleware.
type ContextKey string

// ContextKeyUserID holds the authenticated user's ID.
const ContextKeyUserID ContextKey = "user_id"

// MiddlewareFunc wraps an http.Handler.
type MiddlewareFunc func(http.Handler) http.Handler

// Chain composes middlewares so the first one listed runs first.
func Chain(middlewares ...MiddlewareFunc) MiddlewareFunc {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// ChainHandler applies a middleware chain to a final handler.
func ChainHandler(handler http.Handler, middlewares ...MiddlewareFunc) http.Handler {
	return Chain(middlewares...)(handler)
}

// ───────────────────────────────────────────────
// Staff auth
// ───────────────────────────────────────────────

// APIKeyAuth guards operational routes (pprof, job triggers) with a
// static key set. Player routes use BearerAuth instead.
type APIKeyAuth struct {
	header string
	keys   map[string]struct{}
}

// NewAPIKeyAuth builds an authenticator; empty keys are ignored.
func NewAPIKeyAuth(header string, keys []string) *APIKeyAuth {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			set[k] = struct{}{}
		}
	}
	return &APIKeyAuth{header: header, keys: set}
}

// Middleware rejects requests without a known key in the configured header.
func (a *APIKeyAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(a.header)
		if key == "" {
			unauthorized(w, "missing_api_key", "API key is required")
			return
		}
		if _, ok := a.keys[key]; !ok {
			unauthorized(w, "invalid_api_key", "Invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + code + `","message":"` + msg + `"}`))
}

// ───────────────────────────────────────────────
// Request hygiene
// ───────────────────────────────────────────────

// TimeoutMiddleware caps handler time and returns 504 when exceeded.
func TimeoutMiddleware(timeout time.Duration) MiddlewareFunc {
	const body = `{"error":"timeout","message":"Request timeout exceeded"}`
	return func(next http.Handler) http.Handler {
		wrapped := http.TimeoutHandler(next, timeout, body)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			wrapped.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestSizeLimitMiddleware rejects oversized bodies. Feeding and chat
// payloads are tiny; anything large is abuse.
func RequestSizeLimitMiddleware(maxBytes int64) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				w.Write([]byte(`{"error":"payload_too_large","message":"Request body too large"}`))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// CacheControlMiddleware marks GET responses cacheable for maxAge.
// Non-GET responses are never cached.
func CacheControlMiddleware(maxAge time.Duration, private bool) MiddlewareFunc {
	scope := "public"
	if private {
		scope = "private"
	}
	value := scope + ", max-age=" + strconv.Itoa(int(maxAge.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				w.Header().Set("Cache-Control", value)
			} else {
				w.Header().Set("Cache-Control", "no-store")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NoCacheMiddleware forbids caching entirely. Pet state goes stale
// within the minute, so intermediaries must not hold it.
func NoCacheMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		w.Header().Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}

// SecurityHeadersMiddleware sets the standard browser hardening headers.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}
