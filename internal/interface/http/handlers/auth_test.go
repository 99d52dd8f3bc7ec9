package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeResolver struct {
	tokens map[string]string
}

func (r *fakeResolver) Resolve(_ context.Context, token string) (string, error) {
	userID, ok := r.tokens[token]
	if !ok {
		return "", errors.New("token not found")
	}
	return userID, nil
}

func newAuthedEcho(resolver TokenResolver) http.Handler {
	auth := NewBearerAuth(resolver)
	return auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(UserIDFrom(r.Context())))
	}))
}

func TestBearerAuth_ValidTokenInjectsUserID(t *testing.T) {
	handler := newAuthedEcho(&fakeResolver{tokens: map[string]string{"tok-1": "u1"}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pet", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())
}

func TestBearerAuth_MissingToken(t *testing.T) {
	handler := newAuthedEcho(&fakeResolver{tokens: map[string]string{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pet", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_token")
}

func TestBearerAuth_UnknownToken(t *testing.T) {
	handler := newAuthedEcho(&fakeResolver{tokens: map[string]string{"tok-1": "u1"}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pet", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_token")
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer token", "Bearer abc123", "abc123"},
		{"extra spaces trimmed", "Bearer   abc123  ", "abc123"},
		{"no header", "", ""},
		{"wrong scheme", "Basic abc123", ""},
		{"bare token", "abc123", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, ExtractBearerToken(req))
		})
	}
}

func TestUserIDFrom_EmptyWithoutAuth(t *testing.T) {
	assert.Empty(t, UserIDFrom(context.Background()))
}
