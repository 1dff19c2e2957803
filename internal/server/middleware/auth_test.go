package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClaims struct {
	userID uuid.UUID
}

func (c *testClaims) GetUserID() uuid.UUID {
	return c.userID
}

// tokenMap accepts only the tokens it holds
type tokenMap map[string]uuid.UUID

func (m tokenMap) ValidateToken(token string) (UserIDGetter, error) {
	id, ok := m[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return &testClaims{userID: id}, nil
}

func serve(t *testing.T, validator TokenValidator, header string) (*httptest.ResponseRecorder, uuid.UUID, bool) {
	t.Helper()
	var (
		called bool
		got    uuid.UUID
	)
	handler := AuthMiddleware(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		id, err := GetUserID(r)
		require.NoError(t, err)
		got = id
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/flows/mentor-guidance", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, got, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New()
	validator := tokenMap{"good-token": userID}

	for _, header := range []string{"Bearer good-token", "bearer good-token", "BeArEr   good-token"} {
		t.Run(header, func(t *testing.T) {
			rec, got, called := serve(t, validator, header)
			assert.True(t, called)
			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, userID, got)
		})
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	validator := tokenMap{"good-token": uuid.New(), "nil-subject": uuid.Nil}

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "no scheme", header: "good-token"},
		{name: "scheme only", header: "Bearer"},
		{name: "wrong scheme", header: "Basic good-token"},
		{name: "extra parts", header: "Bearer good-token extra"},
		{name: "unknown token", header: "Bearer forged"},
		{name: "nil subject", header: "Bearer nil-subject"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _, called := serve(t, validator, tt.header)
			assert.False(t, called, "handler must not run")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
		})
	}
}

func TestGetUserID(t *testing.T) {
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/me/profile", nil)
	_, err := GetUserID(req)
	assert.Error(t, err, "missing value")

	req = req.WithContext(context.WithValue(req.Context(), userIDKey, "not-a-uuid"))
	_, err = GetUserID(req)
	assert.Error(t, err, "wrong type")

	req = req.WithContext(WithUserID(req.Context(), userID))
	got, err := GetUserID(req)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}
