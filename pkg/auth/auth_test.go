package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoUser(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		if user.Anonymous {
			w.Header().Set("X-Anonymous", "true")
		}
		_, _ = w.Write([]byte(user.UserID))
	})
}

func serve(h http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_Noop(t *testing.T) {
	verifier, err := NewVerifier(Config{Mode: ModeNoop})
	require.NoError(t, err)
	h := Middleware(verifier)(echoUser(t))

	tests := []struct {
		name    string
		headers map[string]string
		status  int
		body    string
	}{
		{name: "bearer", headers: map[string]string{"Authorization": "Bearer user-1"}, status: http.StatusOK, body: "user-1"},
		{name: "lowercase scheme", headers: map[string]string{"Authorization": "bearer user-2"}, status: http.StatusOK, body: "user-2"},
		{name: "internal header", headers: map[string]string{"X-User-ID": "svc"}, status: http.StatusOK, body: "svc"},
		{name: "missing", status: http.StatusUnauthorized},
		{name: "wrong scheme", headers: map[string]string{"Authorization": "Basic abc"}, status: http.StatusUnauthorized},
		{name: "empty token", headers: map[string]string{"Authorization": "Bearer   "}, status: http.StatusUnauthorized},
		{name: "reserved namespace", headers: map[string]string{"Authorization": "Bearer anon:x"}, status: http.StatusUnauthorized},
		{name: "anonymous not enabled", headers: map[string]string{AnonymousHeader: NewAnonymousID()}, status: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(h, tc.headers)
			assert.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestMiddleware_Anonymous(t *testing.T) {
	verifier, err := NewVerifier(Config{Mode: ModeNoop})
	require.NoError(t, err)
	h := Middleware(verifier, WithAnonymous(true))(echoUser(t))

	id := NewAnonymousID()
	rec := serve(h, map[string]string{AnonymousHeader: id})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anon:"+id, rec.Body.String())
	assert.Equal(t, "true", rec.Header().Get("X-Anonymous"))

	rec = serve(h, map[string]string{AnonymousHeader: "not-a-uuid"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(h, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A bearer token wins over the anonymous header.
	rec = serve(h, map[string]string{"Authorization": "Bearer user-1", AnonymousHeader: id})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestMiddleware_NilVerifierPassesThrough(t *testing.T) {
	called := false
	h := Middleware(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	serve(h, nil)
	assert.True(t, called)
}

func TestNewVerifier(t *testing.T) {
	_, err := NewVerifier(Config{Mode: "saml"})
	assert.Error(t, err)

	_, err = NewVerifier(Config{Mode: ModeClerk})
	assert.Error(t, err)
}

func TestUserFromContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithUser(context.Background(), AuthenticatedUser{UserID: "u"})
	user, ok := UserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u", user.UserID)
}
