package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/contacts-api/internal/user"
)

func TestMiddleware_RequireAuth(t *testing.T) {
	users := newMemoryUsers(
		&user.User{Username: "alice", Email: "alice@example.com", Role: user.RoleUser},
		&user.User{Username: "root", Email: "root@example.com", Role: user.RoleAdmin},
	)
	codec := newTestCodec()
	issuer := newTestIssuer(codec)
	m := NewMiddleware(NewResolver(codec, users))

	var seen *user.User
	protected := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetCurrentUser(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	adminOnly := m.RequireAuth(m.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	aliceToken, err := issuer.IssueAccessToken("alice")
	require.NoError(t, err)
	rootToken, err := issuer.IssueAccessToken("root")
	require.NoError(t, err)
	ghostToken, err := issuer.IssueAccessToken("ghost")
	require.NoError(t, err)

	tests := []struct {
		name       string
		handler    http.Handler
		header     string
		wantStatus int
	}{
		{name: "no header", handler: protected, wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", handler: protected, header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "unknown user", handler: protected, header: "Bearer " + ghostToken, wantStatus: http.StatusUnauthorized},
		{name: "garbage", handler: protected, header: "Bearer garbage", wantStatus: http.StatusUnauthorized},
		{name: "valid", handler: protected, header: "Bearer " + aliceToken, wantStatus: http.StatusNoContent},
		{name: "lowercase scheme", handler: protected, header: "bearer " + aliceToken, wantStatus: http.StatusNoContent},
		{name: "admin route as user", handler: adminOnly, header: "Bearer " + aliceToken, wantStatus: http.StatusForbidden},
		{name: "admin route as admin", handler: adminOnly, header: "Bearer " + rootToken, wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			tt.handler.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	require.NotNil(t, seen)
	assert.Equal(t, "alice", seen.Username)
}

func TestMiddleware_StorageFailureIs500(t *testing.T) {
	users := newMemoryUsers()
	users.findErr = assert.AnError
	codec := newTestCodec()
	m := NewMiddleware(NewResolver(codec, users))

	token, err := newTestIssuer(codec).IssueAccessToken("alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	m.RequireAuth(http.NotFoundHandler()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
