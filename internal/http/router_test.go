package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/contacts-api/internal/auth"
	"github.com/redmonkez12/contacts-api/internal/config"
	"github.com/redmonkez12/contacts-api/internal/contact"
	"github.com/redmonkez12/contacts-api/internal/logging"
	"github.com/redmonkez12/contacts-api/internal/ratelimit"
	"github.com/redmonkez12/contacts-api/internal/user"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type usersByName map[string]*user.User

func (u usersByName) FindByUsername(_ context.Context, username string) (*user.User, error) {
	if found, ok := u[username]; ok {
		return found, nil
	}
	return nil, user.ErrNotFound
}

// countingLimiter allows limit requests per key and never resets
type countingLimiter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingLimiter) Allow(_ context.Context, purpose, key string, limit int, window time.Duration) (ratelimit.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[purpose+key]++
	n := c.counts[purpose+key]
	return ratelimit.Result{
		Allowed:    n <= limit,
		Limit:      limit,
		Remaining:  max(limit-n, 0),
		RetryAfter: window,
	}, nil
}

type routerFixture struct {
	router  http.Handler
	issuer  *auth.Issuer
	pingErr error
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	cfg := &config.Config{
		Server:    config.ServerConfig{Env: "prod"},
		RateLimit: config.RateLimitConfig{MeRequests: 2, MeWindow: time.Minute},
	}

	codec, err := auth.NewJWTCodec([]byte(testSecret))
	require.NoError(t, err)
	users := usersByName{
		"alice": {ID: uuid.New(), Username: "alice", Email: "alice@example.com", Role: user.RoleUser},
	}

	f := &routerFixture{
		issuer: auth.NewIssuer(codec, auth.IssuerConfig{AccessTTL: time.Minute, EmailTTL: time.Hour, ResetTTL: time.Hour}),
	}

	f.router = NewRouter(cfg, Dependencies{
		Auth:           auth.NewHandler(nil),
		AuthMiddleware: auth.NewMiddleware(auth.NewResolver(codec, users)),
		Users:          user.NewHandler(user.NewService(nil, nil), auth.GetCurrentUser),
		Contacts:       contact.NewHandler(contact.NewService(nil, "US"), 100),
		RateLimiter:    &countingLimiter{counts: map[string]int{}},
		PingDB:         func(context.Context) error { return f.pingErr },
	}, logging.NewLogger(true))
	return f
}

func (f *routerFixture) get(t *testing.T, path, username string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if username != "" {
		token, err := f.issuer.IssueAccessToken(username)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthChecker(t *testing.T) {
	f := newRouterFixture(t)

	w := f.get(t, "/api/healthchecker", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Welcome to the Contacts API!"}`, w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	f.pingErr = errors.New("connection refused")
	w = f.get(t, "/api/healthchecker", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Error connecting to the database")
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	f := newRouterFixture(t)

	for _, path := range []string{"/api/users/me", "/api/contacts", "/api/contacts/birthdays"} {
		t.Run(path, func(t *testing.T) {
			w := f.get(t, path, "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestRouter_MeIsRateLimited(t *testing.T) {
	f := newRouterFixture(t)

	assert.Equal(t, http.StatusOK, f.get(t, "/api/users/me", "alice").Code)
	assert.Equal(t, http.StatusOK, f.get(t, "/api/users/me", "alice").Code)

	w := f.get(t, "/api/users/me", "alice")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestRouter_MeLimitIgnoresForwardedHeaders(t *testing.T) {
	f := newRouterFixture(t)
	token, err := f.issuer.IssueAccessToken("alice")
	require.NoError(t, err)

	send := func(spoofed string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		req.RemoteAddr = "203.0.113.9:5000"
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-Forwarded-For", spoofed)
		req.Header.Set("X-Real-IP", spoofed)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("1.0.0.1"))
	assert.Equal(t, http.StatusOK, send("1.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, send("1.0.0.3"))
}

func TestRouter_AvatarRequiresAdmin(t *testing.T) {
	f := newRouterFixture(t)

	token, err := f.issuer.IssueAccessToken("alice")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPatch, "/api/users/avatar", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_SwaggerOnlyInDevelopment(t *testing.T) {
	f := newRouterFixture(t)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/swagger/index.html", "").Code)
}
