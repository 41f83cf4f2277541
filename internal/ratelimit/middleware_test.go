package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryCounter mimics the Redis script in process
type memoryCounter struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func (m *memoryCounter) Allow(_ context.Context, purpose, key string, limit int, window time.Duration) (Result, error) {
	if m.err != nil {
		return Result{}, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	k := rateLimitKey(purpose, key)
	m.counts[k]++
	return evaluate(m.counts[k], window, limit, window), nil
}

func request(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPerIP(t *testing.T) {
	h := PerIP(&memoryCounter{}, nil, "me", 10, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 10; i++ {
		w := request(h, "10.0.0.1:5000")
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := request(h, "10.0.0.1:5001")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	// other clients have their own window
	assert.Equal(t, http.StatusOK, request(h, "10.0.0.2:5000").Code)
}

func TestPerIP_FailsOpen(t *testing.T) {
	h := PerIP(&memoryCounter{err: assert.AnError}, nil, "me", 1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, request(h, "10.0.0.1:5000").Code)
	}
}

func TestEvaluate(t *testing.T) {
	res := evaluate(3, 20*time.Second, 10, time.Minute)
	assert.True(t, res.Allowed)
	assert.Equal(t, 7, res.Remaining)
	assert.Zero(t, res.RetryAfter)

	res = evaluate(11, 20*time.Second, 10, time.Minute)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 20*time.Second, res.RetryAfter)

	// key without expiry falls back to the whole window
	res = evaluate(11, -1, 10, time.Minute)
	assert.Equal(t, time.Minute, res.RetryAfter)
}

func TestPerIP_IgnoresSpoofedForwardedFor(t *testing.T) {
	proxies, err := ParseProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	h := PerIP(&memoryCounter{}, proxies, "me", 2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote, xff string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	// a direct client rotating the header still shares one bucket
	assert.Equal(t, http.StatusOK, send("203.0.113.7:4000", "1.1.1.1"))
	assert.Equal(t, http.StatusOK, send("203.0.113.7:4000", "1.1.1.2"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.7:4000", "1.1.1.3"))

	// behind the proxy, prepended hops do not change the bucket either
	assert.Equal(t, http.StatusOK, send("10.0.0.5:80", "9.9.9.1, 198.51.100.4"))
	assert.Equal(t, http.StatusOK, send("10.0.0.5:80", "9.9.9.2, 198.51.100.4"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.5:80", "9.9.9.3, 198.51.100.4"))
}

func TestParseProxies(t *testing.T) {
	proxies, err := ParseProxies([]string{"10.0.0.0/8", "127.0.0.1", "fd00::/8", "192.168.1.77/24"})
	require.NoError(t, err)
	assert.Len(t, proxies, 4)
	assert.True(t, proxies.trusts("10.200.0.1"))
	assert.True(t, proxies.trusts("127.0.0.1"))
	assert.False(t, proxies.trusts("127.0.0.2"))
	assert.True(t, proxies.trusts("fd12::1"))
	assert.True(t, proxies.trusts("192.168.1.3"))
	assert.False(t, proxies.trusts("not-an-ip"))

	_, err = ParseProxies([]string{"10.0.0.0/33"})
	assert.ErrorContains(t, err, "10.0.0.0/33")
	_, err = ParseProxies([]string{"proxy.local"})
	assert.ErrorContains(t, err, "proxy.local")
}

func TestProxies_ClientIP(t *testing.T) {
	proxies, err := ParseProxies([]string{"10.0.0.0/8", "::1"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{name: "untrusted peer ignores forwarded for", header: map[string]string{"X-Forwarded-For": "1.1.1.1"}, remote: "3.3.3.3:1", want: "3.3.3.3"},
		{name: "untrusted peer ignores real ip", header: map[string]string{"X-Real-IP": "4.4.4.4"}, remote: "3.3.3.3:1", want: "3.3.3.3"},
		{name: "trusted peer uses last hop", header: map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, remote: "10.0.0.1:1", want: "2.2.2.2"},
		{name: "trusted hops are skipped", header: map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2, 10.1.1.1"}, remote: "10.0.0.1:1", want: "2.2.2.2"},
		{name: "garbage hop stops the walk", header: map[string]string{"X-Forwarded-For": "2.2.2.2, bogus, 10.1.1.1", "X-Real-IP": "5.5.5.5"}, remote: "10.0.0.1:1", want: "5.5.5.5"},
		{name: "trusted peer real ip", header: map[string]string{"X-Real-IP": " 4.4.4.4 "}, remote: "[::1]:1", want: "4.4.4.4"},
		{name: "trusted peer without headers", remote: "10.0.0.1:1", want: "10.0.0.1"},
		{name: "remote addr", remote: "3.3.3.3:1234", want: "3.3.3.3"},
		{name: "ipv6 remote addr", remote: "[2001:db8::1]:1234", want: "2001:db8::1"},
		{name: "no port", remote: "5.5.5.5", want: "5.5.5.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, proxies.ClientIP(req))
		})
	}
}
