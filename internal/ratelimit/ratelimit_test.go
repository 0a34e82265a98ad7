package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFixedWindow(t *testing.T) {
	now := time.Now()
	l := NewLimiter()
	l.now = func() time.Time { return now }

	// max=3, window=60s: three allowed, fourth rejected.
	for i := 0; i < 3; i++ {
		require.True(t, l.Allow("leads", "client-a", 3, time.Minute), "request %d should pass", i+1)
	}
	require.False(t, l.Allow("leads", "client-a", 3, time.Minute))

	st := l.GetStatus("leads", "client-a", 3, time.Minute)
	require.True(t, st.Limited)
	require.Equal(t, 3, st.Count)
	require.Equal(t, 0, st.Remaining)
	require.Equal(t, now.Add(time.Minute), st.ResetTime)

	// After the window elapses the next check resets transparently.
	now = now.Add(61 * time.Second)
	require.True(t, l.Allow("leads", "client-a", 3, time.Minute))
	st = l.GetStatus("leads", "client-a", 3, time.Minute)
	require.Equal(t, 1, st.Count)
	require.False(t, st.Limited)
}

func TestWindowsAreIndependentPerKey(t *testing.T) {
	l := NewLimiter()
	require.True(t, l.Allow("leads", "a", 1, time.Minute))
	require.False(t, l.Allow("leads", "a", 1, time.Minute))

	// Different client, different endpoint: unaffected.
	require.True(t, l.Allow("leads", "b", 1, time.Minute))
	require.True(t, l.Allow("contacts", "a", 1, time.Minute))
}

func TestAllowIsAtomicUnderConcurrency(t *testing.T) {
	l := NewLimiter()
	const max = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("leads", "c", max, time.Minute) {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, max, allowed, "exactly max requests may pass in one window")
}

func TestClientKeyPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/leads", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	key := ClientKey(r)
	require.NotEqual(t, UnknownClient, key)
	require.Len(t, key, 64, "key must be a sha256 hex digest, not a raw address")

	// Same client, same key; different client, different key.
	require.Equal(t, key, ClientKey(r))
	r2 := httptest.NewRequest(http.MethodPost, "/api/leads", nil)
	r2.Header.Set("X-Forwarded-For", "198.51.100.7")
	require.NotEqual(t, key, ClientKey(r2))
}

func TestClientKeyUnparseableFallsBack(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/leads", nil)
	r.RemoteAddr = "not-an-address"
	r.Header.Set("X-Forwarded-For", "garbage")
	require.Equal(t, UnknownClient, ClientKey(r))
}

func TestMiddleware(t *testing.T) {
	l := NewLimiter()
	handler := Middleware(l, "leads", 2, time.Minute)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/leads", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/leads", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))
	require.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}
