package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestWrapOrder(t *testing.T) {
	var order []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Wrap(okHandler(), mk("outer"), mk("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestRequestID_Generated(t *testing.T) {
	var seen string
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}), RequestID())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
}

func TestRequestID_EchoesValidHeader(t *testing.T) {
	h := Wrap(okHandler(), RequestID())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "client-supplied-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, "client-supplied-42", w.Header().Get("X-Request-ID"))
}

func TestRequestID_RejectsNonPrintable(t *testing.T) {
	h := Wrap(okHandler(), RequestID())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "bad\x01id")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.NotEqual(t, "bad\x01id", w.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRateLimit_Exceeded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := Wrap(okHandler(), RateLimit(ctx, RateLimitConfig{Max: 2, Window: time.Minute}))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimit_SeparateKeys(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := Wrap(okHandler(), RateLimit(ctx, RateLimitConfig{Max: 1, Window: time.Minute}))

	a := httptest.NewRequest(http.MethodGet, "/products", nil)
	a.RemoteAddr = "10.0.0.1:1234"
	b := httptest.NewRequest(http.MethodGet, "/products", nil)
	b.RemoteAddr = "10.0.0.2:1234"

	w := httptest.NewRecorder()
	h.ServeHTTP(w, a)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, b)
	assert.Equal(t, http.StatusOK, w.Code, "another client gets its own window")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, a)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimit_WindowReset(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})

	now := time.Now()
	_, _, allowed := rl.allow("k", now)
	require.True(t, allowed)
	_, _, allowed = rl.allow("k", now.Add(time.Second))
	require.False(t, allowed)

	_, _, allowed = rl.allow("k", now.Add(61*time.Second))
	assert.True(t, allowed, "new window after expiry")
}

func TestCORS_Preflight(t *testing.T) {
	h := Wrap(okHandler(), CORS(CORSConfig{
		AllowOrigins: []string{"http://localhost:5173"},
		MaxAge:       600,
	}))

	r := httptest.NewRequest(http.MethodOptions, "/products", nil)
	r.Header.Set("Origin", "http://LOCALHOST:5173")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	r.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	h := Wrap(okHandler(), CORS(CORSConfig{AllowOrigins: []string{"http://localhost:5173"}}))

	r := httptest.NewRequest(http.MethodGet, "/products", nil)
	r.Header.Set("Origin", "http://evil.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Wildcard(t *testing.T) {
	h := Wrap(okHandler(), CORS(CORSConfig{}))

	r := httptest.NewRequest(http.MethodGet, "/products", nil)
	r.Header.Set("Origin", "http://anywhere.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecovery(t *testing.T) {
	h := Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), Recovery())

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
