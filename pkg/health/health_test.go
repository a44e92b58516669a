package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysOK(context.Context) error { return nil }

func alwaysFail(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func decodeProbe(t *testing.T, w *httptest.ResponseRecorder) probeStatus {
	t.Helper()
	var body probeStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestLivezAllHealthy(t *testing.T) {
	s := NewService()
	s.Register("self", Liveness, time.Second, alwaysOK)

	w := httptest.NewRecorder()
	s.Livez(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeProbe(t, w).Status)
}

func TestLivezFailsAfterThreshold(t *testing.T) {
	s := NewService()
	s.Register("storage", Liveness, time.Second, alwaysFail("connection refused"))
	p := s.probes[0]

	ctx := context.Background()
	p.run(ctx)
	p.run(ctx)

	w := httptest.NewRecorder()
	s.Livez(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, w.Code, "below threshold stays healthy")

	p.run(ctx)

	w = httptest.NewRecorder()
	s.Livez(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeProbe(t, w)
	assert.Equal(t, "connection refused", body.Checks["storage"])
}

func TestReadyzGate(t *testing.T) {
	s := NewService()
	s.Register("storage", Readiness, time.Second, alwaysOK)

	w := httptest.NewRecorder()
	s.Readyz(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "not ready before SetReady")

	s.SetReady(true)
	w = httptest.NewRecorder()
	s.Readyz(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	s.SetReady(false)
	w = httptest.NewRecorder()
	s.Readyz(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "drained during shutdown")
}

func TestReadyConsidersProbes(t *testing.T) {
	s := NewService()
	s.Register("storage", Readiness, time.Second, alwaysFail("down"))
	s.SetReady(true)

	require.True(t, s.Ready(), "probes start healthy")

	ctx := context.Background()
	for range failAfter {
		s.probes[0].run(ctx)
	}
	assert.False(t, s.Ready())
}

func TestProbeRecovers(t *testing.T) {
	failing := true
	s := NewService()
	s.Register("flaky", Liveness, time.Second, func(context.Context) error {
		if failing {
			return errors.New("down")
		}
		return nil
	})
	p := s.probes[0]

	ctx := context.Background()
	for range failAfter {
		p.run(ctx)
	}
	require.False(t, p.healthy.Load())

	failing = false
	p.run(ctx)
	assert.True(t, p.healthy.Load(), "one success restores health")
}

func TestStartStop(t *testing.T) {
	s := NewService()
	s.Register("self", Liveness, time.Second, alwaysOK)

	s.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	s.Stop()
	s.Stop()
}

func TestGoroutineCount(t *testing.T) {
	assert.NoError(t, GoroutineCount(100000)(context.Background()))

	err := GoroutineCount(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds threshold")
}
