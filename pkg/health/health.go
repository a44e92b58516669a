// Package health implements liveness and readiness probes for the mock
// backend. Probes run on a shared ticker and use consecutive-failure
// thresholds so a single slow storage ping does not flip readiness.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
)

// Kind distinguishes liveness probes from readiness probes.
type Kind int

const (
	// Liveness probes report whether the process itself is functional.
	Liveness Kind = iota
	// Readiness probes report whether the service can serve traffic.
	Readiness
)

// CheckFunc reports the health of one component. Nil means healthy.
type CheckFunc func(ctx context.Context) error

// failAfter is how many consecutive failures flip a probe to unhealthy.
const failAfter = 3

type probe struct {
	name    string
	kind    Kind
	timeout time.Duration
	check   CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	// fails is only touched by the single runner goroutine.
	fails int
}

func (p *probe) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(ctx)
	p.lastErr.Store(&err)

	if err != nil {
		p.fails++
		if p.fails >= failAfter {
			p.healthy.Store(false)
		}
		return
	}
	p.fails = 0
	p.healthy.Store(true)
}

func (p *probe) failure() string {
	if p.healthy.Load() {
		return ""
	}
	if e := p.lastErr.Load(); e != nil && *e != nil {
		return (*e).Error()
	}
	return "unhealthy"
}

// Service runs registered probes and serves /livez and /readyz.
type Service struct {
	ready atomic.Bool

	mu     sync.Mutex
	probes []*probe
	cancel context.CancelFunc
}

// NewService creates a Service. It starts not ready; call SetReady(true)
// once startup completes and SetReady(false) when draining.
func NewService() *Service {
	return &Service{}
}

// Register adds a probe. Probes start healthy and must fail several times
// in a row before they report unhealthy. Register before Start.
func (s *Service) Register(name string, kind Kind, timeout time.Duration, check CheckFunc) {
	p := &probe{name: name, kind: kind, timeout: timeout, check: check}
	p.healthy.Store(true)

	s.mu.Lock()
	s.probes = append(s.probes, p)
	s.mu.Unlock()
}

// Start launches the probe runner. It runs every probe once immediately,
// then on each tick, until ctx is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	probes := make([]*probe, len(s.probes))
	copy(probes, s.probes)
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for _, p := range probes {
			p.run(ctx)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, p := range probes {
					p.run(ctx)
				}
			}
		}
	}()
}

// Stop cancels the probe runner. Safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// SetReady flips the manual readiness gate.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Ready reports whether the service should receive traffic.
func (s *Service) Ready() bool {
	if !s.ready.Load() {
		return false
	}
	for _, p := range s.snapshot(Readiness) {
		if !p.healthy.Load() {
			return false
		}
	}
	return true
}

func (s *Service) snapshot(kind Kind) []*probe {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*probe, 0, len(s.probes))
	for _, p := range s.probes {
		if p.kind == kind {
			out = append(out, p)
		}
	}
	return out
}

type probeStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Livez serves the liveness endpoint.
func (s *Service) Livez(w http.ResponseWriter, _ *http.Request) {
	writeProbe(w, s.failures(Liveness))
}

// Readyz serves the readiness endpoint. It fails while the manual gate is
// down, which is how graceful shutdown drains load balancer traffic.
func (s *Service) Readyz(w http.ResponseWriter, _ *http.Request) {
	failures := s.failures(Readiness)
	if !s.ready.Load() {
		failures["service"] = "not ready"
	}
	writeProbe(w, failures)
}

func (s *Service) failures(kind Kind) map[string]string {
	failures := make(map[string]string)
	for _, p := range s.snapshot(kind) {
		if msg := p.failure(); msg != "" {
			failures[p.name] = msg
		}
	}
	return failures
}

func writeProbe(w http.ResponseWriter, failures map[string]string) {
	resp := probeStatus{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failures
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// GoroutineCount returns a liveness check that fails when the process has
// more than max goroutines, a cheap leak detector.
func GoroutineCount(max int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > max {
			return errors.Errorf("%d goroutines exceeds threshold %d", n, max)
		}
		return nil
	}
}
