// Package app wires configuration, storage, health probes and the HTTP
// server into a runnable backend.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/storekeep/storekeep/internal/server"
	"github.com/storekeep/storekeep/internal/storage"
	"github.com/storekeep/storekeep/internal/storage/jsonfile"
	"github.com/storekeep/storekeep/internal/storage/postgres"
	"github.com/storekeep/storekeep/pkg/health"
	"github.com/storekeep/storekeep/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the backend.
func Run(ctx context.Context, lg *zap.Logger, _ *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store.Kind),
	)

	store, ping, err := openStore(ctx, cfg.Store)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			lg.Error("Close store", zap.Error(err))
		}
	}()

	healthSvc := health.NewService()
	healthSvc.Register("goroutines", health.Liveness, time.Second, health.GoroutineCount(10000))
	if ping != nil {
		healthSvc.Register("storage", health.Readiness, 5*time.Second, ping)
	}
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	srv := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(server.New(store).Router(healthSvc),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins: cfg.CORS.Origins,
				AllowHeaders: []string{"Content-Type", "Authorization"},
				MaxAge:       86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: fail readiness first so load balancers drain traffic,
	// then stop the server.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// openStore opens the configured storage backend. The second return value is
// a readiness check, nil when the backend has nothing to probe.
func openStore(ctx context.Context, cfg StoreConfig) (storage.Store, health.CheckFunc, error) {
	switch cfg.Kind {
	case "postgres":
		store, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Ping, nil
	default:
		store, err := jsonfile.Open(cfg.DataFile)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
}
