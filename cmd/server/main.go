package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/toastmixer/internal/cache"
	"github.com/mmynk/toastmixer/internal/config"
	"github.com/mmynk/toastmixer/internal/matching"
	"github.com/mmynk/toastmixer/internal/metrics"
	"github.com/mmynk/toastmixer/internal/middleware"
	"github.com/mmynk/toastmixer/internal/roster"
	"github.com/mmynk/toastmixer/internal/service"
	"github.com/mmynk/toastmixer/internal/storage/sqlite"
	"github.com/mmynk/toastmixer/pkg/logging"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Warn("Failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.Logging.Level))

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Database.Path)

	repo := roster.New(store)
	if version, err := repo.DataVersion(context.Background()); err == nil {
		metrics.RosterDataVersion.Set(float64(version))
	}
	engine := matching.NewEngine(repo)

	var results *cache.Cache
	if cfg.Cache.Enabled {
		results = cache.New(cfg.Cache.Size, cfg.Cache.TTL)
		slog.Info("Result cache enabled", "size", cfg.Cache.Size, "ttl", cfg.Cache.TTL)
	}

	mux := http.NewServeMux()

	// Register Connect services
	interceptors := connect.WithInterceptors(middleware.MetricsInterceptor(), middleware.LoggingInterceptor())

	rosterPath, rosterHandler := service.NewRosterServiceHandler(service.NewRosterService(repo, results), interceptors)
	mux.Handle(rosterPath, rosterHandler)

	matchPath, matchHandler := service.NewMatchServiceHandler(service.NewMatchService(repo, engine, results), interceptors)
	mux.Handle(matchPath, matchHandler)

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := repo.DataVersion(r.Context()); err != nil {
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	// Add logging and CORS middleware
	handler := middleware.HTTPLogging(middleware.CORS(cfg.Server.CORSOrigin)(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Connect server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}
