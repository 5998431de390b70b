package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lumichat/lumichat/internal/cache"
	"github.com/lumichat/lumichat/internal/config"
	"github.com/lumichat/lumichat/internal/handler"
	"github.com/lumichat/lumichat/internal/history"
	"github.com/lumichat/lumichat/internal/model/persona"
	"github.com/lumichat/lumichat/internal/observe"
	"github.com/lumichat/lumichat/internal/service/ai"
	chatservice "github.com/lumichat/lumichat/internal/service/chat"
	"github.com/lumichat/lumichat/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, continuing with system environment", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	metrics, metricsHandler, err := observe.Init("lumichat")
	if err != nil {
		slog.Warn("failed to initialize metrics, continuing without", "error", err)
	}

	// Durable exchange store
	var exchanges store.ExchangeStore
	var pgStore *store.PostgresStore
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		pgStore, err = store.NewPostgresStore(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect durable store", "error", err)
			os.Exit(1)
		}
		exchanges = pgStore
		slog.Info("durable store ready", "backend", "postgres")
	default:
		exchanges = store.NewMemoryStore()
		slog.Info("durable store ready", "backend", "memory")
	}

	// Ephemeral session cache + background reclamation
	fileCache, err := cache.NewFileCache(cfg.Cache.Dir, cfg.Cache.MaxAge)
	if err != nil {
		slog.Error("failed to initialize session cache", "error", err)
		os.Exit(1)
	}
	reclaimer := cache.NewReclaimer(fileCache, cfg.Cache.SweepInterval, metrics.RecordReclaim)
	go reclaimer.Run(ctx)

	personaStore, err := persona.NewMemoryStore(persona.Seed())
	if err != nil {
		slog.Error("failed to load persona catalog", "error", err)
		os.Exit(1)
	}

	reconciler := history.NewReconciler(fileCache, exchanges)

	// Inference backend, resolved once at startup
	var aiSvc *ai.Service
	if cfg.Provider.Enabled() {
		chatModel, err := cfg.Provider.NewChatModel()
		if err != nil {
			slog.Error("failed to initialize inference backend", "kind", cfg.Provider.Kind, "error", err)
		} else if aiSvc, err = ai.NewService(ctx, chatModel); err != nil {
			slog.Error("failed to compile chat chain", "error", err)
			aiSvc = nil
		} else {
			slog.Info("inference backend ready", "kind", cfg.Provider.Kind, "model", cfg.Provider.Model)
		}
	}
	if aiSvc == nil {
		slog.Error("no inference backend available; every chat request will fail until PROVIDER_KIND and PROVIDER_MODEL are configured")
	}

	orchestrator := chatservice.NewOrchestrator(personaStore, aiSvc, reconciler, metrics)

	router := handler.NewRouter(orchestrator, personaStore, metrics, metricsHandler)

	startServer(ctx, cfg.Server, router)

	// Let detached write-backs land before releasing the stores.
	orchestrator.WaitForPersistence()
	if pgStore != nil {
		pgStore.Close()
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("lumichat backend listening", "addr", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
