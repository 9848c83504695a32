package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sitepulse/sitepulse/internal/analytics"
	"github.com/sitepulse/sitepulse/internal/event"
	"github.com/sitepulse/sitepulse/internal/mockdata"
	"github.com/sitepulse/sitepulse/internal/platform/cache"
	"github.com/sitepulse/sitepulse/internal/platform/config"
	"github.com/sitepulse/sitepulse/internal/platform/observability"
	"github.com/sitepulse/sitepulse/internal/server"
	"github.com/sitepulse/sitepulse/internal/settings"
	"github.com/sitepulse/sitepulse/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to ./config/config.yaml)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Loading configuration...")
	cfg := config.MustLoad(*configPath)

	logger := observability.NewLogger(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	metrics, err := observability.NewMetrics("pulsed", cfg.Observability.Metrics.Enabled)
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	logger.Info("setting up storage", "dir", cfg.Data.Dir)

	fs, err := store.NewFileStore(cfg.Data.Dir)
	if err != nil {
		logger.LogError(ctx, "failed to create file store", err)
		log.Fatalf("Failed to create file store: %v", err)
	}

	history, err := store.NewHistory(fs, cfg.Data.HistorySize)
	if err != nil {
		logger.LogError(ctx, "failed to load visit history", err)
		log.Fatalf("Failed to load visit history: %v", err)
	}

	bus := event.NewBus()

	manager, err := settings.NewManager(fs, bus, settings.Settings{
		RefreshIntervalMs: cfg.Settings.RefreshIntervalMs,
		TrackedDomains:    cfg.Settings.TrackedDomains,
	})
	if err != nil {
		logger.LogError(ctx, "failed to load settings", err)
		log.Fatalf("Failed to load settings: %v", err)
	}

	dataCache := cache.New(manager.RefreshInterval(), cache.WithClearHook(func() {
		bus.Emit(event.CacheCleared, nil)
	}))

	coord, err := analytics.NewCoordinator(analytics.CoordinatorConfig{
		Cache:     dataCache,
		Transport: analytics.NewLocalTransport(mockdata.NewGenerator()),
		Settings:  manager,
		Bus:       bus,
		Logger:    logger,
		Metrics:   metrics,
	})
	if err != nil {
		logger.LogError(ctx, "failed to create coordinator", err)
		log.Fatalf("Failed to create coordinator: %v", err)
	}

	svc, err := server.NewService(ctx, server.ServiceConfig{
		Logger:         logger,
		Metrics:        metrics,
		Bus:            bus,
		Coordinator:    coord,
		Settings:       manager,
		History:        history,
		RefreshWorkers: cfg.Refresh.Workers,
	})
	if err != nil {
		logger.LogError(ctx, "failed to create service", err)
		log.Fatalf("Failed to create service: %v", err)
	}
	defer svc.Close()

	mux := http.NewServeMux()
	mux.Handle("/ws", svc.Hub())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	srv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: mux,
	}

	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Observability.Metrics.Port),
		Handler: metricsMux(metrics),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("daemon listening", "address", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	if cfg.Observability.Metrics.Enabled {
		g.Go(func() error {
			logger.Info("metrics listening", "address", metricsSrv.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		return svc.Refresher().Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received, gracefully stopping...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		svc.Hub().CloseAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.LogWarn(shutdownCtx, "server shutdown", "error", err)
		}
		if cfg.Observability.Metrics.Enabled {
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				logger.LogWarn(shutdownCtx, "metrics server shutdown", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.LogError(context.Background(), "daemon exited with error", err)
		log.Fatalf("Daemon error: %v", err)
	}
	logger.Info("daemon stopped")
}

func metricsMux(metrics *observability.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return mux
}
