package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"

	"github.com/miradorstack/failure-insights/internal/api"
	"github.com/miradorstack/failure-insights/internal/cache"
	"github.com/miradorstack/failure-insights/internal/engine"
	"github.com/miradorstack/failure-insights/internal/metrics"
	"github.com/miradorstack/failure-insights/internal/patterns"
	"github.com/miradorstack/failure-insights/internal/presentation"
	"github.com/miradorstack/failure-insights/internal/repo"
	"github.com/miradorstack/failure-insights/internal/services"
)

func cmdServe(a *app) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the gRPC API and the metrics listener",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger
	logger.Info("starting failure-insights", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	cacheProvider := a.cacheProvider(ctx)
	defer cacheProvider.Close()

	pipeline, err := a.pipeline(cacheProvider)
	if err != nil {
		return err
	}

	server, err := api.NewServer(cfg.Server, services.NewBugDetailsService(logger, pipeline))
	if err != nil {
		return fmt.Errorf("create gRPC server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("gRPC server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.GracefulTimeout())
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	logger.Info("failure-insights stopped")
	return nil
}

// cacheProvider connects to redis when enabled and falls back to process memory otherwise.
func (a *app) cacheProvider(ctx context.Context) cache.Provider {
	c := a.cfg.Cache
	if !c.Enabled {
		return cache.NewMemoryProvider()
	}
	provider, err := cache.NewRedisProvider(ctx, cache.RedisConfig{
		Addr:         c.Addr,
		Username:     c.Username,
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
		MaxRetries:   c.MaxRetries,
		TLS:          c.TLS,
		KeyPrefix:    c.KeyPrefix,
	})
	if err != nil {
		a.logger.Warn("redis cache unavailable, using in-process cache", slog.Any("error", err))
		return cache.NewMemoryProvider()
	}
	return provider
}

func (a *app) pipeline(cacheProvider cache.Provider) (*engine.Pipeline, error) {
	cfg, logger := a.cfg, a.logger

	classifier, err := presentation.NewRuleClassifier(cfg.Presentation.RulesPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load presentation rules: %w", err)
	}

	var backend engine.Backend
	if cfg.Backend.BaseURL != "" {
		backend = repo.NewBackendClient(
			cfg.Backend.BaseURL,
			cfg.Backend.FailuresPath,
			cfg.Backend.CountsPath,
			cfg.Backend.Timeout,
			cacheProvider,
			cfg.Cache.BackendTTL,
			logger,
		)
	} else {
		logger.Warn("backend.baseURL not set, only inline analyses are available")
	}

	return engine.NewPipeline(
		logger,
		backend,
		repo.NewViewRepo(cacheProvider, cfg.Cache.ViewTTL),
		classifier,
		patterns.NewMiner(logger, 3),
		engine.Options{Window: cfg.Analysis.Window, SpikeThreshold: cfg.Analysis.SpikeThreshold},
	), nil
}
