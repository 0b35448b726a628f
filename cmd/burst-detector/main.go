package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/miradorstack/burst-detector/internal/api"
	"github.com/miradorstack/burst-detector/internal/cache"
	"github.com/miradorstack/burst-detector/internal/config"
	"github.com/miradorstack/burst-detector/internal/engine"
	"github.com/miradorstack/burst-detector/internal/httpapi"
	"github.com/miradorstack/burst-detector/internal/isi"
	"github.com/miradorstack/burst-detector/internal/metrics"
	"github.com/miradorstack/burst-detector/internal/render"
	"github.com/miradorstack/burst-detector/internal/services"
	"github.com/miradorstack/burst-detector/internal/smooth"
	"github.com/miradorstack/burst-detector/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting burst-detector", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	edges, err := isi.LogEdges(cfg.Histogram.MinExponent, cfg.Histogram.MaxExponent, cfg.Histogram.Edges)
	if err != nil {
		logger.Error("invalid histogram bins", slog.Any("error", err))
		os.Exit(1)
	}
	var smoother smooth.Smoother = smooth.Lowess{
		Frac:       cfg.Histogram.Smoothing.Frac,
		Iterations: cfg.Histogram.Smoothing.Iterations,
	}

	analyzer := engine.NewAnalyzer(logger, smoother, edges, cfg.Detection.MaxEvents)
	defaults := api.Defaults{
		Unit:        cfg.Detection.DefaultUnit,
		Order:       cfg.Detection.DefaultOrder,
		ThresholdMs: cfg.Detection.DefaultThresholdMs,
		Smooth:      cfg.Histogram.Smoothing.Enabled,
	}
	burstService := services.NewBurstService(logger, analyzer, defaults)

	server, err := api.NewServer(cfg.Server, burstService)
	if err != nil {
		logger.Error("failed to create gRPC server", slog.Any("error", err))
		os.Exit(1)
	}

	renderer, err := render.NewPlot(cfg.Render.Format, cfg.Render.WidthInches, cfg.Render.HeightInches)
	if err != nil {
		logger.Error("invalid render settings", slog.Any("error", err))
		os.Exit(1)
	}
	axes := render.Axes{
		XMinExp: cfg.Histogram.MinExponent,
		XMaxExp: cfg.Histogram.MaxExponent,
		YMinExp: cfg.Render.YMinExponent,
		YMaxExp: cfg.Render.YMaxExponent,
	}

	var plotCache cache.Provider = cache.NoopProvider{}
	if cfg.Render.CacheEntries > 0 {
		plotCache = cache.NewMemoryProvider(cfg.Render.CacheEntries)
	}
	defer plotCache.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var httpServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		router := httpapi.NewRouter(burstService, httpapi.Options{
			Logger:       logger,
			Defaults:     defaults,
			Renderer:     renderer,
			Axes:         axes,
			Gatherer:     prometheus.DefaultGatherer,
			PlotCache:    plotCache,
			PlotCacheTTL: cfg.Render.CacheTTL,
		})
		httpServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		}
		go func() {
			logger.Info("http server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server exited", slog.Any("error", err))
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("http server shutdown", slog.Any("error", err))
		}
	}

	logger.Info("burst-detector stopped", slog.Duration("p95", burstService.LatencyP95()))
}
