package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MikeSquared-Agency/Propgic/internal/acquisition"
	"github.com/MikeSquared-Agency/Propgic/internal/analysis"
	"github.com/MikeSquared-Agency/Propgic/internal/api"
	"github.com/MikeSquared-Agency/Propgic/internal/config"
	"github.com/MikeSquared-Agency/Propgic/internal/hermes"
	"github.com/MikeSquared-Agency/Propgic/internal/metrics"
	"github.com/MikeSquared-Agency/Propgic/internal/scoring"
	"github.com/MikeSquared-Agency/Propgic/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := openStore(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database", "driver", cfg.Database.Driver)

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	// Scoring
	registry, err := scoring.DefaultRegistry()
	if err != nil {
		logger.Error("failed to load built-in profiles", "error", err)
		os.Exit(1)
	}
	if cfg.Scoring.ProfilesDir != "" {
		if err := registry.LoadDir(cfg.Scoring.ProfilesDir); err != nil {
			logger.Error("failed to load profiles", "dir", cfg.Scoring.ProfilesDir, "error", err)
			os.Exit(1)
		}
	}
	mode, err := scoring.ParseMode(cfg.Scoring.DefaultMode)
	if err != nil {
		logger.Error("invalid scoring mode", "mode", cfg.Scoring.DefaultMode, "error", err)
		os.Exit(1)
	}
	if _, err := registry.Lookup(cfg.Scoring.DefaultProfile); err != nil {
		logger.Error("invalid default profile", "error", err)
		os.Exit(1)
	}
	engine := scoring.NewEngine(registry, scoring.Options{
		DefaultProfile: cfg.Scoring.DefaultProfile,
		DefaultMode:    mode,
		MaxStrengths:   cfg.Scoring.MaxStrengths,
		MaxRisks:       cfg.Scoring.MaxRisks,
	}, logger)

	// Acquisition
	var sources []acquisition.Source
	for _, sc := range cfg.Acquisition.Sources {
		sources = append(sources, acquisition.NewHTTPSource(sc.Name, sc.URL, sc.Token, sc.Priority, sc.Hosts))
	}
	if len(sources) == 0 {
		logger.Warn("no attribute sources configured, analyses will fail until one is added")
	}
	resolver := acquisition.NewResolver(sources, cfg.AcquisitionTimeout(), logger)

	// Runner
	runner := analysis.New(db, engine, resolver, hermesClient, cfg, logger)
	runner.Start(ctx)
	defer runner.Stop()
	logger.Info("analysis runner started", "tick_interval", cfg.TickInterval(), "auto_run", cfg.Analysis.AutoRun)

	runner.SetupSubscriptions()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	// API server
	router := api.NewRouter(db, runner, engine, cfg.Server.AdminToken, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: api.NewMetricsRouter(),
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (store.Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "postgres":
		pg, err := store.NewPostgresStore(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return pg, nil
	case "sqlite":
		path := cfg.URL
		if path == "" {
			path = "propgic.db"
		}
		return store.NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
