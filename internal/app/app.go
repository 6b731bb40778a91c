// Package app assembles the plant-care components from process config.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/agenthands/plantcare/internal/config"
	"github.com/agenthands/plantcare/internal/core"
	"github.com/agenthands/plantcare/internal/core/advice"
	"github.com/agenthands/plantcare/internal/core/health"
	"github.com/agenthands/plantcare/internal/core/identification"
	"github.com/agenthands/plantcare/internal/driver"
	"github.com/agenthands/plantcare/internal/llm"
	"github.com/agenthands/plantcare/internal/metrics"
	"github.com/agenthands/plantcare/internal/server"
	"github.com/agenthands/plantcare/internal/storage"
)

const (
	SettingsFile = "settings.toml"
	PlantsFile   = "plants.json"
	ImagesDir    = "images"
)

type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Settings *config.FileSettings
	Pipeline *core.Pipeline
	Registry *prometheus.Registry

	closers []func(context.Context) error
}

// Build wires settings, stores, clients and the pipeline under cfg.Storage.DataDir.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dataDir, err := filepath.Abs(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Settings: config.NewFileSettings(filepath.Join(dataDir, SettingsFile)),
		Registry: prometheus.NewRegistry(),
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	images, err := storage.NewFileImageStore(filepath.Join(dataDir, ImagesDir))
	if err != nil {
		return nil, err
	}

	plants, err := a.plantStore(ctx, dataDir)
	if err != nil {
		return nil, err
	}

	timeout := cfg.HTTP.Timeout.Duration
	a.Pipeline = core.NewPipeline(
		images,
		identification.NewClient(a.Settings, &http.Client{}, logger.Named("identification"), timeout),
		health.NewAnalyzer(a.Settings, llm.NewClient, logger.Named("health"), timeout),
		advice.NewAdvisor(a.Settings, llm.NewClient, logger.Named("advice"), timeout),
		plants,
		logger.Named("pipeline"),
		metrics.NewPipeline(a.Registry),
	)

	logger.Info("Application ready",
		zap.String("data_dir", dataDir),
		zap.String("plant_backend", cfg.Storage.PlantBackend))
	return a, nil
}

func (a *App) plantStore(ctx context.Context, dataDir string) (storage.PlantStore, error) {
	if a.Config.Storage.PlantBackend != config.BackendMemgraph {
		return storage.NewJSONPlantStore(filepath.Join(dataDir, PlantsFile)), nil
	}

	m := a.Config.Memgraph
	d, err := driver.NewMemgraphDriver(ctx, m.URI, m.User, m.Password, a.Logger.Named("memgraph"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to memgraph: %w", err)
	}
	if err := d.BuildIndices(ctx); err != nil {
		_ = d.Close(ctx)
		return nil, fmt.Errorf("failed to build plant indices: %w", err)
	}
	a.closers = append(a.closers, d.Close)
	return storage.NewGraphPlantStore(d), nil
}

// Server returns the HTTP surface over the app's pipeline and settings.
func (a *App) Server() *server.Server {
	return server.NewServer(a.Pipeline, a.Settings, a.Logger.Named("http"), a.Registry)
}

// WatchSettings logs every settings snapshot until ctx is done. Steps read
// settings afresh on each call, so the log is the only consumer.
func (a *App) WatchSettings(ctx context.Context) error {
	updates, err := a.Settings.Watch(ctx, a.Logger.Named("settings"))
	if err != nil {
		return err
	}
	go func() {
		msg := "Settings loaded"
		for s := range updates {
			a.Logger.Info(msg,
				zap.String("locale", s.Locale),
				zap.String("provider", s.Generative.Provider),
				zap.Bool("identification_configured", s.Identification.Token != ""),
				zap.Bool("generative_configured", s.Generative.Token != ""))
			msg = "Settings changed"
		}
	}()
	return nil
}

// Serve starts the settings watcher and blocks serving HTTP on port.
func (a *App) Serve(ctx context.Context, port string) error {
	if err := a.WatchSettings(ctx); err != nil {
		a.Logger.Warn("Settings watcher unavailable", zap.Error(err))
	}

	a.Logger.Info("Starting server", zap.String("port", port))
	return a.Server().SetupRouter().Run(":" + port)
}

func (a *App) Close(ctx context.Context) error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	_ = a.Logger.Sync()
	return firstErr
}
