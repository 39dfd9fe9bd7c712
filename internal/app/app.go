package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chrissnell/shiftline/internal/ingest"
	"github.com/chrissnell/shiftline/internal/log"
	"github.com/chrissnell/shiftline/internal/restserver"
	"github.com/chrissnell/shiftline/internal/timeline"
	"github.com/chrissnell/shiftline/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	if logger == nil {
		logger = log.GetSugaredLogger()
	}
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// components are the pieces Run wires together.
type components struct {
	pipeline    *timeline.Pipeline
	source      ingest.Source
	closeSource func() error
	server      config.ServerData
}

func (a *App) setup() (*components, error) {
	cfgData, err := a.configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	tcfg, err := cfgData.Timeline.ToTimelineConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid timeline settings: %w", err)
	}
	pipeline, err := timeline.NewPipeline(tcfg)
	if err != nil {
		return nil, err
	}

	source, closeSource, err := OpenSource(cfgData.Source, tcfg.Location, a.logger)
	if err != nil {
		return nil, fmt.Errorf("error opening activity source: %w", err)
	}

	return &components{
		pipeline:    pipeline,
		source:      source,
		closeSource: closeSource,
		server:      cfgData.Server,
	}, nil
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c, err := a.setup()
	if err != nil {
		return err
	}
	defer func() {
		if err := c.closeSource(); err != nil {
			a.logger.Warnf("error closing activity source: %v", err)
		}
	}()

	ctrl, err := restserver.NewController(ctx, &wg, c.source, c.pipeline, c.server, a.logger)
	if err != nil {
		return err
	}
	if err := ctrl.StartController(); err != nil {
		return err
	}

	a.logger.Info("application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	a.logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return nil
}
