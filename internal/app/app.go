// Package app opens everything a command needs: configuration, logging,
// the record store and the wired services
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/bravo68web/repolens/internal/config"
	"github.com/bravo68web/repolens/internal/infrastructure/database"
	"github.com/bravo68web/repolens/internal/infrastructure/otel"
	"github.com/bravo68web/repolens/internal/injectable"
	"github.com/bravo68web/repolens/pkg/logger"
)

type App struct {
	Config    *config.Config
	DB        *database.Database
	Deps      injectable.Dependencies
	Telemetry *otel.Provider // nil unless otel.enabled
}

// New loads configuration from configPath (or REPOLENS_CONFIG, or the usual
// locations), initializes the global logger and opens the record store
func New(configPath string) (*App, error) {
	if configPath == "" {
		configPath = os.Getenv("REPOLENS_CONFIG")
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	base, err := logger.New(loggerConfig(&cfg.Logging))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	telemetry, err := startTelemetry(context.Background(), &cfg.OTel)
	if err != nil {
		_ = base.Close()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	if telemetry != nil {
		base = base.WithCore(func(core zapcore.Core) zapcore.Core {
			return otel.NewCombinedCore(core, telemetry)
		})
	}
	logger.SetGlobal(base)

	a := &App{Config: cfg, Telemetry: telemetry}

	// Initialize database connection
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		a.closeLogging()
		return nil, err
	}
	a.DB = db
	if err := db.Migrate(); err != nil {
		_ = a.Close()
		return nil, err
	}

	deps, err := injectable.LoadDependencies(cfg, db)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Deps = deps

	return a, nil
}

// Close releases the store, flushes the logger and shuts telemetry down
func (a *App) Close() error {
	var err error
	if a.DB != nil {
		err = a.DB.Close()
	}
	a.closeLogging()
	return err
}

func (a *App) closeLogging() {
	_ = logger.Close()
	if a.Telemetry == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Telemetry.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", err)
	}
}

// startTelemetry installs the OTLP span and log exporters when enabled
func startTelemetry(ctx context.Context, cfg *config.OTelConfig) (*otel.Provider, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	p, err := otel.NewProvider(ctx, otelConfig(cfg))
	if err != nil {
		return nil, err
	}
	p.Install()
	return p, nil
}

func otelConfig(cfg *config.OTelConfig) *otel.Config {
	oc := otel.DefaultConfig()
	oc.Enabled = cfg.Enabled
	oc.Endpoint = cfg.Endpoint
	oc.Insecure = cfg.Insecure
	oc.UseHTTP = cfg.UseHTTP
	if cfg.ServiceName != "" {
		oc.ServiceName = cfg.ServiceName
	}
	if cfg.Environment != "" {
		oc.Environment = cfg.Environment
	}
	if len(cfg.Headers) > 0 {
		oc.Headers = cfg.Headers
	}
	if cfg.BatchTimeout > 0 {
		oc.BatchTimeout = time.Duration(cfg.BatchTimeout) * time.Second
	}
	return oc
}

func loggerConfig(cfg *config.LoggingConfig) *logger.Config {
	lc := logger.DefaultConfig()
	if cfg.Level != "" {
		lc.Level = cfg.Level
	}
	if cfg.Format != "" {
		lc.Format = cfg.Format
	}
	if cfg.LoggerOutputIsFile() {
		lc.Output = logger.OutputFile
		lc.FilePath = cfg.OutputPath
	}
	return lc
}
