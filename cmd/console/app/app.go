package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"user-order-console/cmd/console/di"
	"user-order-console/internal/config"
	"user-order-console/pkg/logger"
)

// Options are the command-line overrides applied on top of the configuration.
type Options struct {
	ConfigPath string // directory holding app.env; falls back to CONFIG_PATH, then "."
	APIURL     string // overrides API_BASE_URL when set
	Out        io.Writer
}

// App represents the application
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Container *di.Container
}

// New creates a new application instance
func New(ctx context.Context, opts Options) (*App, error) {
	// Load configuration
	cfg, err := config.LoadConfig(getConfigPath(opts.ConfigPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.APIURL != "" {
		cfg.API.BaseURL = strings.TrimRight(opts.APIURL, "/")
	}

	// Initialize logger
	l, err := initLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	// Create DI container
	container, err := di.NewContainer(ctx, cfg, l, out)
	if err != nil {
		_ = l.Sync()
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	l.Debug("console ready",
		zap.String("service", cfg.Logger.ServiceName),
		zap.String("version", cfg.Logger.ServiceVersion),
		zap.String("environment", cfg.Logger.Environment),
		zap.String("api", cfg.API.BaseURL),
		zap.Bool("user_options_cache", container.RedisClient != nil),
	)

	return &App{
		Config:    cfg,
		Logger:    l,
		Container: container,
	}, nil
}

// Close releases resources and flushes the logger.
func (a *App) Close() error {
	var errs []error

	if a.Container != nil {
		if err := a.Container.Close(); err != nil {
			a.Logger.Error("failed to close container", zap.Error(err))
			errs = append(errs, fmt.Errorf("container close: %w", err))
		}
	}

	if err := a.Logger.Sync(); err != nil {
		// Ignore sync errors for stdout/stderr
		if err.Error() != "sync /dev/stdout: invalid argument" &&
			err.Error() != "sync /dev/stderr: invalid argument" {
			errs = append(errs, fmt.Errorf("logger sync: %w", err))
		}
	}

	return errors.Join(errs...)
}

// initLogger initializes the application logger
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.NewWithConfig(logger.Config{
		Level:          cfg.Logger.Level,
		Format:         cfg.Logger.Format,
		OutputPath:     cfg.Logger.OutputPath,
		EnableSampling: cfg.Logger.EnableSampling,
		ServiceName:    cfg.Logger.ServiceName,
		ServiceVersion: cfg.Logger.ServiceVersion,
		Environment:    cfg.Logger.Environment,
	})
}

// getConfigPath returns the configuration path
func getConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "."
}
