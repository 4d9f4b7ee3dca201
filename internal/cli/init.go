// Package cli provides common initialization for cmd/ledger and
// cmd/ledger-worker.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"groupledger/internal/backend"
	"groupledger/internal/config"
	"groupledger/internal/ledger"
	applog "groupledger/internal/log"
)

// SetupLogger builds the component logger at the given level and installs
// it as the slog default.
func SetupLogger(level, component string, out io.Writer) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(level)
	cfg.Component = component
	if out != nil {
		cfg.Output = out
	}
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. A missing file is
// not an error.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenLedger opens the configured backend and builds a service on top of it.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *applog.Logger, opts ...ledger.Option) (*ledger.Service, *backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog()).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s backend: %w", bcfg.Type, err)
	}
	svc := ledger.NewService(res.Store, cfg.Ledger(), logger.WithComponent(applog.ComponentLedger).Slog(), opts...)
	return svc, res, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM and a
// stop function the caller defers. If the caller has not returned within
// timeout after a signal, the process exits.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration) (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-finished:
			return
		}

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
			os.Exit(1)
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			close(finished)
		})
	}
	return ctx, stop
}
