// Command c2g-server serves GIF renders over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chess-gif/internal/builder"
	"github.com/park285/chess-gif/internal/config"
	"github.com/park285/chess-gif/internal/httpapi"
	"github.com/park285/chess-gif/internal/obslog"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		logger.Error("server_exit", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	deps, err := builder.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		return fmt.Errorf("render init error: %w", err)
	}
	defer deps.Close()

	api := httpapi.New(deps.Service,
		httpapi.WithLogger(logger),
		httpapi.WithRegistry(deps.Registry),
		httpapi.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)
	srv := api.HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_listen", zap.String("addr", cfg.HTTPAddr))
		errCh <- srv.ListenAndServe(cfg.HTTPAddr)
	}()

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("server_shutdown", zap.String("signal", sig.String()))
	}

	sctx, scancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer scancel()
	return srv.ShutdownWithContext(sctx)
}
