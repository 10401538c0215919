package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ortofresco/gestionale/internal/client/cli"
	"github.com/ortofresco/gestionale/internal/client/config"
	"github.com/ortofresco/gestionale/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load()
	if err != nil {
		logger.Error(ctx, "configuration error", "error", err)
		os.Exit(1)
	}

	app, err := cli.New(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "exited with error", "error", err)
		os.Exit(1)
	}
}
