package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fadedpez/egmcore/internal/config"
	"github.com/fadedpez/egmcore/internal/coordinator"
	"github.com/fadedpez/egmcore/internal/logging"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level := logging.ParseLevel(cfg.LogLevel)
	logger := logging.NewLogger(level)
	if !cfg.IsDevelopment() {
		logger = logging.NewProductionLogger(level)
	}
	defer logger.Sync()

	// Runtime events and deposits arrive on stdin; events and signals leave on stdout
	c, err := coordinator.New(cfg, os.Stdout, logger)
	if err != nil {
		log.Fatalf("Failed to create coordinator: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := c.Start(ctx); err != nil {
		log.Fatalf("Failed to start coordinator: %v", err)
	}
	logger.Info("Coordinator is now running. Press CTRL-C to exit.")

	if err := c.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		logger.Error("Runtime feed stopped: %v", err)
	}

	logger.Info("Shutting down...")
	c.Shutdown()
}
