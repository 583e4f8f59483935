package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pharos-hq/pharosbot/pkg/config"
	"github.com/pharos-hq/pharosbot/pkg/logger"
	"github.com/pharos-hq/pharosbot/pkg/service"
)

func main() {
	// Load configuration from environment variables
	bootLog := logger.NewStdLogger(true, logger.NoticeLevel)
	cfg, err := config.LoadConfig(bootLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStdLogger(cfg.LoggerConfig.Coloring, cfg.LoggerConfig.Level)

	// Set up context with cancellation on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create the farming service
	svc, err := service.NewService(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create service: %v\n", err)
		os.Exit(1)
	}

	// Set up signal handling for graceful shutdown
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		log.Notice("Received termination signal, shutting down gracefully...")
		cancel()
	}()

	// Start the service
	log.Info("Starting the farming service...")
	if err := svc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Service stopped: %v\n", err)
		os.Exit(1)
	}
}
