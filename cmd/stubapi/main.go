package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sessionguard/sessionguard/internal/config"
	"github.com/sessionguard/sessionguard/internal/logger"
	"github.com/sessionguard/sessionguard/internal/stubapi"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Component("stubapi")

	srv, err := stubapi.New(cfg.StubAPI, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create stub API")
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", version).Msg("sessionguard stub API")

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Stub API stopped")
		os.Exit(1)
	}
}
