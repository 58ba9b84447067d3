package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Black-And-White-Club/comp-rounds/app"
	"github.com/Black-And-White-Club/comp-rounds/config"
	"github.com/Black-And-White-Club/frolf-bot-shared/observability"
	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	obs, err := observability.Init(ctx, config.ToObsConfig(cfg))
	if err != nil {
		log.Fatalf("Failed to initialize observability: %v", err)
	}

	logger := obs.Provider.Logger
	tracer := obs.Provider.TracerProvider.Tracer("competition")
	logger.Info("Starting competition service")

	application, err := app.NewApp(ctx, cfg, logger, tracer)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("Competition service stopped with error", attr.Error(err))
	}

	logger.Info("Shutting down competition service")
	if err := application.Close(); err != nil {
		logger.Error("Error during shutdown", attr.Error(err))
	}
	logger.Info("Competition service stopped")
}
