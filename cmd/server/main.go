package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/agenthands/plantcare/internal/app"
	"github.com/agenthands/plantcare/internal/config"
	"github.com/agenthands/plantcare/internal/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer a.Close(ctx)

	if err := a.Serve(ctx, cfg.Server.Port); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
