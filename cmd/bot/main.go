package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"multi-strategy-bot-go/internal/bot"
	"multi-strategy-bot-go/internal/config"
	"multi-strategy-bot-go/internal/database"
	"multi-strategy-bot-go/internal/exchange"
	"multi-strategy-bot-go/internal/logger"
	"multi-strategy-bot-go/internal/strategy"

	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format, cfg.Logger.File)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Initialize exchange REST client
	restClient := exchange.NewRestClient(&cfg.Exchange, log)
	if _, err := restClient.GetServerTime(); err != nil {
		log.Fatal("Failed to connect to exchange API", zap.Error(err))
	}
	log.Info("Successfully connected to exchange API.")

	// Build the configured strategies
	strategies, err := strategy.FromConfig(&cfg, log)
	if err != nil {
		log.Fatal("Failed to build strategies", zap.Error(err))
	}
	log.Info("Trading strategies initialized", zap.Int("count", len(strategies)))

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Initialize and run the bot engine
	engine := bot.NewEngine(log, &cfg, restClient, db, strategies)
	engine.Run(ctx)

	log.Info("Bot has been shut down.")
}
