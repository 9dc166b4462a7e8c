package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jlow/kalshipulse/internal/config"
	"github.com/jlow/kalshipulse/internal/kalshi"
	"github.com/jlow/kalshipulse/internal/logger"
	"github.com/jlow/kalshipulse/internal/markets"
	"github.com/jlow/kalshipulse/internal/store"
	"github.com/jlow/kalshipulse/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// Secrets like the bot token may come from a local .env file.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	if !cfg.Telegram.Enabled {
		logger.Fatal("Telegram is disabled in configuration, nothing to run")
	}

	loc, err := time.LoadLocation(cfg.Telegram.Timezone)
	if err != nil {
		logger.Fatal("Invalid timezone %q: %v", cfg.Telegram.Timezone, err)
	}

	client := kalshi.NewClient(cfg.Kalshi.BaseURL, cfg.Kalshi.Timeout,
		kalshi.WithRetries(cfg.Kalshi.MaxRetries, cfg.Kalshi.RetryDelayBase))
	service := markets.NewService(client, client, markets.DefaultClassifierConfig())

	subs := store.New(cfg.Store.FilePath).WithDefaultHour(cfg.Telegram.DefaultHour)
	if err := subs.Load(); err != nil {
		logger.Warn("Failed to load subscriptions, starting empty: %v", err)
	}

	bot, err := telegram.New(cfg.Telegram.BotToken, service, subs, telegram.Options{
		TopN:               cfg.Markets.TopN,
		MaxOptionsPerEvent: cfg.Markets.MaxOptionsPerEvent,
		Categories:         cfg.Markets.Categories,
		Timezone:           loc,
		MaxRetries:         cfg.Kalshi.MaxRetries,
		RetryDelayBase:     cfg.Kalshi.RetryDelayBase,
	})
	if err != nil {
		logger.Fatal("Failed to initialize Telegram bot: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	logger.Info("Starting market bot (top_n: %d, categories: %v, timezone: %s)",
		cfg.Markets.TopN, cfg.Markets.Categories, loc)

	if err := bot.Run(ctx); err != nil {
		logger.Fatal("Bot stopped with error: %v", err)
	}

	if err := subs.Save(); err != nil {
		logger.Error("Failed to save subscriptions: %v", err)
	}
	logger.Info("Service stopped")
}
