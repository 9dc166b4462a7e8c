package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jlow/kalshipulse/internal/config"
	"github.com/jlow/kalshipulse/internal/dashboard"
	"github.com/jlow/kalshipulse/internal/kalshi"
	"github.com/jlow/kalshipulse/internal/logger"
	"github.com/jlow/kalshipulse/internal/markets"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	client := kalshi.NewClient(cfg.Kalshi.BaseURL, cfg.Kalshi.Timeout,
		kalshi.WithRetries(cfg.Kalshi.MaxRetries, cfg.Kalshi.RetryDelayBase))
	service := markets.NewService(client, client, markets.DefaultClassifierConfig())

	server := dashboard.New(service, dashboard.Options{
		ListenAddr: cfg.Dashboard.ListenAddr,
		CacheTTL:   cfg.Dashboard.CacheTTL,
		Categories: cfg.Markets.Categories,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if err := server.Run(ctx); err != nil {
		logger.Fatal("Dashboard stopped with error: %v", err)
	}
	logger.Info("Service stopped")
}
