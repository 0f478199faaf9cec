package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"coinbridge/btcmarkets"
	"coinbridge/config"
	"coinbridge/logger"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Coinbridge.Name,
		"version": cfg.Coinbridge.Version,
	}).Info("starting coinbridge")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}

	client := btcmarkets.New(cfg, nil)

	// Probe the venue so misconfiguration surfaces at startup rather than
	// on the first trading call.
	serverTime, err := client.FetchTime(ctx)
	if err != nil {
		log.WithError(err).Error("venue unreachable")
		os.Exit(1)
	}
	drift := time.Since(time.UnixMilli(serverTime))
	log.WithComponent("main").WithFields(logger.Fields{
		"server_time": serverTime,
		"drift_ms":    drift.Milliseconds(),
	}).Info("venue clock checked")

	markets, err := client.LoadMarkets(ctx)
	if err != nil {
		log.WithError(err).Error("failed to load markets")
		os.Exit(1)
	}
	active := 0
	for _, m := range markets {
		if m.Active {
			active++
		}
	}
	log.WithComponent("main").WithFields(logger.Fields{
		"markets": len(markets),
		"active":  active,
	}).Info("markets loaded")

	<-ctx.Done()
	log.Info("shutdown signal received")
	log.Info("coinbridge stopped")
}
