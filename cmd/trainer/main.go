package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"FinTrain/internal/domain/models"
	"FinTrain/internal/di"
	"FinTrain/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	once := flag.Bool("once", false, "train every configured unit once and exit")
	symbol := flag.String("symbol", "", "train a single symbol and exit (requires -horizon)")
	horizon := flag.String("horizon", "", "horizon of the single unit: short, medium or long")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s symbols=%v horizons=%v", cfg.Environment, cfg.Training.Symbols, cfg.Training.Horizons)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if *once || *symbol != "" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := app.RunOnce(ctx, *symbol, *horizon)
		if err != nil {
			log.Printf("training error: %v", err)
			os.Exit(1)
		}
		log.Printf("run %s: trained=%d rejected=%d failed=%d outcomes=%d",
			report.RunID,
			report.Count(models.StatusTrained),
			report.Count(models.StatusRejectedOverfit),
			report.Count(models.StatusFailed),
			len(report.Outcomes))
		return
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
