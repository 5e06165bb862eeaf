// Package main provides the earnings command-line tool that fetches upcoming
// earnings dates and publishes the earnings ICS calendar.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"techcal/internal/config"
	"techcal/internal/earnings"
	"techcal/internal/logger"
	"techcal/internal/storage"
)

const defaultConfigPath = "configs/techcal.yaml"

func main() {
	configFile := flag.String("config", defaultConfigPath, "Path to YAML configuration file")
	showUsage := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *showUsage {
		printUsage()
		os.Exit(0)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg := logger.NewLogger(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path, err := runOnce(ctx, cfg, logg)
	if err != nil {
		log.Fatalf("Earnings pipeline failed: %v", err)
	}

	fmt.Printf("Earnings calendar written to %s\n", path)
}

func runOnce(ctx context.Context, cfg *config.Config, logg *logger.Logger) (string, error) {
	db, err := storage.Open(cfg.Storage.DBURL, &cfg.Retry, logg)
	if err != nil {
		return "", err
	}

	repo := storage.NewEarningsRepository(db)
	client := earnings.NewFinnhubClient(cfg.Earnings, &cfg.Retry, logg)
	runner := earnings.NewRunner(cfg.Earnings, repo, client, logg)

	path, runErr := runner.Run(ctx, time.Now().UTC())

	if err := db.Close(); err != nil {
		if runErr == nil {
			return "", err
		}

		logg.Error("failed to close database after pipeline error", "err", err)
	}

	if runErr != nil {
		return "", runErr
	}

	return path, nil
}

func printUsage() {
	fmt.Println("Usage: earnings [options]")
	fmt.Println()
	fmt.Println("Fetches upcoming earnings dates and writes the earnings ICS calendar.")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
}
