// Package main provides the events command-line tool that researches annual
// event dates and publishes the events ICS calendar.
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
	"techcal/internal/events"
	"techcal/internal/logger"
	"techcal/internal/research"
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

	// Secrets may live in a local .env; absence is fine.
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
		log.Fatalf("Events pipeline failed: %v", err)
	}

	fmt.Printf("Events calendar written to %s\n", path)
}

func runOnce(ctx context.Context, cfg *config.Config, logg *logger.Logger) (string, error) {
	db, err := storage.Open(cfg.Storage.DBURL, &cfg.Retry, logg)
	if err != nil {
		return "", err
	}

	repo := storage.NewEventRepository(db)
	fetcher := research.NewResearcher(cfg.Events.LLM, &cfg.Retry, logg)
	runner := events.NewRunner(events.SeriesFromConfig(cfg.Events.Series), repo, fetcher, cfg.Events.Calendar, logg)

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
	fmt.Println("Usage: events [options]")
	fmt.Println()
	fmt.Println("Researches annual tech event dates and writes the events ICS calendar.")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
}
