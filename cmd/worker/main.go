// Package main provides the worker daemon that runs both calendar pipelines
// on a cron schedule.
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
	"github.com/robfig/cron/v3"

	"techcal/internal/config"
	"techcal/internal/earnings"
	"techcal/internal/events"
	"techcal/internal/logger"
	"techcal/internal/research"
	"techcal/internal/storage"
)

const defaultConfigPath = "configs/techcal.yaml"

func main() {
	configFile := flag.String("config", defaultConfigPath, "Path to YAML configuration file")
	runNow := flag.Bool("immediate", true, "Run both pipelines once at startup before scheduling")
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

	if *runNow {
		runBoth(ctx, cfg, logg)
	}

	scheduler := cron.New()

	_, err = scheduler.AddFunc(cfg.Worker.Schedule, func() {
		runBoth(ctx, cfg, logg)
	})
	if err != nil {
		log.Fatalf("Invalid worker schedule %q: %v", cfg.Worker.Schedule, err)
	}

	scheduler.Start()
	logg.Info("worker started", "schedule", cfg.Worker.Schedule)

	<-ctx.Done()

	logg.Info("shutdown signal received, waiting for running jobs")
	<-scheduler.Stop().Done()
	logg.Info("worker stopped")
}

// runBoth executes the events and earnings pipelines in sequence. Each run
// opens and closes the database so remote-backed storage syncs per pass.
// One pipeline failing does not stop the other.
func runBoth(ctx context.Context, cfg *config.Config, logg *logger.Logger) {
	today := time.Now().UTC()

	if err := runEvents(ctx, cfg, logg, today); err != nil {
		logg.Error("events pipeline failed", "err", err)
	}

	if err := runEarnings(ctx, cfg, logg, today); err != nil {
		logg.Error("earnings pipeline failed", "err", err)
	}
}

func runEvents(ctx context.Context, cfg *config.Config, logg *logger.Logger, today time.Time) error {
	db, err := storage.Open(cfg.Storage.DBURL, &cfg.Retry, logg)
	if err != nil {
		return err
	}

	repo := storage.NewEventRepository(db)
	fetcher := research.NewResearcher(cfg.Events.LLM, &cfg.Retry, logg)
	runner := events.NewRunner(events.SeriesFromConfig(cfg.Events.Series), repo, fetcher, cfg.Events.Calendar, logg)

	_, runErr := runner.Run(ctx, today)

	return closeAfter(db, runErr, logg)
}

func runEarnings(ctx context.Context, cfg *config.Config, logg *logger.Logger, today time.Time) error {
	db, err := storage.Open(cfg.Storage.DBURL, &cfg.Retry, logg)
	if err != nil {
		return err
	}

	repo := storage.NewEarningsRepository(db)
	client := earnings.NewFinnhubClient(cfg.Earnings, &cfg.Retry, logg)
	runner := earnings.NewRunner(cfg.Earnings, repo, client, logg)

	_, runErr := runner.Run(ctx, today)

	return closeAfter(db, runErr, logg)
}

func closeAfter(db *storage.Database, runErr error, logg *logger.Logger) error {
	if err := db.Close(); err != nil {
		if runErr == nil {
			return err
		}

		logg.Error("failed to close database after pipeline error", "err", err)
	}

	return runErr
}

func printUsage() {
	fmt.Println("Usage: worker [options]")
	fmt.Println()
	fmt.Println("Runs the events and earnings pipelines on a cron schedule.")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
}
