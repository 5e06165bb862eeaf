// Package main provides the list command-line tool for inspecting stored
// event occurrences.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"techcal/internal/config"
	"techcal/internal/logger"
	"techcal/internal/models"
	"techcal/internal/report"
	"techcal/internal/storage"
)

const defaultConfigPath = "configs/techcal.yaml"

func main() {
	configFile := flag.String("config", defaultConfigPath, "Path to YAML configuration file")
	eligibleOnly := flag.Bool("eligible", false, "Show only records eligible for the published calendar")
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

	db, err := storage.Open(cfg.Storage.DBURL, &cfg.Retry, logg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer db.Close()

	repo := storage.NewEventRepository(db)

	var records []models.StoredOccurrence

	if *eligibleOnly {
		minYear := time.Now().UTC().Year() - cfg.Events.Calendar.RetentionYears
		records, err = repo.ListIncludedSince(minYear)
	} else {
		records, err = repo.ListAll()
	}

	if err != nil {
		log.Fatalf("Failed to list occurrences: %v", err)
	}

	if len(records) == 0 {
		fmt.Println("No stored occurrences.")

		return
	}

	headers := []string{"SERIES", "YEAR", "START", "END", "CONFIDENT", "CONFIRMED", "INCLUDED", "LOCATION"}
	rows := make([][]string, 0, len(records))

	for _, occ := range records {
		rows = append(rows, []string{
			occ.SeriesID,
			fmt.Sprintf("%d", occ.Year),
			orDash(models.FormatDate(occ.StartDate)),
			orDash(models.FormatDate(occ.EndDate)),
			yesNo(occ.Confident),
			yesNo(occ.Confirmed),
			yesNo(occ.Included),
			orDash(occ.Location),
		})
	}

	fmt.Print(report.Render(headers, rows))
	fmt.Printf("\n%d record(s)\n", len(records))
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}

	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

func printUsage() {
	fmt.Println("Usage: list [options]")
	fmt.Println()
	fmt.Println("Prints stored event occurrences as a table.")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
}
