// One-shot tool: load feature or indicator rows from a CSV file into the
// dashboard store. New indicator columns are added to the table as needed.
//
// Usage:
//
//	go run cmd/nifty-import/main.go -file features.csv [-timeframe features_merged]
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"niftydash/internal/config"
	"niftydash/internal/domain"
	"niftydash/internal/ingest"
	"niftydash/internal/store"
	"niftydash/internal/util"
)

func main() {
	file := flag.String("file", "", "CSV file to import (required)")
	tfName := flag.String("timeframe", string(domain.TimeframeFeatures), "target timeframe table")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}
	tf, err := domain.ParseTimeframe(*tfName)
	if err != nil {
		log.Fatalf("timeframe: %v", err)
	}

	cfgPath := "config/niftydash.yaml"
	if p := os.Getenv("NIFTY_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	util.SetDefault(logger)

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("opening %s: %v", *file, err)
	}
	defer f.Close()

	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer db.Close()

	n, err := ingest.ImportCSV(context.Background(), db, tf, f)
	if err != nil {
		logger.Error("import failed", "file", *file, "rows_written", n, "error", err)
		os.Exit(1)
	}
	logger.Info("import complete", "file", *file, "timeframe", tf, "rows", n, "db", cfg.Storage.SQLitePath)
}
