package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"niftydash/internal/config"
	"niftydash/internal/httpapi"
	"niftydash/internal/ingest"
	"niftydash/internal/store"
	"niftydash/internal/util"
)

func main() {
	// Load config.
	cfgPath := "config/niftydash.yaml"
	if p := os.Getenv("NIFTY_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// Setup logging.
	var w io.Writer = os.Stdout
	if cfg.Logging.File != "" {
		logFile, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatalf("opening log file: %v", err)
		}
		defer logFile.Close()
		w = io.MultiWriter(os.Stdout, logFile)
	}
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, w)
	util.SetDefault(logger)

	cal, err := util.NewTradingCalendar(cfg.Market.Timezone, cfg.Market.Open, cfg.Market.Close)
	if err != nil {
		log.Fatalf("market calendar: %v", err)
	}

	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer db.Close()

	metrics := httpapi.NewMetrics()
	srv := httpapi.NewDashboardServer(db, cal, metrics, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ingestDone closes after the scheduler stops; the store stays open
	// until then.
	ingestDone := make(chan struct{})
	if !cfg.Ingest.Enabled {
		close(ingestDone)
	} else {
		fetcher := ingest.NewYahooFetcher(cfg.Ingest.BaseURL, cfg.Ingest.Symbol, cal.Location(),
			util.NewRateLimiter(cfg.Ingest.RateLimitPerMin), cfg.Ingest.MaxAttempts)
		updater := ingest.NewUpdater(fetcher, db, cal, cfg.Ingest.TimeframeList(), cfg.Ingest.Range,
			metrics.Registerer(), logger)
		sched, err := ingest.NewScheduler(ctx, cfg.Ingest.Schedule, updater, logger)
		if err != nil {
			log.Fatalf("ingest scheduler: %v", err)
		}
		go func() {
			defer close(ingestDone)
			sched.Run(ctx)
		}()
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("nifty server listening", "addr", httpServer.Addr, "db", cfg.Storage.SQLitePath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down nifty server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	<-ingestDone
	logger.Info("nifty server stopped")
}
