package main

import (
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"niftydash/internal/config"
	"niftydash/internal/domain"
	"niftydash/internal/feed"
	"niftydash/internal/schema"
	"niftydash/internal/tui"
	"niftydash/internal/util"
	"niftydash/pkg/niftydash"
)

func main() {
	cfgPath := "config/niftydash.yaml"
	if p := os.Getenv("NIFTY_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// The terminal belongs to the UI, so logs go to a dated file.
	logFileName := fmt.Sprintf("/tmp/nifty-dash-%s.log", time.Now().Format("2006-01-02"))
	if cfg.Logging.File != "" {
		logFileName = cfg.Logging.File
	}
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Fatalf("opening log file: %v", err)
	}
	defer logFile.Close()

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, logFile)
	util.SetDefault(logger)

	cat := schema.DefaultCatalogue()
	if cfg.Client.CatalogueFile != "" {
		cat, err = schema.LoadCatalogue(cfg.Client.CatalogueFile)
		if err != nil {
			log.Fatalf("loading indicator catalogue: %v", err)
		}
	}

	tf, err := domain.ParseTimeframe(cfg.Client.Timeframe)
	if err != nil {
		log.Fatalf("client timeframe: %v", err)
	}

	loader := feed.NewLoader(niftydash.NewClient(cfg.Client.APIURL), logger)
	m := tui.New(loader, tui.Options{
		Catalogue:       cat,
		Timeframe:       tf,
		ExportDir:       cfg.Client.ExportDir,
		StatusInterval:  cfg.Client.StatusInterval,
		RefreshInterval: cfg.Client.RefreshInterval,
		RequestTimeout:  cfg.Client.RequestTimeout,
	}, logger)

	logger.Info("starting nifty dashboard", "api", cfg.Client.APIURL, "timeframe", tf)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
