package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"niftydash/internal/domain"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration shared by the server and the
// terminal client.
type Config struct {
	Server  Server  `yaml:"server"`
	Storage Storage `yaml:"storage"`
	Client  Client  `yaml:"client"`
	Market  Market  `yaml:"market"`
	Ingest  Ingest  `yaml:"ingest"`
	Logging Logging `yaml:"logging"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port for http.Server.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Storage holds paths for data persistence.
type Storage struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// Client configures the terminal dashboard.
type Client struct {
	APIURL          string        `yaml:"api_url"`
	Timeframe       string        `yaml:"timeframe"`
	StatusInterval  time.Duration `yaml:"status_interval"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ExportDir       string        `yaml:"export_dir"`
	CatalogueFile   string        `yaml:"catalogue_file"`
}

// Market describes the trading session used by the status endpoint.
type Market struct {
	Timezone string `yaml:"timezone"`
	Open     string `yaml:"open"`
	Close    string `yaml:"close"`
}

// Ingest controls the periodic bar updater.
type Ingest struct {
	Enabled         bool     `yaml:"enabled"`
	Symbol          string   `yaml:"symbol"`
	Schedule        string   `yaml:"schedule"`
	BaseURL         string   `yaml:"base_url"`
	Timeframes      []string `yaml:"timeframes"`
	Range           string   `yaml:"range"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
	MaxAttempts     int      `yaml:"max_attempts"`
}

// TimeframeList returns the configured timeframes. Validate has already
// rejected unknown names.
func (i Ingest) TimeframeList() []domain.Timeframe {
	out := make([]domain.Timeframe, 0, len(i.Timeframes))
	for _, tf := range i.Timeframes {
		out = append(out, domain.Timeframe(tf))
	}
	return out
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server:  Server{Host: "0.0.0.0", Port: 5000},
		Storage: Storage{SQLitePath: "data/nifty50.db"},
		Client: Client{
			APIURL:          "http://localhost:5000",
			Timeframe:       string(domain.Timeframe1d),
			StatusInterval:  60 * time.Second,
			RefreshInterval: 15 * time.Second,
			RequestTimeout:  30 * time.Second,
			ExportDir:       ".",
		},
		Market: Market{Timezone: "Asia/Kolkata", Open: "09:15", Close: "15:30"},
		Ingest: Ingest{
			Symbol:          "^NSEI",
			Schedule:        "@every 5m",
			BaseURL:         "https://query1.finance.yahoo.com",
			Timeframes:      []string{"15m", "1h", "1d"},
			Range:           "5d",
			RateLimitPerMin: 30,
			MaxAttempts:     3,
		},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// Load reads the YAML configuration file at path on top of the defaults,
// then applies .env and environment variable overrides. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if _, err := domain.ParseTimeframe(c.Client.Timeframe); err != nil {
		return fmt.Errorf("client.timeframe: %w", err)
	}
	if c.Client.StatusInterval <= 0 || c.Client.RefreshInterval <= 0 {
		return errors.New("client intervals must be positive")
	}
	if c.Client.RefreshInterval >= c.Client.StatusInterval {
		return errors.New("client.refresh_interval must be shorter than client.status_interval")
	}
	for _, tf := range c.Ingest.Timeframes {
		parsed, err := domain.ParseTimeframe(tf)
		if err != nil {
			return fmt.Errorf("ingest.timeframes: %w", err)
		}
		if !parsed.HasOHLC() {
			return fmt.Errorf("ingest.timeframes: %s has no candles to fetch", tf)
		}
	}
	if _, err := time.Parse("15:04", c.Market.Open); err != nil {
		return fmt.Errorf("market.open: %w", err)
	}
	if _, err := time.Parse("15:04", c.Market.Close); err != nil {
		return fmt.Errorf("market.close: %w", err)
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("NIFTY_API_URL"); v != "" {
		cfg.Client.APIURL = v
	}

	if v := os.Getenv("NIFTY_EXPORT_DIR"); v != "" {
		cfg.Client.ExportDir = v
	}

	if v := os.Getenv("NIFTY_TIMEFRAME"); v != "" {
		cfg.Client.Timeframe = v
	}

	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.Ingest.BaseURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
