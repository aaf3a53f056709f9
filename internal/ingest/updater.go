package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"niftydash/internal/domain"
	"niftydash/internal/store"
)

// Fetcher returns candles for a timeframe over a provider range.
type Fetcher interface {
	FetchBars(ctx context.Context, tf domain.Timeframe, rng string) ([]domain.Bar, error)
}

// MarketClock reports whether the exchange is in session.
type MarketClock interface {
	IsMarketOpen(t time.Time) bool
}

// Updater pulls the latest candles for each timeframe into the store.
type Updater struct {
	fetcher    Fetcher
	bars       store.BarStore
	clock      MarketClock
	timeframes []domain.Timeframe
	rng        string
	log        *slog.Logger
	now        func() time.Time

	written *prometheus.CounterVec
	runs    *prometheus.CounterVec
}

// NewUpdater creates an Updater. reg may be nil to skip metrics
// registration.
func NewUpdater(f Fetcher, bars store.BarStore, clock MarketClock, timeframes []domain.Timeframe, rng string, reg prometheus.Registerer, log *slog.Logger) *Updater {
	u := &Updater{
		fetcher:    f,
		bars:       bars,
		clock:      clock,
		timeframes: timeframes,
		rng:        rng,
		log:        log,
		now:        time.Now,
		written: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "niftydash",
			Subsystem: "ingest",
			Name:      "bars_written_total",
			Help:      "Candles upserted per timeframe.",
		}, []string{"timeframe"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "niftydash",
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Update runs by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(u.written, u.runs)
	}
	return u
}

// Name returns the job identifier.
func (u *Updater) Name() string { return "nifty-updater" }

// RunOnce fetches and stores every configured timeframe concurrently. A
// closed market is logged but does not skip the run.
func (u *Updater) RunOnce(ctx context.Context) error {
	start := u.now()
	if !u.clock.IsMarketOpen(start) {
		u.log.Info("market closed, updating anyway")
	}

	counts := make([]int, len(u.timeframes))
	g, gctx := errgroup.WithContext(ctx)
	for i, tf := range u.timeframes {
		g.Go(func() error {
			bars, err := u.fetcher.FetchBars(gctx, tf, u.rng)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", tf, err)
			}
			if len(bars) == 0 {
				u.log.Warn("no bars returned", "timeframe", tf)
				return nil
			}
			if err := u.bars.WriteBars(gctx, tf, bars); err != nil {
				return fmt.Errorf("write %s: %w", tf, err)
			}
			counts[i] = len(bars)
			u.written.WithLabelValues(string(tf)).Add(float64(len(bars)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		u.runs.WithLabelValues("error").Inc()
		u.log.Error("update failed", "error", err)
		return err
	}

	u.runs.WithLabelValues("ok").Inc()
	attrs := []any{"elapsed", time.Since(start).Round(time.Millisecond)}
	for i, tf := range u.timeframes {
		attrs = append(attrs, string(tf), counts[i])
	}
	u.log.Info("update complete", attrs...)
	return nil
}
