package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"niftydash/internal/domain"
	"niftydash/internal/util"
)

// DefaultYahooURL is the public Yahoo Finance chart host.
const DefaultYahooURL = "https://query1.finance.yahoo.com"

// YahooFetcher downloads candles from the Yahoo Finance chart API.
type YahooFetcher struct {
	baseURL     string
	symbol      string
	client      *http.Client
	limiter     *util.RateLimiter
	loc         *time.Location
	maxAttempts int
	retryDelay  time.Duration
}

// NewYahooFetcher creates a fetcher for symbol. Timestamps are converted to
// loc; limiter may be nil.
func NewYahooFetcher(baseURL, symbol string, loc *time.Location, limiter *util.RateLimiter, maxAttempts int) *YahooFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	if limiter == nil {
		limiter = util.NewRateLimiter(0)
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &YahooFetcher{
		baseURL:     strings.TrimRight(baseURL, "/"),
		symbol:      symbol,
		client:      &http.Client{Timeout: 30 * time.Second},
		limiter:     limiter,
		loc:         loc,
		maxAttempts: maxAttempts,
		retryDelay:  time.Second,
	}
}

// yahooInterval maps a timeframe to the chart API interval parameter.
func yahooInterval(tf domain.Timeframe) (string, error) {
	switch tf {
	case domain.Timeframe15m:
		return "15m", nil
	case domain.Timeframe1h:
		return "60m", nil
	case domain.Timeframe1d:
		return "1d", nil
	case domain.Timeframe1wk:
		return "1wk", nil
	}
	return "", fmt.Errorf("no yahoo interval for timeframe %q", tf)
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

// FetchBars returns the candles of tf over the Yahoo range rng (e.g. "5d"),
// oldest first. Daily and weekly candles are stamped at midnight.
func (f *YahooFetcher) FetchBars(ctx context.Context, tf domain.Timeframe, rng string) ([]domain.Bar, error) {
	interval, err := yahooInterval(tf)
	if err != nil {
		return nil, err
	}

	var bars []domain.Bar
	err = util.Retry(ctx, f.maxAttempts, f.retryDelay, func() error {
		if err := f.limiter.Wait(ctx); err != nil {
			return util.Permanent(err)
		}
		var ferr error
		bars, ferr = f.fetchChart(ctx, interval, rng)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	if tf == domain.Timeframe1d || tf == domain.Timeframe1wk {
		for i := range bars {
			t := bars[i].Timestamp
			bars[i].Timestamp = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		}
	}
	return bars, nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, interval, rng string) ([]domain.Bar, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.baseURL, url.PathEscape(f.symbol), url.QueryEscape(interval), url.QueryEscape(rng))

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, util.Permanent(err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, truncate(string(body), 200))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, util.Permanent(err)
		}
		return nil, err
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, util.Permanent(fmt.Errorf("yahoo decode: %w", err))
	}
	if chart.Chart.Error != nil {
		return nil, util.Permanent(fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description))
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]domain.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // holidays and unfinished candles come back as nulls
		}
		bars = append(bars, domain.Bar{
			Timestamp: time.Unix(ts, 0).In(f.loc),
			Open:      o,
			High:      h,
			Low:       l,
			Close:     c,
			Volume:    int64(at(quote.Volume, i)),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
