// Package domain holds the value types shared by every layer of the
// dashboard: timeframes, rows, bars and market status.
package domain

import (
	"fmt"
	"time"
)

// Timeframe identifies the granularity or source of a row set.
type Timeframe string

const (
	Timeframe15m      Timeframe = "15m"
	Timeframe1h       Timeframe = "1h"
	Timeframe1d       Timeframe = "1d"
	Timeframe1wk      Timeframe = "1wk"
	TimeframeFeatures Timeframe = "features_merged"
)

// Timeframes lists every recognised timeframe in selector order.
var Timeframes = []Timeframe{
	Timeframe15m,
	Timeframe1h,
	Timeframe1d,
	Timeframe1wk,
	TimeframeFeatures,
}

// ParseTimeframe validates s against the recognised identifiers.
func ParseTimeframe(s string) (Timeframe, error) {
	for _, tf := range Timeframes {
		if string(tf) == s {
			return tf, nil
		}
	}
	return "", fmt.Errorf("unknown timeframe %q", s)
}

// HasOHLC reports whether rows of this timeframe carry raw price action.
// The features view exposes split date/time and the signal only.
func (tf Timeframe) HasOHLC() bool {
	return tf != TimeframeFeatures
}

// Table returns the SQLite table holding rows for tf.
func (tf Timeframe) Table() string {
	if tf == TimeframeFeatures {
		return "features_merged"
	}
	return "nifty_" + string(tf)
}

// Signal is the categorical trading decision attached to a row.
type Signal string

const (
	SignalCall     Signal = "CALL"
	SignalPut      Signal = "PUT"
	SignalSideways Signal = "SIDEWAYS"
)

// Bar is a single OHLCV candle as written by the ingest job.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// MarketStatus is the payload of the status endpoint. NextOpen is set while
// the market is closed and NextClose while it is open.
type MarketStatus struct {
	MarketOpen  bool
	CurrentTime string
	NextOpen    string
	NextClose   string
}

// Query bounds a data request. Start and End are inclusive dates
// (YYYY-MM-DD) or full timestamps; empty means unbounded.
type Query struct {
	Timeframe Timeframe
	Start     string
	End       string
	Limit     int
}
