// Package store defines storage interfaces for persisting and retrieving
// candles and feature rows, with a SQLite implementation.
package store

import (
	"context"
	"errors"

	"niftydash/internal/domain"
)

// ErrUnknownTimeframe is returned for a timeframe without a backing table.
var ErrUnknownTimeframe = errors.New("unknown timeframe")

// BarStore persists OHLCV candles.
type BarStore interface {
	// WriteBars upserts bars into the table for tf, keyed by timestamp.
	// Existing targets and indicator columns are preserved.
	WriteBars(ctx context.Context, tf domain.Timeframe, bars []domain.Bar) error
}

// RowStore reads and writes dynamic rows, indicator columns included.
type RowStore interface {
	// ReadRows returns the newest rows matching q, newest first.
	ReadRows(ctx context.Context, q domain.Query) ([]domain.Row, error)

	// WriteRows upserts rows into the table for tf, adding any missing
	// columns first. Every row must carry a timestamp.
	WriteRows(ctx context.Context, tf domain.Timeframe, rows []domain.Row) error
}
