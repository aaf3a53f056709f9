// Package feed loads row sets and market status from the dashboard API and
// turns failures into the messages shown in place of the table.
package feed

import (
	"context"
	"errors"
	"log/slog"

	"niftydash/internal/domain"
	"niftydash/pkg/niftydash"
)

// RowLimit is the fixed row bound of every data request.
const RowLimit = 1000

// GenericLoadError is shown when the request never produced an API payload.
const GenericLoadError = "Error loading data."

// API is the subset of the client used by the loader.
type API interface {
	Status(ctx context.Context) (domain.MarketStatus, error)
	Data(ctx context.Context, q domain.Query) (niftydash.DataResponse, error)
}

// LoadError carries the user-facing message of a failed load.
type LoadError struct {
	Message string
	Err     error
}

func (e *LoadError) Error() string { return e.Message }
func (e *LoadError) Unwrap() error { return e.Err }

// Loader fetches rows for the current query.
type Loader struct {
	api API
	log *slog.Logger
}

// NewLoader creates a Loader backed by api.
func NewLoader(api API, log *slog.Logger) *Loader {
	return &Loader{api: api, log: log}
}

// Query builds the bounded request for a timeframe and optional inclusive
// date range.
func Query(tf domain.Timeframe, start, end string) domain.Query {
	return domain.Query{Timeframe: tf, Start: start, End: end, Limit: RowLimit}
}

// Load fetches q. Failures are returned as *LoadError.
func (l *Loader) Load(ctx context.Context, q domain.Query) ([]domain.Row, error) {
	q.Limit = RowLimit
	resp, err := l.api.Data(ctx, q)
	if err != nil {
		le := Describe(err)
		l.log.Warn("loading data", "timeframe", q.Timeframe, "start", q.Start, "end", q.End, "error", err)
		return nil, le
	}
	l.log.Debug("data loaded", "timeframe", q.Timeframe, "rows", len(resp.Rows))
	return resp.Rows, nil
}

// Status fetches the market status.
func (l *Loader) Status(ctx context.Context) (domain.MarketStatus, error) {
	return l.api.Status(ctx)
}

// Describe maps a client error to its display message: the server message
// for API failures and a generic text for everything else.
func Describe(err error) *LoadError {
	var apiErr *niftydash.APIError
	if errors.As(err, &apiErr) {
		return &LoadError{Message: "Error: " + apiErr.Message, Err: err}
	}
	return &LoadError{Message: GenericLoadError, Err: err}
}
