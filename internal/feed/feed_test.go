package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"niftydash/internal/domain"
	"niftydash/pkg/niftydash"
)

type fakeAPI struct {
	got  domain.Query
	rows []domain.Row
	err  error
}

func (f *fakeAPI) Status(context.Context) (domain.MarketStatus, error) {
	return domain.MarketStatus{MarketOpen: true}, f.err
}

func (f *fakeAPI) Data(_ context.Context, q domain.Query) (niftydash.DataResponse, error) {
	f.got = q
	if f.err != nil {
		return niftydash.DataResponse{}, f.err
	}
	return niftydash.DataResponse{Timeframe: q.Timeframe, Rows: f.rows}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadFixesLimit(t *testing.T) {
	api := &fakeAPI{rows: []domain.Row{{"close": domain.Number(1)}}}
	l := NewLoader(api, quietLogger())

	rows, err := l.Load(context.Background(), domain.Query{Timeframe: domain.Timeframe1d, Limit: 5, End: "2024-01-31"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, RowLimit, api.got.Limit)
	assert.Equal(t, "2024-01-31", api.got.End)
	assert.Empty(t, api.got.Start)
}

func TestLoadAPIError(t *testing.T) {
	api := &fakeAPI{err: &niftydash.APIError{Status: "error", Message: "bad timeframe"}}
	_, err := NewLoader(api, quietLogger()).Load(context.Background(), Query(domain.Timeframe1h, "", ""))

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "Error: bad timeframe", le.Message)
}

func TestLoadTransportError(t *testing.T) {
	api := &fakeAPI{err: fmt.Errorf("%w: connection refused", niftydash.ErrTransport)}
	_, err := NewLoader(api, quietLogger()).Load(context.Background(), Query(domain.Timeframe1h, "", ""))

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, GenericLoadError, le.Message)
	assert.True(t, errors.Is(err, niftydash.ErrTransport))
}

func TestQuery(t *testing.T) {
	q := Query(domain.Timeframe15m, "2024-01-01", "2024-01-02")
	assert.Equal(t, domain.Query{Timeframe: domain.Timeframe15m, Start: "2024-01-01", End: "2024-01-02", Limit: 1000}, q)
}
