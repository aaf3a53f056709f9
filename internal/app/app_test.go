package app

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"niftydash/internal/dashboard"
	"niftydash/internal/domain"
	"niftydash/internal/feed"
	"niftydash/internal/poll"
	"niftydash/internal/schema"
)

func sampleRows() []domain.Row {
	return []domain.Row{{
		"timestamp": domain.String("2024-01-02 09:15:00"),
		"open":      domain.Number(100),
		"high":      domain.Number(105),
		"low":       domain.Number(99),
		"close":     domain.Number(103),
		"target":    domain.String("CALL"),
		"rsi_14":    domain.Number(64.2),
	}}
}

func started(t *testing.T, tf domain.Timeframe) State {
	t.Helper()
	s, effects := Start(New(schema.DefaultCatalogue(), tf))
	require.Len(t, effects, 3)
	assert.Equal(t, LoadData{Query: feed.Query(tf, "", "")}, effects[0])
	assert.Equal(t, FetchStatus{}, effects[1])
	assert.Equal(t, ScheduleStatusTick{}, effects[2])
	return s
}

func loaded(t *testing.T, tf domain.Timeframe) State {
	t.Helper()
	s := started(t, tf)
	s, effects := Update(s, DataLoaded{Query: s.Query, Rows: sampleRows()})
	assert.Empty(t, effects)
	require.Equal(t, ViewTable, s.View)
	return s
}

func TestStartShowsLoading(t *testing.T) {
	s := started(t, domain.Timeframe1d)
	assert.Equal(t, ViewLoading, s.View)
	assert.Equal(t, LoadingText, s.Display())
	assert.Equal(t, poll.Unknown, s.Poll.State)
}

func TestDataLoadedRenders(t *testing.T) {
	s := loaded(t, domain.Timeframe1d)

	require.Len(t, s.Table.Rows, 1)
	assert.Equal(t, dashboard.SignalCall, s.Table.Rows[0].SignalClass)
	assert.Equal(t, dashboard.PriceUp, s.Table.Rows[0].PriceClass)
	assert.Equal(t, "", s.Display())
}

func TestEmptyLoadShowsNoData(t *testing.T) {
	s := started(t, domain.Timeframe1d)
	s, _ = Update(s, DataLoaded{Query: s.Query})
	assert.Equal(t, ViewTable, s.View)
	assert.Equal(t, dashboard.NoData, s.Display())
}

func TestTimeframeChangeClearsSelectionBeforeLoad(t *testing.T) {
	s := loaded(t, domain.Timeframe1h)
	s, _ = Update(s, IndicatorToggled{ID: "rsi_14"})
	require.Equal(t, 1, s.Selection.Len())

	next, effects := Update(s, TimeframeChanged{Timeframe: domain.Timeframe1d})
	assert.Equal(t, 0, next.Selection.Len())
	require.Len(t, effects, 1)
	assert.Equal(t, LoadData{Query: feed.Query(domain.Timeframe1d, "", "")}, effects[0])
	assert.Equal(t, ViewLoading, next.View)

	// The input state is untouched.
	assert.Equal(t, 1, s.Selection.Len())
	assert.Equal(t, domain.Timeframe1h, s.Timeframe)
}

func TestToggleRerendersWithoutFetch(t *testing.T) {
	s := loaded(t, domain.Timeframe1h)
	before := len(s.Table.Schema.Columns)

	s, effects := Update(s, IndicatorToggled{ID: "rsi_14"})
	assert.Empty(t, effects)
	assert.Len(t, s.Table.Schema.Columns, before+1)
	assert.Equal(t, "64.20", s.Table.Rows[0].Cells[before].Text)

	s, _ = Update(s, IndicatorToggled{ID: "rsi_14"})
	assert.Len(t, s.Table.Schema.Columns, before)
}

func TestToggleIgnoresHiddenIndicator(t *testing.T) {
	s := loaded(t, domain.Timeframe1d)
	s, effects := Update(s, IndicatorToggled{ID: "bb_width"})
	assert.Empty(t, effects)
	assert.Equal(t, 0, s.Selection.Len())
}

func TestDateRangeChangeReloads(t *testing.T) {
	s := loaded(t, domain.Timeframe1d)
	s, effects := Update(s, DateRangeChanged{Start: "2024-01-01", End: "2024-01-31"})

	want := feed.Query(domain.Timeframe1d, "2024-01-01", "2024-01-31")
	assert.Equal(t, []Effect{LoadData{Query: want}}, effects)
	assert.Equal(t, want, s.Query)
}

func TestDateRejectedKeepsQuery(t *testing.T) {
	s := loaded(t, domain.Timeframe1d)
	before := s.Query
	s, effects := Update(s, DateRejected{Value: "2024-13-40"})
	assert.Empty(t, effects)
	assert.Equal(t, before, s.Query)
	assert.Empty(t, s.End)
	assert.Equal(t, "invalid date 2024-13-40", s.Notice)
	assert.Equal(t, ViewTable, s.View)
}

func TestManualRefreshLoadsAndPolls(t *testing.T) {
	s := loaded(t, domain.Timeframe1d)
	s, effects := Update(s, ManualRefresh{})
	assert.Equal(t, []Effect{LoadData{Query: s.Query}, FetchStatus{}}, effects)
	assert.Equal(t, ViewLoading, s.View)
}

func TestStaleResponseDropped(t *testing.T) {
	s := loaded(t, domain.Timeframe1d)
	old := s.Query
	s, _ = Update(s, TimeframeChanged{Timeframe: domain.Timeframe1h})

	stale := []domain.Row{{"timestamp": domain.String("1999-01-01")}}
	s, _ = Update(s, DataLoaded{Query: old, Rows: stale})
	assert.Equal(t, ViewLoading, s.View)
	assert.NotEqual(t, stale, s.Rows)

	s, _ = Update(s, LoadFailed{Query: old, Message: "Error: old"})
	assert.Equal(t, ViewLoading, s.View)
}

func TestLoadFailureKeepsRowsForExport(t *testing.T) {
	s := loaded(t, domain.Timeframe1d)
	s, _ = Update(s, ManualRefresh{})
	s, _ = Update(s, LoadFailed{Query: s.Query, Message: "Error: database is locked"})

	assert.Equal(t, ViewError, s.View)
	assert.Equal(t, "Error: database is locked", s.Display())
	assert.Len(t, s.Rows, 1)

	_, effects := Update(s, ExportRequested{})
	require.Len(t, effects, 1)
	save, ok := effects[0].(SaveExport)
	require.True(t, ok)
	assert.Equal(t, "nifty50_data_1d.csv", save.File.Name)
}

func TestLiveRefreshLifecycle(t *testing.T) {
	s := loaded(t, domain.Timeframe15m)

	s, effects := Update(s, StatusResolved{Status: domain.MarketStatus{MarketOpen: true}})
	require.Len(t, effects, 1)
	tick, ok := effects[0].(ScheduleRefreshTick)
	require.True(t, ok)

	// A second open result does not start another timer.
	s, effects = Update(s, StatusResolved{Status: domain.MarketStatus{MarketOpen: true}})
	assert.Empty(t, effects)

	s, effects = Update(s, RefreshTick{Gen: tick.Gen})
	assert.Equal(t, []Effect{LoadData{Query: s.Query, Silent: true}, ScheduleRefreshTick{Gen: tick.Gen}}, effects)
	assert.Equal(t, ViewTable, s.View, "silent refresh keeps the table visible")

	s, effects = Update(s, StatusResolved{Status: domain.MarketStatus{MarketOpen: false}})
	assert.Empty(t, effects)
	assert.Equal(t, poll.Closed, s.Poll.State)

	_, effects = Update(s, RefreshTick{Gen: tick.Gen})
	assert.Empty(t, effects, "no silent load after the market closes")
}

func TestStatusFailureLeavesTimer(t *testing.T) {
	s := loaded(t, domain.Timeframe1d)
	s, _ = Update(s, StatusResolved{Status: domain.MarketStatus{MarketOpen: true}})
	before := s.Poll

	s, effects := Update(s, StatusFailed{Err: errors.New("timeout")})
	assert.Empty(t, effects)
	assert.Equal(t, before, s.Poll)
	assert.True(t, s.Poll.Live(before.Gen))
}

func TestStatusTickReschedules(t *testing.T) {
	s := started(t, domain.Timeframe1d)
	_, effects := Update(s, StatusTick{})
	assert.Equal(t, []Effect{FetchStatus{}, ScheduleStatusTick{}}, effects)
}

func TestExportUsesLastRenderedColumns(t *testing.T) {
	s := loaded(t, domain.Timeframe1h)
	s, _ = Update(s, IndicatorToggled{ID: "rsi_14"})

	_, effects := Update(s, ExportRequested{})
	require.Len(t, effects, 1)
	data := string(effects[0].(SaveExport).File.Data)
	assert.True(t, strings.HasPrefix(data, "date,time,open,high,low,close,signal,rsi_14\n"), data)
}

func TestExportNothingLoaded(t *testing.T) {
	s := started(t, domain.Timeframe1d)
	s, effects := Update(s, ExportRequested{})
	assert.Empty(t, effects)
	assert.Equal(t, "nothing to export", s.Notice)

	s, _ = Update(s, ExportSaved{Path: "/tmp/x.csv"})
	assert.Equal(t, "saved /tmp/x.csv", s.Notice)
}
