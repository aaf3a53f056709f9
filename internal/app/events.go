package app

import (
	"niftydash/internal/domain"
	"niftydash/internal/export"
)

// Event is an input to Update.
type Event interface{ isEvent() }

// TimeframeChanged selects a new timeframe.
type TimeframeChanged struct{ Timeframe domain.Timeframe }

// IndicatorToggled flips one indicator checkbox.
type IndicatorToggled struct{ ID string }

// DateRangeChanged sets the inclusive start/end bounds; empty clears one.
type DateRangeChanged struct{ Start, End string }

// DateRejected reports date input that is not YYYY-MM-DD. The range and
// query are left unchanged.
type DateRejected struct{ Value string }

// ManualRefresh is the explicit reload request.
type ManualRefresh struct{}

// StatusTick fires every status interval.
type StatusTick struct{}

// RefreshTick fires every refresh interval for the timer identified by Gen.
type RefreshTick struct{ Gen uint64 }

// DataLoaded carries a successful response to LoadData.
type DataLoaded struct {
	Query  domain.Query
	Rows   []domain.Row
	Silent bool
}

// LoadFailed carries the display message of a failed LoadData.
type LoadFailed struct {
	Query   domain.Query
	Message string
	Silent  bool
}

// StatusResolved carries a successful status poll.
type StatusResolved struct{ Status domain.MarketStatus }

// StatusFailed reports a failed status poll.
type StatusFailed struct{ Err error }

// ExportRequested asks for a CSV of the table on screen.
type ExportRequested struct{}

// ExportSaved reports the outcome of SaveExport.
type ExportSaved struct {
	Path string
	Err  error
}

func (TimeframeChanged) isEvent() {}
func (IndicatorToggled) isEvent() {}
func (DateRangeChanged) isEvent() {}
func (DateRejected) isEvent() {}
func (ManualRefresh) isEvent() {}
func (StatusTick) isEvent() {}
func (RefreshTick) isEvent() {}
func (DataLoaded) isEvent() {}
func (LoadFailed) isEvent() {}
func (StatusResolved) isEvent() {}
func (StatusFailed) isEvent() {}
func (ExportRequested) isEvent() {}
func (ExportSaved) isEvent() {}

// Effect is work requested by Update and carried out by the runtime.
type Effect interface{ isEffect() }

// LoadData fetches rows for Query.
type LoadData struct {
	Query  domain.Query
	Silent bool
}

// FetchStatus polls the market status once.
type FetchStatus struct{}

// ScheduleStatusTick arms the next StatusTick.
type ScheduleStatusTick struct{}

// ScheduleRefreshTick arms the next RefreshTick for Gen.
type ScheduleRefreshTick struct{ Gen uint64 }

// SaveExport writes File to the export directory.
type SaveExport struct{ File export.File }

func (LoadData) isEffect() {}
func (FetchStatus) isEffect() {}
func (ScheduleStatusTick) isEffect() {}
func (ScheduleRefreshTick) isEffect() {}
func (SaveExport) isEffect() {}
