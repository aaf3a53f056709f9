// Package app is the dashboard state machine. Update is a pure transition
// function; timers, network calls and file writes are returned as effects
// for the runtime to execute.
package app

import (
	"fmt"

	"niftydash/internal/dashboard"
	"niftydash/internal/domain"
	"niftydash/internal/export"
	"niftydash/internal/feed"
	"niftydash/internal/poll"
	"niftydash/internal/schema"
)

// LoadingText replaces the table while a non-silent load is in flight.
const LoadingText = "Loading data..."

// View is what occupies the table area.
type View int

const (
	ViewLoading View = iota
	ViewTable
	ViewError
)

// State is the whole client state. Update never modifies the State it is
// given.
type State struct {
	Catalogue schema.Catalogue
	Timeframe domain.Timeframe
	Selection schema.Selection
	Start     string
	End       string

	// Query is the request the table should reflect. Responses for any
	// other query are stale.
	Query domain.Query

	// Rows and RowsQuery hold the last successful load; Table is the last
	// render. Both survive a failed load.
	Rows      []domain.Row
	RowsQuery domain.Query
	Loaded    bool
	Table     dashboard.Table

	View    View
	Message string
	Notice  string

	Poll   poll.Controller
	Status domain.MarketStatus
}

// New returns the state before the first load.
func New(cat schema.Catalogue, tf domain.Timeframe) State {
	return State{
		Catalogue: cat,
		Timeframe: tf,
		Selection: schema.NewSelection(),
		Query:     feed.Query(tf, "", ""),
		View:      ViewLoading,
	}
}

// Start issues the initial load and status poll.
func Start(s State) (State, []Effect) {
	s.View = ViewLoading
	return s, []Effect{
		LoadData{Query: s.Query},
		FetchStatus{},
		ScheduleStatusTick{},
	}
}

// Schema resolves the active schema for the current selection.
func (s State) Schema() schema.Schema {
	return schema.Resolve(s.Catalogue, s.Timeframe, s.Selection.Ordered(s.Catalogue, s.Timeframe))
}

// Current reports whether a response for q should be applied.
func (s State) Current(q domain.Query) bool {
	return q == s.Query
}

// Display returns the text shown instead of a grid, or "" when the grid
// itself is shown.
func (s State) Display() string {
	switch s.View {
	case ViewLoading:
		return LoadingText
	case ViewError:
		return s.Message
	}
	if s.Table.Empty() {
		return dashboard.NoData
	}
	return ""
}

// Update applies ev to s.
func Update(s State, ev Event) (State, []Effect) {
	switch ev := ev.(type) {
	case TimeframeChanged:
		s.Timeframe = ev.Timeframe
		s.Selection = schema.NewSelection()
		return s.reload()

	case IndicatorToggled:
		if !s.Catalogue.IsVisible(ev.ID, s.Timeframe) {
			return s, nil
		}
		s.Selection = s.Selection.Toggle(ev.ID)
		s.rerender()
		return s, nil

	case DateRangeChanged:
		s.Start, s.End = ev.Start, ev.End
		return s.reload()

	case DateRejected:
		s.Notice = "invalid date " + ev.Value
		return s, nil

	case ManualRefresh:
		next, effects := s.reload()
		return next, append(effects, FetchStatus{})

	case StatusTick:
		return s, []Effect{FetchStatus{}, ScheduleStatusTick{}}

	case RefreshTick:
		if !s.Poll.Live(ev.Gen) {
			return s, nil
		}
		return s, []Effect{
			LoadData{Query: s.Query, Silent: true},
			ScheduleRefreshTick{Gen: ev.Gen},
		}

	case DataLoaded:
		if !s.Current(ev.Query) {
			return s, nil
		}
		s.Rows = ev.Rows
		s.RowsQuery = ev.Query
		s.Loaded = true
		s.Message = ""
		s.View = ViewTable
		s.Table = dashboard.Render(s.Schema(), s.Rows)
		return s, nil

	case LoadFailed:
		if !s.Current(ev.Query) {
			return s, nil
		}
		s.View = ViewError
		s.Message = ev.Message
		return s, nil

	case StatusResolved:
		s.Status = ev.Status
		var act poll.Action
		s.Poll, act = s.Poll.Observe(ev.Status.MarketOpen)
		if act == poll.StartRefresh {
			return s, []Effect{ScheduleRefreshTick{Gen: s.Poll.Gen}}
		}
		// A stopped timer needs no effect: its pending tick fails Live.
		return s, nil

	case StatusFailed:
		return s, nil

	case ExportRequested:
		f, ok, err := export.Export(s.Table)
		switch {
		case err != nil:
			s.Notice = fmt.Sprintf("export failed: %v", err)
			return s, nil
		case !ok:
			s.Notice = "nothing to export"
			return s, nil
		}
		return s, []Effect{SaveExport{File: f}}

	case ExportSaved:
		if ev.Err != nil {
			s.Notice = fmt.Sprintf("export failed: %v", ev.Err)
		} else {
			s.Notice = "saved " + ev.Path
		}
		return s, nil
	}
	return s, nil
}

// reload points the state at the query for the current timeframe and date
// range and requests it with the loading placeholder shown.
func (s State) reload() (State, []Effect) {
	s.Query = feed.Query(s.Timeframe, s.Start, s.End)
	s.View = ViewLoading
	return s, []Effect{LoadData{Query: s.Query}}
}

// rerender rebuilds the table from the last rows when they belong to the
// active timeframe.
func (s *State) rerender() {
	if !s.Loaded || s.RowsQuery.Timeframe != s.Timeframe {
		return
	}
	s.Table = dashboard.Render(s.Schema(), s.Rows)
	if s.View == ViewError {
		s.View = ViewTable
		s.Message = ""
	}
}
