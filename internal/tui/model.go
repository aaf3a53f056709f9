// Package tui is the terminal front end. It feeds key presses, timer ticks
// and network responses into app.Update and runs the returned effects as
// bubbletea commands.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"niftydash/internal/app"
	"niftydash/internal/domain"
	"niftydash/internal/export"
	"niftydash/internal/feed"
	"niftydash/internal/poll"
	"niftydash/internal/schema"
)

const sidebarWidth = 26

// Options configures a Model.
type Options struct {
	Catalogue       schema.Catalogue
	Timeframe       domain.Timeframe
	ExportDir       string
	StatusInterval  time.Duration
	RefreshInterval time.Duration
	RequestTimeout  time.Duration
}

// dateField identifies which date input is being edited.
type dateField int

const (
	editNone dateField = iota
	editStart
	editEnd
)

// Model is the bubbletea model.
type Model struct {
	state  app.State
	loader *feed.Loader
	opts   Options
	logger *slog.Logger

	viewport      viewport.Model
	input         textinput.Model
	editing       dateField
	cursor        int
	sidebarTop    int
	ready         bool
	width, height int
	lastStatus    time.Time
}

// New creates the model. Zero intervals fall back to the defaults.
func New(loader *feed.Loader, opts Options, logger *slog.Logger) Model {
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = poll.StatusInterval
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = poll.RefreshInterval
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.Timeframe == "" {
		opts.Timeframe = domain.Timeframe1d
	}

	ti := textinput.New()
	ti.Placeholder = "YYYY-MM-DD"
	ti.CharLimit = 10
	ti.Width = 12

	return Model{
		state:  app.New(opts.Catalogue, opts.Timeframe),
		loader: loader,
		opts:   opts,
		logger: logger,
		input:  ti,
	}
}

// State exposes the current application state.
func (m Model) State() app.State { return m.state }

// Init issues the first load and status poll. New already holds the
// loading view, so the returned state is not needed.
func (m Model) Init() tea.Cmd {
	_, effects := app.Start(m.state)
	return m.run(effects)
}

// dispatch feeds ev through app.Update and returns the commands for the
// resulting effects.
func (m *Model) dispatch(ev app.Event) tea.Cmd {
	switch ev := ev.(type) {
	case app.DataLoaded:
		if !m.state.Current(ev.Query) {
			m.logger.Info("dropping stale response", "timeframe", ev.Query.Timeframe, "rows", len(ev.Rows))
		}
	case app.LoadFailed:
		if !m.state.Current(ev.Query) {
			m.logger.Info("dropping stale failure", "timeframe", ev.Query.Timeframe, "message", ev.Message)
		}
	case app.StatusResolved:
		m.lastStatus = time.Now()
	case app.StatusFailed:
		m.logger.Warn("fetching status", "error", ev.Err)
	}

	var effects []app.Effect
	m.state, effects = app.Update(m.state, ev)
	m.clampCursor()
	m.followCursor()
	m.refreshContent()
	return m.run(effects)
}

func (m Model) run(effects []app.Effect) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(effects))
	for _, e := range effects {
		if cmd := m.command(e); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

func (m Model) command(e app.Effect) tea.Cmd {
	switch e := e.(type) {
	case app.LoadData:
		loader, timeout := m.loader, m.opts.RequestTimeout
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			rows, err := loader.Load(ctx, e.Query)
			if err != nil {
				var le *feed.LoadError
				if !errors.As(err, &le) {
					le = feed.Describe(err)
				}
				return app.LoadFailed{Query: e.Query, Message: le.Message, Silent: e.Silent}
			}
			return app.DataLoaded{Query: e.Query, Rows: rows, Silent: e.Silent}
		}
	case app.FetchStatus:
		loader, timeout := m.loader, m.opts.RequestTimeout
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			st, err := loader.Status(ctx)
			if err != nil {
				return app.StatusFailed{Err: err}
			}
			return app.StatusResolved{Status: st}
		}
	case app.ScheduleStatusTick:
		return tea.Tick(m.opts.StatusInterval, func(time.Time) tea.Msg {
			return app.StatusTick{}
		})
	case app.ScheduleRefreshTick:
		gen := e.Gen
		return tea.Tick(m.opts.RefreshInterval, func(time.Time) tea.Msg {
			return app.RefreshTick{Gen: gen}
		})
	case app.SaveExport:
		dir, f := m.opts.ExportDir, e.File
		return func() tea.Msg {
			path, err := export.Save(dir, f)
			return app.ExportSaved{Path: path, Err: err}
		}
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing != editNone {
			return m.updateDateInput(msg)
		}
		return m.updateKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h := m.height - 3
		if h < 1 {
			h = 1
		}
		w := m.width - sidebarWidth
		if w < 1 {
			w = 1
		}
		if !m.ready {
			m.viewport = viewport.New(w, h)
			m.ready = true
		} else {
			m.viewport.Width = w
			m.viewport.Height = h
		}
		m.followCursor()
		m.refreshContent()
		return m, nil

	case app.Event:
		cmd := m.dispatch(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "1", "2", "3", "4", "5":
		tf := domain.Timeframes[int(key[0]-'1')]
		cmd := m.dispatch(app.TimeframeChanged{Timeframe: tf})
		return m, cmd
	case "tab", "shift+tab":
		step := 1
		if key == "shift+tab" {
			step = len(domain.Timeframes) - 1
		}
		idx := timeframeIndex(m.state.Timeframe)
		tf := domain.Timeframes[(idx+step)%len(domain.Timeframes)]
		cmd := m.dispatch(app.TimeframeChanged{Timeframe: tf})
		return m, cmd
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.followCursor()
		return m, nil
	case "down", "j":
		if m.cursor < len(m.indicators())-1 {
			m.cursor++
		}
		m.followCursor()
		return m, nil
	case " ", "space":
		inds := m.indicators()
		if len(inds) == 0 {
			return m, nil
		}
		cmd := m.dispatch(app.IndicatorToggled{ID: inds[m.cursor].ID})
		return m, cmd
	case "s":
		return m.beginEdit(editStart, m.state.Start)
	case "e":
		return m.beginEdit(editEnd, m.state.End)
	case "r":
		cmd := m.dispatch(app.ManualRefresh{})
		return m, cmd
	case "x":
		cmd := m.dispatch(app.ExportRequested{})
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) beginEdit(field dateField, value string) (tea.Model, tea.Cmd) {
	m.editing = field
	m.input.SetValue(value)
	m.input.CursorEnd()
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) updateDateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = editNone
		m.input.Blur()
		return m, nil
	case "enter":
		value := m.input.Value()
		if value != "" {
			if _, err := time.Parse("2006-01-02", value); err != nil {
				cmd := m.dispatch(app.DateRejected{Value: value})
				return m, cmd
			}
		}
		start, end := m.state.Start, m.state.End
		if m.editing == editStart {
			start = value
		} else {
			end = value
		}
		m.editing = editNone
		m.input.Blur()
		cmd := m.dispatch(app.DateRangeChanged{Start: start, End: end})
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) indicators() []schema.Indicator {
	return m.state.Catalogue.VisibleIndicators(m.state.Timeframe)
}

func (m *Model) clampCursor() {
	n := len(m.indicators())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// followCursor scrolls the sidebar so the cursor line is visible, keeping
// its group header in view when there is room.
func (m *Model) followCursor() {
	lines, cur, header := m.sidebarLines()
	h := m.viewport.Height
	if h < 1 {
		m.sidebarTop = 0
		return
	}
	if cur < m.sidebarTop {
		m.sidebarTop = cur
		if cur-header < h {
			m.sidebarTop = header
		}
	}
	if cur >= m.sidebarTop+h {
		m.sidebarTop = cur - h + 1
	}
	if maxTop := len(lines) - h; m.sidebarTop > maxTop {
		m.sidebarTop = maxTop
	}
	if m.sidebarTop < 0 {
		m.sidebarTop = 0
	}
}

func (m *Model) refreshContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderContent())
}

func timeframeIndex(tf domain.Timeframe) int {
	for i, t := range domain.Timeframes {
		if t == tf {
			return i
		}
	}
	return 0
}
