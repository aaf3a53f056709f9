package tui

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"niftydash/internal/app"
	"niftydash/internal/dashboard"
	"niftydash/internal/domain"
	"niftydash/internal/feed"
	"niftydash/internal/schema"
	"niftydash/pkg/niftydash"
)

type stubAPI struct {
	open bool
	rows []domain.Row
	err  error
}

func (s *stubAPI) Status(context.Context) (domain.MarketStatus, error) {
	return domain.MarketStatus{MarketOpen: s.open, CurrentTime: "2024-01-02 10:00:00"}, nil
}

func (s *stubAPI) Data(_ context.Context, q domain.Query) (niftydash.DataResponse, error) {
	if s.err != nil {
		return niftydash.DataResponse{}, s.err
	}
	return niftydash.DataResponse{Timeframe: q.Timeframe, Rows: s.rows}, nil
}

func newTestModel(t *testing.T, api *stubAPI) Model {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := New(feed.NewLoader(api, logger), Options{
		Catalogue: schema.DefaultCatalogue(),
		Timeframe: domain.Timeframe1d,
		ExportDir: t.TempDir(),
	}, logger)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	return next.(Model)
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleRows() []domain.Row {
	return []domain.Row{{
		"timestamp": domain.String("2024-01-02 09:15:00"),
		"open":      domain.Number(100),
		"high":      domain.Number(105),
		"low":       domain.Number(99),
		"close":     domain.Number(103),
		"target":    domain.String("CALL"),
	}}
}

func TestLoadCommandProducesDataLoaded(t *testing.T) {
	m := newTestModel(t, &stubAPI{rows: sampleRows()})

	cmd := m.command(app.LoadData{Query: m.state.Query})
	require.NotNil(t, cmd)
	msg := cmd()
	loaded, ok := msg.(app.DataLoaded)
	require.True(t, ok, "got %T", msg)

	m, _ = send(t, m, loaded)
	assert.Equal(t, app.ViewTable, m.State().View)
	content := m.renderContent()
	assert.Contains(t, content, "103.00")
	assert.Contains(t, content, "CALL")
}

func TestLoadCommandProducesFailure(t *testing.T) {
	m := newTestModel(t, &stubAPI{err: &niftydash.APIError{Status: "error", Message: "boom"}})

	msg := m.command(app.LoadData{Query: m.state.Query})()
	failed, ok := msg.(app.LoadFailed)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, "Error: boom", failed.Message)

	m, _ = send(t, m, failed)
	assert.Contains(t, m.renderContent(), "Error: boom")
}

func TestStatusCommand(t *testing.T) {
	m := newTestModel(t, &stubAPI{open: true})
	msg := m.command(app.FetchStatus{})()
	res, ok := msg.(app.StatusResolved)
	require.True(t, ok, "got %T", msg)

	m, cmd := send(t, m, res)
	assert.NotNil(t, cmd, "opening the market schedules a refresh tick")
	assert.True(t, m.State().Poll.Running)
	assert.Contains(t, m.View(), "market: Open")
}

func TestTimeframeKeys(t *testing.T) {
	m := newTestModel(t, &stubAPI{})

	m, cmd := send(t, m, key("2"))
	assert.NotNil(t, cmd)
	assert.Equal(t, domain.Timeframe1h, m.State().Timeframe)
	assert.Equal(t, app.ViewLoading, m.State().View)

	m, _ = send(t, m, key("tab"))
	assert.Equal(t, domain.Timeframe1d, m.State().Timeframe)

	m, _ = send(t, m, key("5"))
	assert.Equal(t, domain.TimeframeFeatures, m.State().Timeframe)
}

func TestToggleIndicatorWithCursor(t *testing.T) {
	m := newTestModel(t, &stubAPI{})
	m, _ = send(t, m, app.DataLoaded{Query: m.state.Query, Rows: sampleRows()})

	// 1d shows Volume first, then the daily group.
	m, _ = send(t, m, key("down"))
	m, _ = send(t, m, key(" "))
	assert.True(t, m.State().Selection.Has("rsi_14"))
	assert.Contains(t, m.renderContent(), "RSI 14")
	assert.Contains(t, m.renderSidebar(), "[x] RSI 14")
}

func TestSidebarFollowsCursorToLastIndicator(t *testing.T) {
	m := newTestModel(t, &stubAPI{})
	m, _ = send(t, m, key("2"))
	require.Equal(t, domain.Timeframe1h, m.State().Timeframe)

	inds := m.indicators()
	require.Greater(t, len(inds)+7, m.viewport.Height, "1h sidebar should overflow the window")
	for range inds {
		m, _ = send(t, m, key("down"))
	}
	m, _ = send(t, m, key(" "))

	last := inds[len(inds)-1]
	assert.Equal(t, len(inds)-1, m.cursor)
	assert.True(t, m.State().Selection.Has(last.ID))

	sidebar := m.renderSidebar()
	assert.Contains(t, sidebar, "[x] "+last.Label)
	assert.LessOrEqual(t, strings.Count(sidebar, "\n")+1, m.viewport.Height)
	assert.NotContains(t, sidebar, "Volume", "top of the list scrolled away")

	// Back to the top restores the first group header.
	for range inds {
		m, _ = send(t, m, key("up"))
	}
	assert.Equal(t, 0, m.cursor)
	assert.Contains(t, m.renderSidebar(), "Volume")
}

func TestSidebarShowsDailyContextOnShortWindow(t *testing.T) {
	m := newTestModel(t, &stubAPI{})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 20})
	m, _ = send(t, m, key("5"))
	require.Equal(t, domain.TimeframeFeatures, m.State().Timeframe)
	assert.NotContains(t, m.renderSidebar(), "Daily Context")

	for range m.indicators() {
		m, _ = send(t, m, key("down"))
	}
	sidebar := m.renderSidebar()
	assert.Contains(t, sidebar, "Daily Context")
	assert.Contains(t, sidebar, "Daily Trend Flag")
}

func TestHeaderShowsNextOpenWhenClosed(t *testing.T) {
	m := newTestModel(t, &stubAPI{})
	m, _ = send(t, m, app.StatusResolved{Status: domain.MarketStatus{
		CurrentTime: "2024-01-20 11:00:00",
		NextOpen:    "2024-01-22 09:15:00",
	}})
	header := m.renderHeader()
	assert.Contains(t, header, "market: Closed")
	assert.Contains(t, header, "opens 2024-01-22 09:15:00")
}

func TestDateEditing(t *testing.T) {
	m := newTestModel(t, &stubAPI{})

	m, _ = send(t, m, key("s"))
	require.Equal(t, editStart, m.editing)
	for _, r := range "2024-01-05" {
		m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, cmd := send(t, m, key("enter"))
	assert.NotNil(t, cmd)
	assert.Equal(t, editNone, m.editing)
	assert.Equal(t, "2024-01-05", m.State().Start)
	assert.Equal(t, "2024-01-05", m.State().Query.Start)

	m, _ = send(t, m, key("e"))
	for _, r := range "bad" {
		m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, _ = send(t, m, key("enter"))
	assert.Equal(t, editEnd, m.editing)
	assert.Contains(t, m.State().Notice, "invalid date")

	m, _ = send(t, m, key("esc"))
	assert.Equal(t, editNone, m.editing)
	assert.Empty(t, m.State().End)
}

func TestExportWritesFile(t *testing.T) {
	m := newTestModel(t, &stubAPI{})
	m, _ = send(t, m, app.DataLoaded{Query: m.state.Query, Rows: sampleRows()})

	m, cmd := send(t, m, key("x"))
	require.NotNil(t, cmd)
	saved, ok := cmd().(app.ExportSaved)
	require.True(t, ok)
	require.NoError(t, saved.Err)
	assert.Equal(t, filepath.Join(m.opts.ExportDir, "nifty50_data_1d.csv"), saved.Path)

	data, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "date,time,open,high,low,close,signal\n"))

	m, _ = send(t, m, saved)
	assert.Contains(t, m.renderFooter(), "saved")
}

func TestRenderTableAlignment(t *testing.T) {
	s := schema.Resolve(schema.DefaultCatalogue(), domain.Timeframe1d, []string{"volume"})
	out := RenderTable(dashboard.Render(s, sampleRows()))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Signal")
	assert.Contains(t, lines[1], "2024-01-02")
	assert.Contains(t, lines[1], " -")
}
