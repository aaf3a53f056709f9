package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"niftydash/internal/dashboard"
	"niftydash/internal/domain"
	"niftydash/internal/poll"
)

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), m.viewport.View())
	return m.renderHeader() + "\n" + m.renderDates() + "\n" + body + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	var b strings.Builder
	b.WriteString(" NIFTY 50 ")
	for i, tf := range domain.Timeframes {
		label := fmt.Sprintf(" %d:%s ", i+1, tf)
		if tf == m.state.Timeframe {
			b.WriteString(activeTFStyle.Render(label))
		} else {
			b.WriteString(headerBarStyle.Render(label))
		}
	}

	market := " market: " + m.state.Poll.State.String() + " "
	switch m.state.Poll.State {
	case poll.Open:
		b.WriteString(marketOpenStyle.Render(market))
	case poll.Closed:
		b.WriteString(marketShutStyle.Render(market))
	default:
		b.WriteString(headerBarStyle.Render(market))
	}

	info := ""
	if m.state.Status.CurrentTime != "" {
		info += "  " + m.state.Status.CurrentTime + " IST"
	}
	switch {
	case m.state.Poll.State == poll.Closed && m.state.Status.NextOpen != "":
		info += "  opens " + m.state.Status.NextOpen
	case m.state.Poll.State == poll.Open && m.state.Status.NextClose != "":
		info += "  closes " + m.state.Status.NextClose
	}
	if !m.lastStatus.IsZero() {
		info += "  checked " + m.lastStatus.Format("15:04:05")
	}
	if m.state.Loaded {
		sum := dashboard.Summarize(m.state.Rows)
		info += fmt.Sprintf("  rows: %s  call/put/side: %d/%d/%d",
			dashboard.FormatInt(sum.Rows), sum.Calls, sum.Puts, sum.Sideways)
		if sum.Change != 0 {
			info += "  chg: " + dashboard.FormatChange(sum.Change)
		}
	}

	line := b.String()
	pad := m.width - lipgloss.Width(line)
	if pad < 0 {
		pad = 0
	}
	return line + headerBarStyle.Render(dashboard.PadOrTrunc(info, pad))
}

func (m Model) renderDates() string {
	start, end := m.state.Start, m.state.End
	if start == "" {
		start = "--"
	}
	if end == "" {
		end = "--"
	}
	switch m.editing {
	case editStart:
		start = m.input.View()
	case editEnd:
		end = m.input.View()
	}
	return dimStyle.Render(" start: ") + start + dimStyle.Render("   end: ") + end
}

// sidebarLines returns every sidebar line, the index of the cursor line and
// the index of the header of the cursor's group.
func (m Model) sidebarLines() (lines []string, cursorLine, headerLine int) {
	row := 0
	for _, g := range m.state.Catalogue.VisibleGroups(m.state.Timeframe) {
		header := len(lines)
		lines = append(lines, groupStyle.Render(dashboard.PadOrTrunc(" "+g.Name, sidebarWidth)))
		for _, ind := range g.Indicators {
			mark := "[ ]"
			if m.state.Selection.Has(ind.ID) {
				mark = "[x]"
			}
			text := dashboard.PadOrTrunc(fmt.Sprintf(" %s %s", mark, ind.Label), sidebarWidth)
			if row == m.cursor {
				text = cursorStyle.Render(text)
				cursorLine, headerLine = len(lines), header
			}
			lines = append(lines, text)
			row++
		}
	}
	return lines, cursorLine, headerLine
}

// renderSidebar draws the window of sidebar lines starting at sidebarTop.
func (m Model) renderSidebar() string {
	lines, _, _ := m.sidebarLines()
	top := min(m.sidebarTop, len(lines))
	bottom := min(top+m.viewport.Height, len(lines))
	return lipgloss.NewStyle().Width(sidebarWidth).Render(strings.Join(lines[top:bottom], "\n"))
}

func (m Model) renderFooter() string {
	left := " q quit  1-5/tab timeframe  up/dn+space indicator  s/e dates  r refresh  x export"
	if m.editing != editNone {
		left = " enter apply  esc cancel  (empty clears the bound)"
	}
	right := m.state.Notice
	if right != "" {
		right += " "
	} else {
		right = fmt.Sprintf("%.0f%% ", m.viewport.ScrollPercent()*100)
	}
	gap := m.width - len(left) - len(right)
	if gap < 0 {
		gap = 0
	}
	return footerBarStyle.Render(dashboard.PadOrTrunc(left+strings.Repeat(" ", gap)+right, m.width))
}

// renderContent draws the table area.
func (m Model) renderContent() string {
	if text := m.state.Display(); text != "" {
		return dimStyle.Render("  " + text)
	}
	return RenderTable(m.state.Table)
}

// RenderTable draws a rendered table as fixed-width text lines.
func RenderTable(t dashboard.Table) string {
	var b strings.Builder
	writeLine(&b, t.Header, func(dashboard.Cell) string { return "header" })
	for _, line := range t.Rows {
		b.WriteString("\n")
		writeLine(&b, line, func(c dashboard.Cell) string { return c.Class })
	}
	if t.Empty() && t.Placeholder != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("  " + t.Placeholder))
	}
	return b.String()
}

func writeLine(b *strings.Builder, line dashboard.Line, class func(dashboard.Cell) string) {
	for i, c := range line.Cells {
		w := line.Layout[i]
		text := dashboard.PadOrTrunc(" "+c.Text, w)
		switch cls := class(c); cls {
		case "header":
			b.WriteString(colHeaderStyle.Render(text))
		case dashboard.SignalCall, dashboard.SignalPut, dashboard.SignalSideways:
			// Only the signal text is highlighted, not the padding.
			label := c.Text
			if len([]rune(label)) > w-1 {
				label = dashboard.PadOrTrunc(label, w-1)
			}
			b.WriteString(" ")
			b.WriteString(classStyle(cls).Render(label))
			b.WriteString(strings.Repeat(" ", w-1-len([]rune(label))))
		default:
			b.WriteString(classStyle(cls).Render(text))
		}
	}
}
