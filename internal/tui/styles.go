package tui

import (
	"github.com/charmbracelet/lipgloss"

	"niftydash/internal/dashboard"
	"niftydash/internal/schema"
)

// Styles.
var (
	headerBarStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	footerBarStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	colHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	stickyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	cellStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	priceUpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	priceDownStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	callStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10"))
	putStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("9"))
	sidewaysStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	groupStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	cursorStyle     = lipgloss.NewStyle().Background(lipgloss.Color("236"))
	activeTFStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3"))
	marketOpenStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")).Background(lipgloss.Color("4"))
	marketShutStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")).Background(lipgloss.Color("4"))
)

// classStyle maps a cell class to its terminal style.
func classStyle(class string) lipgloss.Style {
	switch class {
	case schema.ClassSticky:
		return stickyStyle
	case dashboard.PriceUp:
		return priceUpStyle
	case dashboard.PriceDown:
		return priceDownStyle
	case dashboard.SignalCall:
		return callStyle
	case dashboard.SignalPut:
		return putStyle
	case dashboard.SignalSideways:
		return sidewaysStyle
	default:
		return cellStyle
	}
}
