package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Underline(true)
	tabStyle         = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder(), true, true, false, true).BorderForeground(lipgloss.Color("240"))
	activeTabStyle   = tabStyle.Bold(true).BorderForeground(lipgloss.Color("39")).Foreground(lipgloss.Color("39"))
	modalStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	alertStyle       = modalStyle.BorderForeground(lipgloss.Color("196"))
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	fieldLabelStyle  = lipgloss.NewStyle().Width(18)
	focusedLabel     = fieldLabelStyle.Bold(true).Foreground(lipgloss.Color("39"))
	emptyBodyMessage = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(1, 2)
)
