package ui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	ColorBase   = lipgloss.Color("#171B26")
	ColorMuted  = lipgloss.Color("#7C8494")
	ColorText   = lipgloss.Color("#D8DEE9")
	ColorAccent = lipgloss.Color("#88C0D0")
	ColorGreen  = lipgloss.Color("#a6e3a1")
	ColorRed    = lipgloss.Color("#f38ba8")
	ColorYellow = lipgloss.Color("#f9e2af")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(ColorMuted)

	DayHeaderStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(ColorBase).
				Background(ColorAccent)

	NormalRowStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	DescriptionStyle = lipgloss.NewStyle().
				Foreground(ColorMuted).
				PaddingLeft(4)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Padding(0, 1)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Padding(0, 1)

	PromptStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Padding(0, 1)
)
