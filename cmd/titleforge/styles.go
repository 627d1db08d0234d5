package main

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#FFB3BA")
	muted  = lipgloss.Color("#6B7280")
	mint   = lipgloss.Color("#A8E6CF")

	headerStyle    = lipgloss.NewStyle().Foreground(accent).Bold(true)
	titleStyle     = lipgloss.NewStyle().Foreground(mint).Bold(true)
	rationaleStyle = lipgloss.NewStyle().Foreground(muted).Italic(true).PaddingLeft(3)
	numberStyle    = lipgloss.NewStyle().Foreground(accent).Width(3)
	boxStyle       = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)
)
