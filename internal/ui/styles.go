package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#FF8C42")
	muted  = lipgloss.Color("#6B7280")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(muted)

	PromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB84D")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4757")).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB84D")).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(muted)

	BannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)
)
