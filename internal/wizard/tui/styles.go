package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/wifistat/internal/version"
)

// AppName is shown in the header of every screen.
const AppName = "WIFISTAT PROVISIONING"

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 100
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF0000") // Red
	SubtleColor    = lipgloss.Color("#626262") // Gray
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Width(14)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	SuccessBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SecondaryColor).
			Padding(1, 2)

	ErrorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ErrorColor).
			Padding(1, 2)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningTextStyle = lipgloss.NewStyle().
				Foreground(WarningColor)
)

// header renders the application banner.
func header() string {
	return TitleStyle.Render(AppName) + " " + SubtitleStyle.Render(version.Version)
}

// contentWidth clamps the terminal width to the supported range.
func contentWidth(width int) int {
	return min(max(width, MinTerminalWidth), MaxContentWidth)
}
