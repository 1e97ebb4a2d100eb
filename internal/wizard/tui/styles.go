package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/signflow/internal/version"
)

// Application branding constants
const (
	AppName   = "SIGNFLOW DOCUMENT WIZARD"
	GitHubURL = "github.com/muurk/signflow"
)

// AppVersion returns the application version from the centralized version package
func AppVersion() string {
	return version.Version
}

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 72
	MaxContentWidth  = 120
	defaultWidth     = 80
	defaultHeight    = 24
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF5555") // Red

	TextColor      = lipgloss.Color("#FFFFFF")
	SubtleColor    = lipgloss.Color("#626262")
	BorderColor    = lipgloss.Color("#7D56F4")
	HighlightColor = lipgloss.Color("#43BF6D")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			Padding(1, 0).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	MenuItemStyle = lipgloss.NewStyle().
			PaddingLeft(4).
			Foreground(TextColor)

	SelectedMenuItemStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Foreground(HighlightColor).
				Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ErrorColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SecondaryColor)

	InfoBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 2)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	// Step trail
	StepDoneStyle    = lipgloss.NewStyle().Foreground(SecondaryColor)
	StepCurrentStyle = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true).Underline(true)
	StepPendingStyle = lipgloss.NewStyle().Foreground(SubtleColor)

	// IssueStyle is for a blocking gate issue; the selected one is highlighted
	IssueStyle         = lipgloss.NewStyle().Foreground(ErrorColor).PaddingLeft(2)
	SelectedIssueStyle = lipgloss.NewStyle().Foreground(WarningColor).Bold(true)

	HubStatusStyle = lipgloss.NewStyle().Foreground(SubtleColor).Italic(true)
)

// RenderTitle renders a title with consistent styling
func RenderTitle(text string) string {
	return TitleStyle.Render(text)
}

// RenderSubtitle renders a subtitle with consistent styling
func RenderSubtitle(text string) string {
	return SubtitleStyle.Render(text)
}

// RenderMenuItem renders a menu item with selection indicator
func RenderMenuItem(text string, selected bool) string {
	if selected {
		return SelectedMenuItemStyle.Render("→ " + text)
	}
	return MenuItemStyle.Render("  " + text)
}

// RenderError renders an error message
func RenderError(text string) string {
	return ErrorStyle.Render("✗ " + text)
}

// RenderSuccess renders a success message
func RenderSuccess(text string) string {
	return SuccessStyle.Render("✓ " + text)
}

// RenderInfo renders an info box
func RenderInfo(text string) string {
	return InfoBoxStyle.Render(text)
}

// BuildHeaderContent creates the header line: app name, version and the
// hub connection state
func BuildHeaderContent(hubStatus string) string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " v" + AppVersion())

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(GitHubURL)
	if hubStatus != "" {
		right = HubStatusStyle.Render(hubStatus)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// RenderApplicationContainer wraps every screen: header, content and a
// footer with context-sensitive help, filling the terminal. Zero sizes
// (before the first WindowSizeMsg) fall back to 80x24.
func RenderApplicationContainer(content, footerText, hubStatus string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= 0 {
		terminalWidth = defaultWidth
	}
	if terminalHeight <= 0 {
		terminalHeight = defaultHeight
	}

	header := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4).
		Padding(0, 1).
		Render(BuildHeaderContent(hubStatus))

	footer := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4).
		Padding(0, 1).
		Render(lipgloss.NewStyle().Foreground(SubtleColor).Render(footerText))

	body := lipgloss.NewStyle().Width(terminalWidth - 4).Render(content)

	bordered := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(terminalWidth - 2).
		Height(terminalHeight - 2).
		AlignVertical(lipgloss.Top).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, body, footer))

	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Left, lipgloss.Top, bordered)
}

// SafeModalWidth returns requestedWidth capped to the terminal
func SafeModalWidth(requestedWidth, terminalWidth int) int {
	maxWidth := terminalWidth - 4
	if maxWidth < 40 {
		maxWidth = 40
	}
	if requestedWidth < maxWidth {
		return requestedWidth
	}
	return maxWidth
}

// RenderModal centers modalContent over a dimmed background. Used for the
// menu and the overlay views (help, settings, invite, ...).
func RenderModal(modalContent string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= 0 {
		terminalWidth = defaultWidth
	}
	if terminalHeight <= 0 {
		terminalHeight = defaultHeight
	}
	return lipgloss.Place(
		terminalWidth,
		terminalHeight,
		lipgloss.Center,
		lipgloss.Center,
		modalContent,
		lipgloss.WithWhitespaceChars("░"),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("240")),
	)
}

// modalBox is the bordered box used inside RenderModal
func modalBox(width, terminalWidth int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(1, 2).
		Width(SafeModalWidth(width, terminalWidth))
}
