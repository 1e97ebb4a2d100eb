package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm prints a warning box to out and reads one line from in. It returns
// true only when the line equals answer (case-insensitive, surrounding
// whitespace ignored).
func Confirm(in io.Reader, out io.Writer, title string, warnings []string, answer string) bool {
	width := GetTerminalWidth()

	lines := []string{"", WarningTitleStyle.Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, title)), ""}
	bullet := lipgloss.NewStyle().Foreground(TextColor)
	for _, w := range warnings {
		lines = append(lines, bullet.Render("   • "+w))
	}
	lines = append(lines, "")

	_, _ = fmt.Fprintln(out, ResultBoxStyle(width, WarningColor).Render(strings.Join(lines, "\n")))
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, WarningTitleStyle.Render(fmt.Sprintf("To proceed, type %q and press Enter: ", answer)))

	input, err := bufio.NewReader(in).ReadString('\n')
	_, _ = fmt.Fprintln(out)
	if err != nil && input == "" {
		return false
	}

	if strings.EqualFold(strings.TrimSpace(input), answer) {
		return true
	}

	_, _ = fmt.Fprintln(out, lipgloss.NewStyle().Foreground(MutedColor).Render("  Operation cancelled."))
	return false
}

// ConfirmOverwriteConfig asks before `config init --force` replaces an
// existing configuration file
func ConfirmOverwriteConfig(in io.Reader, out io.Writer, path string) bool {
	return Confirm(in, out, "OVERWRITE CONFIGURATION",
		[]string{
			"The existing configuration file will be replaced with defaults",
			"Saved hub nicknames and preferences will be lost",
			"File: " + path,
		},
		"yes",
	)
}
