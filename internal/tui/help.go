package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/watchbind/watchbind/internal/keymap"
)

var (
	helpBorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("205")).
		Padding(1, 2)

	helpKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	helpDescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// overlayHelp centers a table of KeyChord -> description over background,
// built the way the teacher's help views compose a bubbles/help table,
// generalized from a fixed key.Binding set to watchbind's runtime KeyMap.
func overlayHelp(background string, entries []keymap.HelpEntry, width, height int) string {
	if len(entries) == 0 {
		return background
	}

	keyWidth := 0
	for _, e := range entries {
		if w := lipgloss.Width(e.Key.String()); w > keyWidth {
			keyWidth = w
		}
	}

	rows := make([]string, len(entries))
	for i, e := range entries {
		key := helpKeyStyle.Width(keyWidth).Render(e.Key.String())
		rows[i] = key + "  " + helpDescStyle.Render(e.Binding.Describe())
	}

	table := helpBorderStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return placeOverlay(centerX(table, width), centerY(table, height), table, background)
}

func centerX(box string, width int) int {
	x := (width - lipgloss.Width(box)) / 2
	if x < 0 {
		return 0
	}
	return x
}

func centerY(box string, height int) int {
	y := (height - lipgloss.Height(box)) / 2
	if y < 0 {
		return 0
	}
	return y
}

// placeOverlay draws fg on top of bg at (x, y), padding bg with blank lines
// and spaces as needed.
func placeOverlay(x, y int, fg, bg string) string {
	bgLines := strings.Split(bg, "\n")
	fgLines := strings.Split(fg, "\n")

	for len(bgLines) < y+len(fgLines) {
		bgLines = append(bgLines, "")
	}

	for i, fgLine := range fgLines {
		idx := y + i
		bgLine := bgLines[idx]
		for lipgloss.Width(bgLine) < x {
			bgLine += " "
		}
		before := truncateToWidth(bgLine, x)
		bgLines[idx] = before + fgLine
	}

	return strings.Join(bgLines, "\n")
}

func truncateToWidth(s string, w int) string {
	if w <= 0 {
		return ""
	}
	var b strings.Builder
	width := 0
	for _, r := range s {
		rw := lipgloss.Width(string(r))
		if width+rw > w {
			break
		}
		b.WriteRune(r)
		width += rw
	}
	return b.String()
}
