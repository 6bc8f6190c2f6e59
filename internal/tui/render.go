package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/watchbind/watchbind/internal/format"
	"github.com/watchbind/watchbind/internal/keymap"
	"github.com/watchbind/watchbind/internal/linebuffer"
	"github.com/watchbind/watchbind/internal/selection"
)

const selectionIndicator = "> "
const noSelectionIndicator = "  "

// Render is the pure function from the current model state to a frame,
// per spec.md §4.10: scroll-to-show-cursor, header rows, per-body-row
// selection/cursor styling, and the help overlay when visible.
func Render(buf linebuffer.Buffer, fmtCfg format.Config, sel selection.Model, style StyleConfig, km keymap.Map, helpVisible bool, width, height int) string {
	headerRaw := make([]string, len(buf.Header))
	for i, l := range buf.Header {
		headerRaw[i] = l.Raw
	}
	bodyRaw := make([]string, len(buf.Body))
	for i, l := range buf.Body {
		bodyRaw[i] = l.Raw
	}

	headerLines := format.Format(fmtCfg, headerRaw)

	bodyHeight := height - len(headerLines)
	if bodyHeight < 0 {
		bodyHeight = 0
	}

	start, end := scrollWindow(sel.Cursor, len(bodyRaw), bodyHeight)
	// Format only the visible window so elastic-tabstop column widths are
	// computed over what's on screen, not the whole buffer (spec.md §4.5,
	// §9).
	windowLines := format.Format(fmtCfg, bodyRaw[start:end])

	var b strings.Builder
	for _, h := range headerLines {
		b.WriteString(renderRow(h, style.Header, width))
		b.WriteByte('\n')
	}
	for i := start; i < end; i++ {
		isCursor := sel.Cursor != nil && *sel.Cursor == i
		rowStyle := style.NonCursorNonHeader
		if isCursor {
			rowStyle = style.Cursor
		}
		prefix := noSelectionIndicator
		if sel.IsSelected(i) {
			prefix = selectionIndicator
			if rowStyle.BG == AttrUnspecified || rowStyle.BG == "" {
				rowStyle.BG = style.SelectedBG
			}
		}
		b.WriteString(renderRow(prefix+windowLines[i-start], rowStyle, width))
		b.WriteByte('\n')
	}

	frame := strings.TrimSuffix(b.String(), "\n")
	if helpVisible {
		return overlayHelp(frame, km.HelpEntries(), width, height)
	}
	return frame
}

func renderRow(content string, rs RowStyle, width int) string {
	base := lipgloss.NewStyle()
	if width > 0 {
		base = base.Width(width)
	}
	return rs.apply(base).Render(content)
}

// scrollWindow returns the [start, end) body-index range to display, moving
// the window by the minimum amount needed to keep the cursor visible.
func scrollWindow(cursor *int, n, height int) (int, int) {
	if height <= 0 || n == 0 {
		return 0, 0
	}
	if n <= height {
		return 0, n
	}
	cur := 0
	if cursor != nil {
		cur = *cursor
	}
	start := 0
	if cur >= height {
		start = cur - height + 1
	}
	if start > n-height {
		start = n - height
	}
	if start < 0 {
		start = 0
	}
	return start, start + height
}
