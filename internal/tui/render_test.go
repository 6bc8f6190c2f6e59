package tui

import (
	"strings"
	"testing"

	"github.com/watchbind/watchbind/internal/format"
	"github.com/watchbind/watchbind/internal/keymap"
	"github.com/watchbind/watchbind/internal/linebuffer"
	"github.com/watchbind/watchbind/internal/selection"
)

func testBuffer(lines ...string) linebuffer.Buffer {
	body := make([]linebuffer.Line, len(lines))
	for i, l := range lines {
		body[i] = linebuffer.Line{Raw: l}
	}
	return linebuffer.Buffer{Body: body}
}

func TestRenderShowsSelectionIndicator(t *testing.T) {
	buf := testBuffer("a", "b", "c")
	sel := selection.New()
	sel.Select() // no-op: cursor is nil
	sel.CursorDown(1, buf.Len())
	sel.Select()

	out := Render(buf, format.Config{}, sel, DefaultStyleConfig(), keymap.New(), false, 80, 10)
	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[1], selectionIndicator) {
		t.Fatalf("expected line 1 (cursor+selected) to start with %q, got %q", selectionIndicator, lines[1])
	}
	if !strings.HasPrefix(lines[0], noSelectionIndicator) {
		t.Fatalf("expected line 0 (unselected) to start with %q, got %q", noSelectionIndicator, lines[0])
	}
}

func TestRenderScrollsToKeepCursorVisible(t *testing.T) {
	lines := make([]string, 20)
	for i := range lines {
		lines[i] = strings.Repeat("x", 1) + string(rune('a'+i))
	}
	buf := testBuffer(lines...)
	sel := selection.New()
	sel.CursorLast(buf.Len())

	out := Render(buf, format.Config{}, sel, DefaultStyleConfig(), keymap.New(), false, 80, 5)
	got := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(got) != 5 {
		t.Fatalf("len(lines) = %d, want 5 (height-bounded window)", len(got))
	}
	if !strings.Contains(got[len(got)-1], "t") {
		t.Fatalf("expected the last visible row to contain the cursor row, got %q", got[len(got)-1])
	}
}

func TestRenderAlignsColumnsOverVisibleWindowOnly(t *testing.T) {
	// A long off-screen value would widen the column for every row if
	// alignment ran over the whole buffer instead of just what's visible.
	buf := testBuffer("a|1", "b|2", "reallylongvalue|3")
	sel := selection.New()
	sel.CursorFirst(buf.Len())

	fmtCfg := format.Config{Separator: "|"}
	out := Render(buf, fmtCfg, sel, DefaultStyleConfig(), keymap.New(), false, 80, 2)
	got := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(got) != 2 {
		t.Fatalf("len(lines) = %d, want 2 (height-bounded window)", len(got))
	}
	if strings.Contains(got[0], "reallylongvalue") {
		t.Fatalf("row 0 should not see the off-screen row's content: %q", got[0])
	}
	// renderRow pads every row to the frame width; compare without that padding.
	if want := noSelectionIndicator + "a|1"; strings.TrimRight(got[0], " ") != want {
		t.Fatalf("row 0 = %q, want %q (column widths sized to the visible window only)", got[0], want)
	}
}

func TestRenderHelpOverlayHidesWhenNotVisible(t *testing.T) {
	buf := testBuffer("a")
	sel := selection.New()
	km := keymap.Default()

	out := Render(buf, format.Config{}, sel, DefaultStyleConfig(), km, false, 40, 10)
	if strings.Contains(out, "exit") {
		t.Fatalf("did not expect help text when helpVisible is false")
	}
}

func TestRenderHelpOverlayShowsBindingDescriptions(t *testing.T) {
	buf := testBuffer("a")
	sel := selection.New()
	km := keymap.New()
	if err := km.ParseBindCLI("q:exit"); err != nil {
		t.Fatalf("ParseBindCLI: %v", err)
	}

	out := Render(buf, format.Config{}, sel, DefaultStyleConfig(), km, true, 40, 10)
	if !strings.Contains(out, "exit") {
		t.Fatalf("expected the help overlay to render the \"exit\" operation, got:\n%s", out)
	}
}

func TestScrollWindowNoScrollWhenEverythingFits(t *testing.T) {
	start, end := scrollWindow(nil, 3, 10)
	if start != 0 || end != 3 {
		t.Fatalf("scrollWindow(nil, 3, 10) = (%d, %d), want (0, 3)", start, end)
	}
}

func TestScrollWindowTracksCursorNearEnd(t *testing.T) {
	cur := 19
	start, end := scrollWindow(&cur, 20, 5)
	if end != 20 || start != 15 {
		t.Fatalf("scrollWindow(19, 20, 5) = (%d, %d), want (15, 20)", start, end)
	}
}
