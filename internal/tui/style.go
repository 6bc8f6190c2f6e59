package tui

import "github.com/charmbracelet/lipgloss"

// Attr is one configured style attribute. Besides a concrete lipgloss color
// spec (e.g. "205", "#ffcc00"), it may hold one of the two sentinels below.
type Attr string

const (
	// AttrUnspecified means "do not override": whatever ANSI the watched
	// command's own output carries is left alone.
	AttrUnspecified Attr = "unspecified"
	// AttrReset unsets this attribute on the row style. ANSI escape codes
	// embedded in the command's own output are not stripped; they are
	// rendered as the command emitted them.
	AttrReset Attr = "reset"

	// AttrBold/AttrNotBold only apply to RowStyle.Boldness.
	AttrBold    Attr = "true"
	AttrNotBold Attr = "false"
)

// RowStyle is one row class's fg/bg/boldness configuration.
type RowStyle struct {
	FG       Attr
	BG       Attr
	Boldness Attr
}

// StyleConfig is the full set of row styles the Renderer applies, per
// spec.md §4.10.
type StyleConfig struct {
	Cursor             RowStyle
	Header             RowStyle
	NonCursorNonHeader RowStyle
	SelectedBG         Attr
}

// DefaultStyleConfig matches watchbind's built-in look: a highlighted
// cursor row, a dim header, and an unstyled body otherwise.
func DefaultStyleConfig() StyleConfig {
	return StyleConfig{
		Cursor: RowStyle{
			FG:       AttrUnspecified,
			BG:       "237",
			Boldness: AttrBold,
		},
		Header: RowStyle{
			FG:       "241",
			BG:       AttrUnspecified,
			Boldness: AttrBold,
		},
		NonCursorNonHeader: RowStyle{
			FG:       AttrUnspecified,
			BG:       AttrUnspecified,
			Boldness: AttrUnspecified,
		},
		SelectedBG: "54",
	}
}

// apply overlays rs onto base, the row's lipgloss.Style (renderRow passes a
// fresh lipgloss.NewStyle()); base does not carry the ANSI embedded in the
// row's raw content. AttrUnspecified leaves base's corresponding attribute
// untouched; AttrReset unsets it on base; any other value sets it explicitly.
func (rs RowStyle) apply(base lipgloss.Style) lipgloss.Style {
	switch rs.FG {
	case "", AttrUnspecified:
	case AttrReset:
		base = base.UnsetForeground()
	default:
		base = base.Foreground(lipgloss.Color(string(rs.FG)))
	}
	switch rs.BG {
	case "", AttrUnspecified:
	case AttrReset:
		base = base.UnsetBackground()
	default:
		base = base.Background(lipgloss.Color(string(rs.BG)))
	}
	switch rs.Boldness {
	case "", AttrUnspecified:
	case AttrReset, AttrNotBold:
		base = base.Bold(false)
	case AttrBold:
		base = base.Bold(true)
	}
	return base
}

// ParseAttr converts a style-flag value to an Attr. The value is not
// validated: "unspecified", "reset", "true"/"false" and color specs are
// meaningful to RowStyle.apply, and any other string is accepted as is.
func ParseAttr(s string) Attr {
	return Attr(s)
}
