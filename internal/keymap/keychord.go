// Package keymap parses key strings into KeyChords and maintains the flat
// KeyChord -> operation sequence lookup table driving both the CLI-described
// default bindings and the live Bubble Tea key stream.
package keymap

import (
	"fmt"
	"strings"
)

// Modifier is one of the chord modifiers the spec allows.
type Modifier int

const (
	Ctrl Modifier = iota
	Alt
)

func (m Modifier) String() string {
	switch m {
	case Ctrl:
		return "ctrl"
	case Alt:
		return "alt"
	default:
		return "?"
	}
}

// Code names a non-printable key, or holds a single printable rune.
type Code struct {
	Name string // one of the named codes below, or "" if Char is set
	Char rune   // set when Name == ""
}

const (
	Esc       = "esc"
	Enter     = "enter"
	Left      = "left"
	Right     = "right"
	Up        = "up"
	Down      = "down"
	Home      = "home"
	End       = "end"
	PageUp    = "pageup"
	PageDown  = "pagedown"
	BackTab   = "backtab"
	Backspace = "backspace"
	Delete    = "delete"
	Insert    = "insert"
	Space     = "space"
	Tab       = "tab"
)

var namedCodes = map[string]string{
	"esc":       Esc,
	"escape":    Esc,
	"enter":     Enter,
	"return":    Enter,
	"left":      Left,
	"right":     Right,
	"up":        Up,
	"down":      Down,
	"home":      Home,
	"end":       End,
	"pageup":    PageUp,
	"pgup":      PageUp,
	"pagedown":  PageDown,
	"pgdown":    PageDown,
	"backtab":   BackTab,
	"backspace": Backspace,
	"del":       Delete,
	"delete":    Delete,
	"ins":       Insert,
	"insert":    Insert,
	"space":     Space,
	"tab":       Tab,
}

// KeyChord is an immutable, comparable key press: a set of modifiers plus a
// key code. It is used directly as a map key.
type KeyChord struct {
	Ctrl bool
	Alt  bool
	Code Code
}

// ParseKey parses one key string such as "x", "ctrl+c", "alt+ctrl+Delete",
// "f5", or "space" into a KeyChord. Modifier names, named keys and function
// keys are case-insensitive; a single printable character keeps its case
// ("G" and "g" are different chords).
func ParseKey(s string) (KeyChord, error) {
	orig := s
	parts := strings.Split(s, "+")
	if len(parts) == 0 {
		return KeyChord{}, fmt.Errorf("keymap: empty key %q", orig)
	}

	codeStr := parts[len(parts)-1]
	modParts := parts[:len(parts)-1]

	var chord KeyChord
	for _, m := range modParts {
		switch strings.ToLower(strings.TrimSpace(m)) {
		case "ctrl":
			chord.Ctrl = true
		case "alt":
			chord.Alt = true
		default:
			return KeyChord{}, fmt.Errorf("keymap: invalid modifier %q in %q", m, orig)
		}
	}

	code, err := parseCode(codeStr)
	if err != nil {
		return KeyChord{}, fmt.Errorf("keymap: %w in %q", err, orig)
	}
	chord.Code = code
	return chord, nil
}

func parseCode(s string) (Code, error) {
	if s == "" {
		return Code{}, fmt.Errorf("empty key code")
	}
	lower := strings.ToLower(s)

	if n, ok := parseFunctionKey(lower); ok {
		return Code{Name: n}, nil
	}
	if named, ok := namedCodes[lower]; ok {
		return Code{Name: named}, nil
	}
	runes := []rune(s)
	if len(runes) == 1 {
		return Code{Char: runes[0]}, nil
	}
	return Code{}, fmt.Errorf("invalid key code %q", s)
}

func parseFunctionKey(lower string) (string, bool) {
	if len(lower) < 2 || lower[0] != 'f' {
		return "", false
	}
	n := 0
	for _, c := range lower[1:] {
		if c < '0' || c > '9' {
			return "", false
		}
		n = n*10 + int(c-'0')
	}
	if n < 1 || n > 12 {
		return "", false
	}
	return fmt.Sprintf("f%d", n), true
}

// String renders the KeyChord back to its canonical parse form, e.g.
// "ctrl+alt+c", "f5", "space". Modifiers are always rendered ctrl before alt.
func (k KeyChord) String() string {
	var b strings.Builder
	if k.Ctrl {
		b.WriteString("ctrl+")
	}
	if k.Alt {
		b.WriteString("alt+")
	}
	if k.Code.Name != "" {
		b.WriteString(k.Code.Name)
	} else {
		b.WriteRune(k.Code.Char)
	}
	return b.String()
}

// FromTeaKeyString builds a KeyChord from a Bubble Tea tea.KeyMsg.String()
// value, which uses the same "ctrl+alt+x" shape for modified keys and its
// own names for special keys ("esc", "enter", "up", "pgup", ...). Shift is
// folded away for uppercase letters exactly as the original terminal
// library already reports them as distinct runes, matching spec.md's
// KeyChord contract that modifiers are a subset of {Ctrl, Alt} only.
// Bubble Tea renders the space bar as " " and back-tab as "shift+tab";
// both are mapped to the space and backtab codes before parsing.
func FromTeaKeyString(s string) (KeyChord, error) {
	switch {
	case s == " " || strings.HasSuffix(s, "+ "):
		s = strings.TrimSuffix(s, " ") + Space
	case strings.HasSuffix(s, "shift+tab"):
		s = strings.TrimSuffix(s, "shift+tab") + BackTab
	}
	return ParseKey(s)
}
