package keymap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/watchbind/watchbind/internal/operation"
)

// Binding is one keybinding: the parsed operation sequence plus an optional
// human-readable description shown in the help overlay.
type Binding struct {
	Description string
	Ops         []operation.Op
}

// Map is the flat KeyChord -> Binding dispatch table. Lookup is O(1).
type Map map[KeyChord]Binding

// New returns an empty Map.
func New() Map {
	return make(Map)
}

// ParseBindCLI parses one repeated --bind value, "KEY:OP[+OP]*[,KEY:OP...]*",
// and merges it into m. Within this single call, a later KEY overrides an
// earlier one (last write wins within one source).
func (m Map) ParseBindCLI(s string) error {
	for _, clause := range strings.Split(s, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		keyStr, opsStr, ok := strings.Cut(clause, ":")
		if !ok {
			return fmt.Errorf("keymap: invalid binding %q: expected \"KEY:OP[+OP]*\"", clause)
		}
		key, err := ParseKey(strings.TrimSpace(keyStr))
		if err != nil {
			return fmt.Errorf("keymap: %w", err)
		}
		ops, err := operation.ParseSequence(opsStr)
		if err != nil {
			return fmt.Errorf("keymap: binding %q: %w", clause, err)
		}
		m[key] = Binding{Ops: ops}
	}
	return nil
}

// TOMLValue is the decoded shape of one [keybindings] table entry: either a
// single operation string, an array of "+"-free operation strings (rejoined
// with "+"), or a table with description/operations.
type TOMLValue struct {
	Single      string
	Operations  []string
	Description string
}

// SetFromTOML parses one "KEY" = value entry from the [keybindings] table
// and writes it into m, overwriting any existing binding for that key.
func (m Map) SetFromTOML(key string, v TOMLValue) error {
	chord, err := ParseKey(key)
	if err != nil {
		return fmt.Errorf("keymap: %w", err)
	}

	var seq string
	switch {
	case len(v.Operations) > 0:
		seq = strings.Join(v.Operations, "+")
	case v.Single != "":
		seq = v.Single
	default:
		return fmt.Errorf("keymap: key %q has no operations", key)
	}

	ops, err := operation.ParseSequence(seq)
	if err != nil {
		return fmt.Errorf("keymap: key %q: %w", key, err)
	}
	m[chord] = Binding{Description: v.Description, Ops: ops}
	return nil
}

// Merge overwrites m's bindings with every binding present in other,
// implementing "last write wins" across sources in CLI > local > global >
// defaults precedence order (the caller merges in reverse-precedence order,
// lowest precedence first, so that later merges win).
func (m Map) Merge(other Map) {
	for k, v := range other {
		m[k] = v
	}
}

// Lookup returns the Binding for chord, if any.
func (m Map) Lookup(chord KeyChord) (Binding, bool) {
	b, ok := m[chord]
	return b, ok
}

// HelpEntries returns all bindings sorted by their rendered key string, for
// a stable help-overlay ordering.
func (m Map) HelpEntries() []HelpEntry {
	entries := make([]HelpEntry, 0, len(m))
	for k, b := range m {
		entries = append(entries, HelpEntry{Key: k, Binding: b})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key.String() < entries[j].Key.String()
	})
	return entries
}

// HelpEntry pairs a chord with its binding for help rendering.
type HelpEntry struct {
	Key     KeyChord
	Binding Binding
}

// Describe renders a Binding's description if present, otherwise its
// operation sequence joined by "+".
func (b Binding) Describe() string {
	if b.Description != "" {
		return b.Description
	}
	parts := make([]string, len(b.Ops))
	for i, op := range b.Ops {
		parts[i] = op.String()
	}
	return strings.Join(parts, "+")
}

// Default returns watchbind's built-in keymap, used when no binding at all
// is configured for a given key.
func Default() Map {
	m := New()
	defaults := []string{
		"q:exit",
		"ctrl+c:exit",
		"r:reload",
		"down:cursor down 1",
		"j:cursor down 1",
		"up:cursor up 1",
		"k:cursor up 1",
		"g:cursor first",
		"G:cursor last",
		"space:toggle-selection+cursor down 1",
		"v:toggle-selection",
		"esc:unselect-all",
		"?:help-toggle",
	}
	for _, d := range defaults {
		if err := m.ParseBindCLI(d); err != nil {
			panic(fmt.Sprintf("keymap: invalid built-in default %q: %v", d, err))
		}
	}
	return m
}
