// Package selection implements the cursor/selection state that tracks a
// position into the current LineBuffer's body. Indices are preserved by
// numeric value across buffer replacements, then clamped/pruned by
// Reconcile — selection is by index, not by line identity.
package selection

// Model is the cursor index and set of selected body-line indices.
// The zero value (Cursor == nil, Selected == nil) is a valid "no buffer yet"
// state.
type Model struct {
	Cursor   *int
	Selected map[int]struct{}
}

// New returns an empty Model.
func New() Model {
	return Model{Selected: make(map[int]struct{})}
}

func clampedCursor(i, n int) *int {
	if n == 0 {
		return nil
	}
	if i < 0 {
		i = 0
	}
	if i > n-1 {
		i = n - 1
	}
	return &i
}

// CursorDown moves the cursor down by k (k>=1), saturating at n-1. No-op if
// n == 0.
func (m *Model) CursorDown(k, n int) {
	if n == 0 {
		m.Cursor = nil
		return
	}
	cur := 0
	if m.Cursor != nil {
		cur = *m.Cursor
	}
	m.Cursor = clampedCursor(cur+k, n)
}

// CursorUp moves the cursor up by k (k>=1), saturating at 0. No-op if n == 0.
func (m *Model) CursorUp(k, n int) {
	if n == 0 {
		m.Cursor = nil
		return
	}
	cur := 0
	if m.Cursor != nil {
		cur = *m.Cursor
	}
	m.Cursor = clampedCursor(cur-k, n)
}

// CursorFirst moves the cursor to index 0, or clears it if n == 0.
func (m *Model) CursorFirst(n int) {
	m.Cursor = clampedCursor(0, n)
}

// CursorLast moves the cursor to index n-1, or clears it if n == 0.
func (m *Model) CursorLast(n int) {
	m.Cursor = clampedCursor(n-1, n)
}

func (m *Model) ensureSelected() {
	if m.Selected == nil {
		m.Selected = make(map[int]struct{})
	}
}

// Select marks the current cursor line as selected. No-op if cursor is nil.
func (m *Model) Select() {
	if m.Cursor == nil {
		return
	}
	m.ensureSelected()
	m.Selected[*m.Cursor] = struct{}{}
}

// Unselect clears the current cursor line's selection. No-op if cursor is
// nil.
func (m *Model) Unselect() {
	if m.Cursor == nil {
		return
	}
	delete(m.Selected, *m.Cursor)
}

// Toggle flips the current cursor line's selection. No-op if cursor is nil.
func (m *Model) Toggle() {
	if m.Cursor == nil {
		return
	}
	m.ensureSelected()
	if _, ok := m.Selected[*m.Cursor]; ok {
		delete(m.Selected, *m.Cursor)
	} else {
		m.Selected[*m.Cursor] = struct{}{}
	}
}

// SelectAll marks every index in [0, n) as selected.
func (m *Model) SelectAll(n int) {
	sel := make(map[int]struct{}, n)
	for i := 0; i < n; i++ {
		sel[i] = struct{}{}
	}
	m.Selected = sel
}

// UnselectAll clears the selection entirely.
func (m *Model) UnselectAll() {
	m.Selected = make(map[int]struct{})
}

// IsSelected reports whether i is currently selected.
func (m *Model) IsSelected(i int) bool {
	_, ok := m.Selected[i]
	return ok
}

// Reconcile clamps the cursor into [0, newN) (or nil if newN == 0) and prunes
// the selected set to indices below newN. Called on every buffer
// replacement. A nil cursor is calibrated to 0 the first time newN > 0, so
// operations like select and toggle-selection are live as soon as a buffer
// exists rather than waiting for the first cursor movement.
func (m *Model) Reconcile(newN int) {
	if m.Cursor != nil {
		m.Cursor = clampedCursor(*m.Cursor, newN)
	} else if newN > 0 {
		m.Cursor = clampedCursor(0, newN)
	}
	if newN == 0 {
		m.Selected = make(map[int]struct{})
		return
	}
	pruned := make(map[int]struct{}, len(m.Selected))
	for i := range m.Selected {
		if i < newN {
			pruned[i] = struct{}{}
		}
	}
	m.Selected = pruned
}
