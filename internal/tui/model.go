// Package tui assembles the EnvTable, SelectionModel, KeyMap, Executor, and
// Watcher into a single Bubble Tea model: the "EventLoop" of spec.md §4.9.
// Model uses a pointer receiver throughout (unlike the teacher's per-tab
// value-receiver models) because internal/operation.Executor holds back
// references into Model's SelectionModel and EnvTable that must stay valid
// across every Update call rather than following whichever copy Bubble Tea
// last returned.
package tui

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/timer"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/watchbind/watchbind/internal/env"
	"github.com/watchbind/watchbind/internal/format"
	"github.com/watchbind/watchbind/internal/keymap"
	"github.com/watchbind/watchbind/internal/linebuffer"
	"github.com/watchbind/watchbind/internal/operation"
	"github.com/watchbind/watchbind/internal/selection"
	"github.com/watchbind/watchbind/internal/subprocess"
	"github.com/watchbind/watchbind/internal/watcher"
)

// Config assembles everything Model needs at construction. Zero values for
// Interval/HeaderLines/Timeout/MaxCaptureBytes/QueueSize take the Watcher's
// and Executor's own defaults.
type Config struct {
	Command         string
	Interval        time.Duration
	HeaderLines     int
	Timeout         time.Duration
	MaxCaptureBytes int64
	QueueSize       int

	// InitialEnv holds raw "set-env NAME -- CMD[; set-env …]" entries, run in
	// order before the Watcher's first spawn.
	InitialEnv []string
	KeyMap     keymap.Map
	Format     format.Config
	Style      StyleConfig
}

// Model is the top-level tea.Model driving watchbind's TUI.
type Model struct {
	buf linebuffer.Buffer
	sel selection.Model
	env *env.Table
	km  keymap.Map

	exec    *operation.Executor
	watcher *watcher.Watcher

	fmtCfg format.Config
	style  StyleConfig

	helpVisible bool
	width       int
	height      int

	lastErr error
}

// New builds a fully wired Model. Call its Init to start the Watcher.
func New(cfg Config) *Model {
	table := env.New()
	runner := subprocess.NewRunner(cfg.MaxCaptureBytes)
	runInitialEnv(table, runner, cfg.InitialEnv)

	km := cfg.KeyMap
	if km == nil {
		km = keymap.Default()
	}

	style := cfg.Style
	if style == (StyleConfig{}) {
		style = DefaultStyleConfig()
	}

	m := &Model{
		sel:    selection.New(),
		env:    table,
		km:     km,
		fmtCfg: cfg.Format,
		style:  style,
	}

	m.watcher = watcher.New(watcher.Config{
		Command:     cfg.Command,
		Interval:    cfg.Interval,
		HeaderLines: cfg.HeaderLines,
		Timeout:     int64(cfg.Timeout),
		Runner:      runner,
		Env:         table.Snapshot,
	})

	m.exec = operation.NewExecutor(table, &m.sel, runner, cfg.QueueSize)
	m.exec.BodyLen = func() int { return m.buf.Len() }
	m.exec.LineAndLines = m.lineAndLines
	m.exec.Reload = m.watcher.Reload
	m.exec.CancelWatcher = m.watcher.Cancel
	m.exec.Help = &m.helpVisible

	return m
}

// Init starts the Watcher's first run and interval timer.
func (m *Model) Init() tea.Cmd {
	return m.watcher.Start()
}

// Update multiplexes key events, watcher buffer updates, and operation
// completions, in a fixed case order (operation completion, then key event,
// then watcher/timer messages) so every call reaches the same source in the
// same relative priority, per spec.md §4.9.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case operation.StepDoneMsg:
		return m, m.exec.Update(msg)

	case tea.KeyMsg:
		chord, err := keymap.FromTeaKeyString(msg.String())
		if err != nil {
			return m, nil
		}
		binding, ok := m.km.Lookup(chord)
		if !ok {
			return m, nil
		}
		return m, m.exec.Submit(binding.Ops)

	case watcher.ResultMsg:
		if msg.Err == nil {
			m.buf = msg.Buffer
			m.sel.Reconcile(m.buf.Len())
		} else {
			m.lastErr = msg.Err
		}
		return m, m.watcher.Update(msg)

	case timer.TickMsg, timer.StartStopMsg, timer.TimeoutMsg:
		return m, m.watcher.Update(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

// View renders the current frame via the pure Render function.
func (m *Model) View() string {
	return Render(m.buf, m.fmtCfg, m.sel, m.style, m.km, m.helpVisible, m.width, m.height)
}

// lineAndLines implements the $line/$lines contract of spec.md §4.7 rule 7:
// the cursor's raw (unformatted) line, and the newline-joined raw lines of
// the current selection. lines reflects the selection regardless of cursor
// presence; line is empty only when there is no cursor to report.
func (m *Model) lineAndLines() (line, lines string) {
	if m.sel.Cursor != nil {
		line = m.buf.Body[*m.sel.Cursor].Raw
	}
	if len(m.sel.Selected) == 0 {
		return line, line
	}
	idxs := make([]int, 0, len(m.sel.Selected))
	for i := range m.sel.Selected {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	parts := make([]string, len(idxs))
	for i, idx := range idxs {
		parts[i] = m.buf.Body[idx].Raw
	}
	return line, strings.Join(parts, "\n")
}

// runInitialEnv parses and runs each --initial-env/initial_env entry's
// set-env operations in order, blocking, before the Watcher's first spawn
// (spec.md §6). A parse failure here would mean resolveOptions let an
// invalid entry through uncaught; it is logged and the remaining entries
// still run rather than aborting startup entirely.
func runInitialEnv(table *env.Table, runner *subprocess.Runner, entries []string) {
	for _, entry := range entries {
		ops, err := operation.ParseInitialEnv(entry)
		if err != nil {
			slog.Warn("initial-env: skipping invalid entry", "entry", entry, "error", err)
			continue
		}
		if err := operation.RunSetEnvOps(context.Background(), table, runner, ops); err != nil {
			slog.Warn("initial-env: set-env failed", "error", err)
		}
	}
}
