// Package watcher periodically re-runs the watched command and publishes a
// new LineBuffer to the event loop, enforcing "at most one outstanding
// child". It re-runs ahead of the interval only on an explicit Reload; an
// EnvTable change does not trigger a run. The interval timer is re-armed on
// every tick.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/timer"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/watchbind/watchbind/internal/env"
	"github.com/watchbind/watchbind/internal/linebuffer"
	"github.com/watchbind/watchbind/internal/subprocess"
)

// ResultMsg reports the outcome of one watched-command spawn. On success,
// Buffer holds the freshly parsed output and Err is nil. On failure, Buffer
// is the zero value and the caller must leave its current LineBuffer
// unchanged.
type ResultMsg struct {
	Buffer linebuffer.Buffer
	Err    error

	// epoch ties this result back to the spawn that produced it, so a
	// result from a child Reload already cancelled cannot be mistaken for
	// the replacement child that superseded it.
	epoch int
}

// Config configures a Watcher. A zero Interval means "run as fast as
// possible, never overlap".
type Config struct {
	Command     string
	Interval    time.Duration
	HeaderLines int
	// Timeout bounds one spawn of Command; 0 means no timeout.
	Timeout int64 // nanoseconds, avoids a zero time.Duration meaning "no timeout" ambiguity with 0 itself
	Runner  *subprocess.Runner
	// Env returns the current EnvTable snapshot at spawn time.
	Env func() env.Snapshot
}

// Watcher owns the timer and single outstanding child described in
// spec.md §4.8.
type Watcher struct {
	cfg Config

	timer   timer.Model
	cancel  context.CancelFunc
	running bool
	epoch   int
}

// New returns a Watcher for cfg. Call Start to begin the first run.
func New(cfg Config) *Watcher {
	return &Watcher{cfg: cfg}
}

// Start spawns the first run and arms the interval timer (if any). Intended
// as part of the top-level Model's Init.
func (w *Watcher) Start() tea.Cmd {
	return tea.Batch(w.forceSpawn(), w.rearm())
}

// Reload cancels any in-flight child, immediately schedules a new one, and
// restarts the interval timer from now.
func (w *Watcher) Reload() tea.Cmd {
	return tea.Batch(w.forceSpawn(), w.rearm())
}

// Update feeds timer messages and the Watcher's own ResultMsg through the
// Watcher's state machine, returning any follow-up tea.Cmd.
func (w *Watcher) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case timer.TickMsg, timer.StartStopMsg:
		var cmd tea.Cmd
		w.timer, cmd = w.timer.Update(msg)
		return cmd

	case timer.TimeoutMsg:
		var cmd tea.Cmd
		w.timer, cmd = w.timer.Update(msg)
		if w.running {
			slog.Warn("watch overlap: previous watched command still running, skipping this tick")
			return tea.Batch(cmd, w.rearm())
		}
		return tea.Batch(cmd, w.spawnNow(), w.rearm())

	case ResultMsg:
		if msg.epoch != w.epoch {
			// Stale: this child was cancelled by a Reload that already
			// started its replacement. The replacement's own ResultMsg,
			// carrying the current epoch, is what clears running/cancel.
			return nil
		}
		w.running = false
		w.cancel = nil
		if msg.Err != nil {
			slog.Warn("watched command failed", "error", msg.Err)
		}
		if w.cfg.Interval <= 0 {
			return w.spawnNow()
		}
	}
	return nil
}

// Running reports whether a watcher child is currently in flight.
func (w *Watcher) Running() bool {
	return w.running
}

// Cancel terminates any in-flight child without scheduling a replacement,
// used by Exit's shutdown sequence.
func (w *Watcher) Cancel() {
	if w.cancel != nil {
		w.cancel()
	}
}

func (w *Watcher) rearm() tea.Cmd {
	if w.cfg.Interval <= 0 {
		return nil
	}
	w.timer = timer.New(w.cfg.Interval)
	return w.timer.Init()
}

// forceSpawn cancels any in-flight child (if any) and starts a new one
// unconditionally, used by Start and Reload.
func (w *Watcher) forceSpawn() tea.Cmd {
	if w.cancel != nil {
		w.cancel()
	}
	return w.spawnNow()
}

func (w *Watcher) spawnNow() tea.Cmd {
	ctx := context.Background()
	var cancel context.CancelFunc
	if w.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(w.cfg.Timeout))
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	w.cancel = cancel
	w.running = true
	w.epoch++
	epoch := w.epoch

	runner := w.cfg.Runner
	command := w.cfg.Command
	headerLines := w.cfg.HeaderLines
	var envv []string
	if w.cfg.Env != nil {
		envv = subprocess.EnvSlice(w.cfg.Env())
	}

	return func() tea.Msg {
		res, err := runner.RunBlocking(ctx, command, envv)
		if err != nil {
			return ResultMsg{Err: err, epoch: epoch}
		}
		if res.ExitCode != 0 {
			return ResultMsg{Err: fmt.Errorf("watched command %q exited %d", command, res.ExitCode), epoch: epoch}
		}
		return ResultMsg{Buffer: linebuffer.Parse(res.Stdout, headerLines), epoch: epoch}
	}
}
