package operation

import (
	"context"
	"log/slog"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/watchbind/watchbind/internal/env"
	"github.com/watchbind/watchbind/internal/selection"
	"github.com/watchbind/watchbind/internal/subprocess"
)

// State is the executor's Idle/Running state machine position.
type State int

const (
	Idle State = iota
	Running
)

// StepDoneMsg continues a suspended sequence after its blocking operation
// (Exec{Blocking,TuiInherit} or SetEnv) completes. setEnvName/setEnvValue
// carry a SetEnv result back to Update, so the EnvTable write itself
// happens on the EventLoop goroutine rather than the tea.Cmd worker that
// ran the subprocess.
type StepDoneMsg struct {
	err error

	setEnvName  string
	setEnvValue string
}

// Executor runs one keybinding's operation sequence to completion as a
// single logical unit (spec.md §4.7), serially within the sequence and
// serially across sequences via a bounded FIFO queue.
type Executor struct {
	Env    *env.Table
	Sel    *selection.Model
	Runner *subprocess.Runner

	// QueueCap bounds the number of queued sequences; 0 means unbounded.
	QueueCap int

	// BodyLen returns the current body length, for cursor/selection bounds.
	BodyLen func() int
	// LineAndLines returns the unformatted cursor line and newline-joined
	// selection (or the cursor line alone if the selection is empty).
	LineAndLines func() (line, lines string)
	// Reload triggers the Watcher's Reload and returns its tea.Cmd.
	Reload func() tea.Cmd
	// CancelWatcher cancels any in-flight watcher child, used by Exit.
	CancelWatcher func()
	// Help toggles help-overlay visibility in the caller's model.
	Help *bool

	queue      [][]Op
	current    []Op
	idx        int
	state      State
	background []*subprocess.Background
}

// NewExecutor returns an idle Executor wired to its collaborators. Callers
// fill in the remaining callback fields (Reload, CancelWatcher, Help,
// BodyLen, LineAndLines) before submitting anything.
func NewExecutor(e *env.Table, sel *selection.Model, runner *subprocess.Runner, queueCap int) *Executor {
	return &Executor{Env: e, Sel: sel, Runner: runner, QueueCap: queueCap}
}

// State reports whether a sequence is currently running.
func (e *Executor) State() State { return e.state }

// Submit starts ops running if the executor is Idle, or enqueues it (FIFO,
// bounded) if a sequence is already Running. Returns any tea.Cmd to hand to
// the Bubble Tea runtime.
func (e *Executor) Submit(ops []Op) tea.Cmd {
	if len(ops) == 0 {
		return nil
	}
	if e.state == Running {
		if e.QueueCap > 0 && len(e.queue) >= e.QueueCap {
			slog.Warn("operation queue full, dropping oldest queued sequence")
			e.queue = e.queue[1:]
		}
		e.queue = append(e.queue, ops)
		return nil
	}
	e.current = ops
	e.idx = 0
	e.state = Running
	return e.step()
}

// Update advances a suspended sequence after its blocking operation
// completes.
func (e *Executor) Update(msg StepDoneMsg) tea.Cmd {
	if msg.err != nil {
		slog.Warn("operation failed", "error", msg.err)
	}
	if msg.setEnvName != "" {
		e.Env.Set(msg.setEnvName, msg.setEnvValue)
	}
	return e.step()
}

func (e *Executor) step() tea.Cmd {
	var cmds []tea.Cmd
	for e.idx < len(e.current) {
		op := e.current[e.idx]
		e.idx++

		if op.IsBlockingOp() {
			cmds = append(cmds, e.runBlockingOp(op))
			return tea.Batch(cmds...)
		}

		if cmd := e.applyStateOp(op); cmd != nil {
			cmds = append(cmds, cmd)
		}
		if op.Kind == Exit {
			return tea.Batch(cmds...)
		}
	}
	cmds = append(cmds, e.finishSequence()...)
	return tea.Batch(cmds...)
}

func (e *Executor) finishSequence() []tea.Cmd {
	e.state = Idle
	if len(e.queue) == 0 {
		return nil
	}
	e.current = e.queue[0]
	e.queue = e.queue[1:]
	e.idx = 0
	e.state = Running
	if cmd := e.step(); cmd != nil {
		return []tea.Cmd{cmd}
	}
	return nil
}

func (e *Executor) applyStateOp(op Op) tea.Cmd {
	n := 0
	if e.BodyLen != nil {
		n = e.BodyLen()
	}
	switch op.Kind {
	case CursorDown:
		e.Sel.CursorDown(op.N, n)
	case CursorUp:
		e.Sel.CursorUp(op.N, n)
	case CursorFirst:
		e.Sel.CursorFirst(n)
	case CursorLast:
		e.Sel.CursorLast(n)
	case Select:
		e.Sel.Select()
	case Unselect:
		e.Sel.Unselect()
	case ToggleSelection:
		e.Sel.Toggle()
	case SelectAll:
		e.Sel.SelectAll(n)
	case UnselectAll:
		e.Sel.UnselectAll()
	case UnsetEnv:
		e.Env.Unset(op.Name)
	case HelpShow:
		if e.Help != nil {
			*e.Help = true
		}
	case HelpHide:
		if e.Help != nil {
			*e.Help = false
		}
	case HelpToggle:
		if e.Help != nil {
			*e.Help = !*e.Help
		}
	case Reload:
		if e.Reload != nil {
			return e.Reload()
		}
	case Exec:
		if op.Mode == Background {
			return e.execBackground(op.Cmd)
		}
	case Exit:
		e.state = Idle
		return e.doExit()
	}
	return nil
}

func (e *Executor) spawnEnv() env.Snapshot {
	line, lines := "", ""
	if e.LineAndLines != nil {
		line, lines = e.LineAndLines()
	}
	return e.Env.Snapshot().WithLineVars(line, lines)
}

func (e *Executor) execBackground(cmd string) tea.Cmd {
	bg, err := e.Runner.StartBackground(cmd, subprocess.EnvSlice(e.spawnEnv()))
	if err != nil {
		slog.Warn("failed to spawn background command", "cmd", cmd, "error", err)
		return nil
	}
	e.background = append(e.background, bg)
	go func(cmd string, bg *subprocess.Background) {
		<-bg.Done
		if bg.Err != nil {
			slog.Warn("background command errored", "cmd", cmd, "error", bg.Err)
		} else if bg.ExitCode != 0 {
			slog.Info("background command exited non-zero", "cmd", cmd, "exit_code", bg.ExitCode)
		}
	}(cmd, bg)
	return nil
}

// runBlockingOp builds the tea.Cmd for a suspending operation: Exec in
// Blocking or TuiInherit mode, or SetEnv. It is always the last cmd issued
// before step returns, since the sequence is paused until its completion
// message arrives.
func (e *Executor) runBlockingOp(op Op) tea.Cmd {
	envv := subprocess.EnvSlice(e.spawnEnv())

	switch op.Kind {
	case SetEnv:
		return func() tea.Msg {
			res, err := e.Runner.RunBlocking(context.Background(), op.Cmd, envv)
			if err != nil {
				return StepDoneMsg{err: err}
			}
			if res.ExitCode != 0 {
				slog.Warn("set-env command exited non-zero, leaving EnvTable unchanged", "name", op.Name, "cmd", op.Cmd, "exit_code", res.ExitCode)
				return StepDoneMsg{}
			}
			return StepDoneMsg{setEnvName: op.Name, setEnvValue: trimSingleTrailingNewline(string(res.Stdout))}
		}
	case Exec:
		switch op.Mode {
		case TuiInherit:
			cmd := subprocess.BuildTuiInheritCmd(op.Cmd, envv)
			return tea.ExecProcess(cmd, func(err error) tea.Msg {
				return StepDoneMsg{err: err}
			})
		default: // Blocking
			return func() tea.Msg {
				res, err := e.Runner.RunBlocking(context.Background(), op.Cmd, envv)
				if err != nil {
					return StepDoneMsg{err: err}
				}
				if res.ExitCode != 0 {
					slog.Info("exec command exited non-zero", "cmd", op.Cmd, "exit_code", res.ExitCode)
				}
				return StepDoneMsg{}
			}
		}
	}
	return func() tea.Msg { return StepDoneMsg{} }
}

func (e *Executor) doExit() tea.Cmd {
	if e.CancelWatcher != nil {
		e.CancelWatcher()
	}
	bgs := e.background
	return func() tea.Msg {
		for _, bg := range bgs {
			if p := bg.Process(); p != nil {
				_ = p.Signal(syscall.SIGTERM)
			}
		}
		done := make(chan struct{})
		go func() {
			for _, bg := range bgs {
				<-bg.Done
			}
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(250 * time.Millisecond):
			for _, bg := range bgs {
				select {
				case <-bg.Done:
				default:
					if p := bg.Process(); p != nil {
						_ = p.Signal(syscall.SIGKILL)
					}
				}
			}
		}
		return tea.Quit()
	}
}

func trimSingleTrailingNewline(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		return s[:len(s)-1]
	}
	return s
}
