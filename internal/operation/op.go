// Package operation defines the Operation vocabulary bound to keys and the
// executor that runs one keybinding's operation sequence to completion.
package operation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/watchbind/watchbind/internal/env"
	"github.com/watchbind/watchbind/internal/subprocess"
)

// Kind discriminates the Operation variants.
type Kind int

const (
	Exit Kind = iota
	Reload
	CursorDown
	CursorUp
	CursorFirst
	CursorLast
	Select
	Unselect
	ToggleSelection
	SelectAll
	UnselectAll
	Exec
	SetEnv
	UnsetEnv
	HelpShow
	HelpHide
	HelpToggle
)

// ExecMode selects how an Exec operation spawns its command.
type ExecMode int

const (
	Blocking ExecMode = iota
	Background
	TuiInherit
)

func (m ExecMode) String() string {
	switch m {
	case Background:
		return "&"
	case TuiInherit:
		return "tui"
	default:
		return ""
	}
}

// Op is one parsed Operation. Only the fields relevant to Kind are
// meaningful; the rest are zero.
type Op struct {
	Kind Kind
	N    int      // CursorDown/CursorUp step count
	Mode ExecMode // Exec
	Cmd  string   // Exec, SetEnv
	Name string   // SetEnv, UnsetEnv
}

func (o Op) String() string {
	switch o.Kind {
	case Exit:
		return "exit"
	case Reload:
		return "reload"
	case CursorDown:
		return fmt.Sprintf("cursor down %d", o.N)
	case CursorUp:
		return fmt.Sprintf("cursor up %d", o.N)
	case CursorFirst:
		return "cursor first"
	case CursorLast:
		return "cursor last"
	case Select:
		return "select"
	case Unselect:
		return "unselect"
	case ToggleSelection:
		return "toggle-selection"
	case SelectAll:
		return "select-all"
	case UnselectAll:
		return "unselect-all"
	case Exec:
		if o.Mode == Blocking {
			return fmt.Sprintf("exec -- %s", o.Cmd)
		}
		return fmt.Sprintf("exec %s -- %s", o.Mode, o.Cmd)
	case SetEnv:
		return fmt.Sprintf("set-env %s -- %s", o.Name, o.Cmd)
	case UnsetEnv:
		return fmt.Sprintf("unset-env %s", o.Name)
	case HelpShow:
		return "help-show"
	case HelpHide:
		return "help-hide"
	case HelpToggle:
		return "help-toggle"
	default:
		return "invalid"
	}
}

// Parse parses a single operation string, one element of a "+"-joined
// sequence, into an Op. Grammar mirrors the CLI/TOML operation vocabulary:
// "exit", "reload", "cursor down N", "cursor up N", "cursor first",
// "cursor last", "select", "unselect", "toggle-selection", "select-all",
// "unselect-all", "exec -- CMD", "exec & -- CMD", "exec tui -- CMD",
// "set-env NAME -- CMD", "unset-env NAME", "help-show", "help-hide",
// "help-toggle".
func Parse(s string) (Op, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "exit":
		return Op{Kind: Exit}, nil
	case s == "reload":
		return Op{Kind: Reload}, nil
	case s == "cursor first":
		return Op{Kind: CursorFirst}, nil
	case s == "cursor last":
		return Op{Kind: CursorLast}, nil
	case s == "select":
		return Op{Kind: Select}, nil
	case s == "unselect":
		return Op{Kind: Unselect}, nil
	case s == "toggle-selection":
		return Op{Kind: ToggleSelection}, nil
	case s == "select-all":
		return Op{Kind: SelectAll}, nil
	case s == "unselect-all":
		return Op{Kind: UnselectAll}, nil
	case s == "help-show":
		return Op{Kind: HelpShow}, nil
	case s == "help-hide":
		return Op{Kind: HelpHide}, nil
	case s == "help-toggle":
		return Op{Kind: HelpToggle}, nil
	}

	if rest, ok := cutPrefix(s, "cursor down "); ok {
		n, err := parseStep(rest)
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: CursorDown, N: n}, nil
	}
	if rest, ok := cutPrefix(s, "cursor up "); ok {
		n, err := parseStep(rest)
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: CursorUp, N: n}, nil
	}

	if rest, ok := cutPrefix(s, "exec "); ok {
		mode := Blocking
		switch {
		case rest == "-- " || strings.HasPrefix(rest, "-- "):
			rest = strings.TrimPrefix(rest, "-- ")
		case strings.HasPrefix(rest, "& -- "):
			mode = Background
			rest = strings.TrimPrefix(rest, "& -- ")
		case strings.HasPrefix(rest, "tui -- "):
			mode = TuiInherit
			rest = strings.TrimPrefix(rest, "tui -- ")
		default:
			return Op{}, fmt.Errorf("operation: invalid exec form %q", s)
		}
		return Op{Kind: Exec, Mode: mode, Cmd: rest}, nil
	}

	if rest, ok := cutPrefix(s, "set-env "); ok {
		name, cmd, ok := strings.Cut(rest, " -- ")
		if !ok {
			return Op{}, fmt.Errorf("operation: invalid set-env form %q", s)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return Op{}, fmt.Errorf("operation: set-env requires a name: %q", s)
		}
		return Op{Kind: SetEnv, Name: name, Cmd: cmd}, nil
	}

	if rest, ok := cutPrefix(s, "unset-env "); ok {
		name := strings.TrimSpace(rest)
		if name == "" {
			return Op{}, fmt.Errorf("operation: unset-env requires a name: %q", s)
		}
		return Op{Kind: UnsetEnv, Name: name}, nil
	}

	return Op{}, fmt.Errorf("operation: unrecognized operation %q", s)
}

// ParseSequence parses a "+"-joined operation sequence, as found after the
// ":" in a single "KEY:OP[+OP]*" binding.
func ParseSequence(s string) ([]Op, error) {
	parts := strings.Split(s, "+")
	ops := make([]Op, 0, len(parts))
	for _, p := range parts {
		op, err := Parse(p)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func cutPrefix(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) {
		return "", false
	}
	return s[len(prefix):], true
}

func parseStep(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("operation: invalid step count %q: %w", s, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("operation: step count must be >= 1, got %d", n)
	}
	return n, nil
}

// IsBlockingOp reports whether executing o suspends the sequence until it
// completes: Exec{Blocking,TuiInherit} and SetEnv both block; Background and
// all state-only operations complete synchronously.
func (o Op) IsBlockingOp() bool {
	switch o.Kind {
	case SetEnv:
		return true
	case Exec:
		return o.Mode == Blocking || o.Mode == TuiInherit
	default:
		return false
	}
}

// ParseInitialEnv parses one --initial-env / initial_env entry into the
// set-env operations it names. A single entry may chain several clauses
// with "; set-env ..." (the CLI's "set-env NAME -- CMD[; set-env …]"
// grammar); a TOML initial_env list element is a single clause and splits
// into exactly one Op. Only set-env operations are allowed here.
func ParseInitialEnv(s string) ([]Op, error) {
	clauses := splitSetEnvClauses(strings.TrimSpace(s))
	ops := make([]Op, 0, len(clauses))
	for _, c := range clauses {
		op, err := Parse(c)
		if err != nil {
			return nil, err
		}
		if op.Kind != SetEnv {
			return nil, fmt.Errorf("operation: initial-env only allows set-env operations, got %q", c)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// splitSetEnvClauses splits a "set-env NAME -- CMD[; set-env NAME -- CMD]*"
// string on its "; set-env " joints, restoring the "set-env " prefix each
// later clause lost to the split.
func splitSetEnvClauses(s string) []string {
	const sep = "; set-env "
	parts := strings.Split(s, sep)
	for i := 1; i < len(parts); i++ {
		parts[i] = "set-env " + parts[i]
	}
	return parts
}

// RunSetEnvOps runs ops (as produced by ParseInitialEnv) in order against
// table, blocking on each subprocess spawn in turn. Used at startup, before
// the Watcher's first run, so initial-env's set-env commands see the
// controlling process's environment plus whatever earlier clauses in the
// same list already set (spec.md §3, §6).
func RunSetEnvOps(ctx context.Context, table *env.Table, runner *subprocess.Runner, ops []Op) error {
	for _, op := range ops {
		envv := subprocess.EnvSlice(table.Snapshot())
		res, err := runner.RunBlocking(ctx, op.Cmd, envv)
		if err != nil {
			return fmt.Errorf("operation: initial-env set-env %s: %w", op.Name, err)
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("operation: initial-env set-env %s: command %q exited %d", op.Name, op.Cmd, res.ExitCode)
		}
		table.Set(op.Name, trimSingleTrailingNewline(string(res.Stdout)))
	}
	return nil
}
