// Package terminal owns the *tea.Program lifecycle: raw mode, alt-screen,
// hidden cursor, and their guaranteed release on every exit path (normal
// quit, fatal error, or panic).
package terminal

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
)

// Host runs a tea.Model to completion, guaranteeing terminal restoration.
type Host struct {
	AltScreen bool
}

// Run starts the program and returns whichever error the program produced.
// A panic that reaches Run is recovered and returned as an error; it is not
// re-raised.
func (h Host) Run(model tea.Model) (err error) {
	opts := []tea.ProgramOption{}
	if h.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(model, opts...)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("fatal panic recovered", "panic", r)
			err = fmt.Errorf("terminal: fatal panic: %v", r)
		}
	}()

	if _, runErr := program.Run(); runErr != nil {
		return fmt.Errorf("terminal: %w", runErr)
	}
	return nil
}
