// Package bubbletea shows the progress of a single agent run in the
// terminal: a spinner with the current step, one line per tool call, and
// the rendered final answer once the run ends.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/shipit"
)

// RunFunc executes one agent run. onEvent is called for every loop event
// and the function blocks until the run ends or ctx is cancelled.
type RunFunc func(ctx context.Context, onEvent func(shipit.Event)) (shipit.RunResult, error)

// Run starts the program and blocks until the run finishes and the final
// frame is drawn. Cancelling ctx cancels the run.
func Run(ctx context.Context, m Model, opts ...tea.ProgramOption) (Model, error) {
	p := tea.NewProgram(m, opts...)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			p.Send(cancelMsg{})
		case <-done:
		}
	}()
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		m = fm
	}
	return m, err
}

// EventMsg delivers a loop event to the model.
type EventMsg struct {
	Event shipit.Event
}

// DoneMsg signals that the run has returned.
type DoneMsg struct {
	Result shipit.RunResult
	Err    error
}

type cancelMsg struct{}
