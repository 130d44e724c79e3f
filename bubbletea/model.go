package bubbletea

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/shipit"
	"github.com/fwojciec/shipit/goldmark"
	"github.com/mattn/go-runewidth"
)

var _ tea.Model = Model{}

const defaultWidth = 80

type callStatus int

const (
	callPending callStatus = iota
	callOK
	callFailed
)

type toolLine struct {
	id      string
	name    string
	summary string
	status  callStatus
}

// Model is the Bubble Tea model for one run.
type Model struct {
	// Spinner animates while the run is in flight. Exported for test access.
	Spinner spinner.Model

	run      RunFunc
	task     string
	styles   Styles
	renderer *goldmark.Renderer
	width    int

	step     int
	maxSteps int
	tools    []toolLine

	done   bool
	result shipit.RunResult
	err    error

	ctx     context.Context
	cancel  context.CancelFunc
	eventCh chan shipit.Event
	doneCh  chan DoneMsg
}

// New creates a Model that starts run when the program initializes.
func New(run RunFunc, task string, theme shipit.Theme) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	styles := NewStyles(theme)
	s.Style = styles.Step
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		Spinner:  s,
		run:      run,
		task:     task,
		styles:   styles,
		renderer: goldmark.New(theme),
		width:    defaultWidth,
		ctx:      ctx,
		cancel:   cancel,
		eventCh:  make(chan shipit.Event, 256),
		doneCh:   make(chan DoneMsg, 1),
	}
}

// Done reports whether the run has returned.
func (m Model) Done() bool { return m.done }

// Result returns the run result once Done.
func (m Model) Result() shipit.RunResult { return m.result }

// Err returns the error the run ended with, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.Spinner.Tick,
		startRun(m.ctx, m.run, m.eventCh, m.doneCh),
		listen(m.eventCh, m.doneCh),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			if m.done {
				return m, tea.Quit
			}
			m.cancel()
		}
		return m, nil

	case cancelMsg:
		m.cancel()
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case EventMsg:
		m = m.apply(msg.Event)
		return m, listen(m.eventCh, m.doneCh)

	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		m.cancel()
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) apply(evt shipit.Event) Model {
	switch e := evt.(type) {
	case shipit.EventStepStart:
		m.step = e.Step
		m.maxSteps = e.MaxSteps
	case shipit.EventToolCallBegin:
		m.tools = append(m.tools, toolLine{id: e.ID, name: e.Name})
	case shipit.EventToolCallEnd:
		if i := m.find(e.Call.ID); i >= 0 {
			m.tools[i].summary = summarize(e.Call.Arguments)
		}
	case shipit.EventToolResult:
		if i := m.find(e.ID); i >= 0 {
			m.tools[i].status = callOK
			if e.IsError {
				m.tools[i].status = callFailed
			}
		}
	}
	return m
}

func (m Model) find(id string) int {
	for i := len(m.tools) - 1; i >= 0; i-- {
		if m.tools[i].id == id {
			return i
		}
	}
	return -1
}

// summarize picks the argument that best identifies a call.
func summarize(args json.RawMessage) string {
	var fields map[string]any
	if json.Unmarshal(args, &fields) != nil {
		return ""
	}
	for _, key := range []string{"path", "title", "task"} {
		if v, ok := fields[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Accent.Render("shipit") + " " + m.fit(m.task, len("shipit ")))
	b.WriteString("\n")
	for _, t := range m.tools {
		b.WriteString(m.toolView(t))
		b.WriteString("\n")
	}
	if !m.done {
		b.WriteString(m.Spinner.View() + " " + m.statusLine())
		b.WriteString("\n")
		return b.String()
	}
	if m.err != nil {
		b.WriteString(m.styles.Error.Render(m.errorLine()))
		b.WriteString("\n")
		return b.String()
	}
	if out := m.renderer.Render(m.result.Response, m.width); out != "" {
		b.WriteString("\n" + out + "\n\n")
	}
	b.WriteString(m.summaryLine())
	b.WriteString("\n")
	return b.String()
}

func (m Model) toolView(t toolLine) string {
	var mark string
	switch t.status {
	case callOK:
		mark = m.styles.Success.Render("✓")
	case callFailed:
		mark = m.styles.Error.Render("✗")
	default:
		mark = m.styles.Muted.Render("…")
	}
	name := m.fit(t.name, 2)
	line := mark + " " + m.styles.Tool.Render(name)
	if summary := m.fit(t.summary, 3+runewidth.StringWidth(name)); summary != "" {
		line += " " + m.styles.Muted.Render(summary)
	}
	return line
}

func (m Model) statusLine() string {
	if m.step == 0 {
		return m.styles.Muted.Render("starting")
	}
	return m.styles.Step.Render(fmt.Sprintf("step %d/%d", m.step, m.maxSteps))
}

func (m Model) errorLine() string {
	if errors.Is(m.err, context.Canceled) {
		return "cancelled"
	}
	return "error: " + m.err.Error()
}

func (m Model) summaryLine() string {
	r := m.result
	state := r.State.String()
	switch r.State {
	case shipit.RunStateDone:
		state = m.styles.Success.Render(state)
	case shipit.RunStateExhausted:
		state = m.styles.Warning.Render(state)
	}
	return fmt.Sprintf("%s %s", state, m.styles.Muted.Render(
		fmt.Sprintf("after %d steps, %d tokens", r.Steps, r.Usage.Total())))
}

// fit shortens plain text so that it fits in the cells left after used
// cells of a line are spent.
func (m Model) fit(text string, used int) string {
	room := m.width - used
	if room <= 1 {
		return ""
	}
	return runewidth.Truncate(text, room, "…")
}

// startRun runs the agent in the command goroutine and reports completion
// after the last event has been queued.
func startRun(ctx context.Context, run RunFunc, eventCh chan<- shipit.Event, doneCh chan<- DoneMsg) tea.Cmd {
	return func() tea.Msg {
		res, err := run(ctx, func(e shipit.Event) {
			select {
			case eventCh <- e:
			case <-ctx.Done():
			}
		})
		close(eventCh)
		doneCh <- DoneMsg{Result: res, Err: err}
		return nil
	}
}

// listen waits for the next event. Once the channel is closed it yields
// the DoneMsg.
func listen(eventCh <-chan shipit.Event, doneCh <-chan DoneMsg) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-eventCh
		if !ok {
			return <-doneCh
		}
		return EventMsg{Event: evt}
	}
}
