package bubbletea_test

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/shipit"
	bt "github.com/fwojciec/shipit/bubbletea"
	"github.com/stretchr/testify/require"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func plain(s string) string {
	return ansi.ReplaceAllString(s, "")
}

func newModel(run bt.RunFunc) bt.Model {
	return bt.New(run, "fix the login bug", shipit.DefaultTheme())
}

// update sends a message and returns the updated Model.
func update(t *testing.T, m bt.Model, msg tea.Msg) (bt.Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model, cmd
}

func feed(t *testing.T, m bt.Model, events ...shipit.Event) bt.Model {
	t.Helper()
	for _, e := range events {
		m, _ = update(t, m, bt.EventMsg{Event: e})
	}
	return m
}

func toolCall(id, name, args string) []shipit.Event {
	return []shipit.Event{
		shipit.EventToolCallBegin{ID: id, Name: name},
		shipit.EventToolCallEnd{Call: shipit.ToolCallBlock{ID: id, Name: name, Arguments: json.RawMessage(args)}},
	}
}

func nopRun(context.Context, func(shipit.Event)) (shipit.RunResult, error) {
	return shipit.RunResult{State: shipit.RunStateDone, Steps: 1}, nil
}
