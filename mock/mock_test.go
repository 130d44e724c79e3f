package mock_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/fwojciec/shipit"
	"github.com/fwojciec/shipit/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Stream(t *testing.T) {
	t.Parallel()
	t.Run("delegates to StreamFn", func(t *testing.T) {
		t.Parallel()
		var s mock.Stream
		p := mock.Provider{
			StreamFn: func(ctx context.Context, req shipit.Request) (shipit.Stream, error) {
				return &s, nil
			},
		}
		got, err := p.Stream(context.Background(), shipit.Request{})
		require.NoError(t, err)
		assert.Equal(t, &s, got)
	})

	t.Run("panics when StreamFn not set", func(t *testing.T) {
		t.Parallel()
		p := mock.Provider{}
		assert.Panics(t, func() {
			_, _ = p.Stream(context.Background(), shipit.Request{})
		})
	})
}

func TestStream_NilSafeMethods(t *testing.T) {
	t.Parallel()
	s := mock.Stream{}
	assert.Equal(t, shipit.StreamStateNew, s.State())
	assert.NoError(t, s.Close())
	assert.Panics(t, func() { _, _ = s.Next() })
	assert.Panics(t, func() { _, _ = s.Message() })
}

func TestReplayStream(t *testing.T) {
	t.Parallel()
	msg := shipit.AssistantMessage{Content: []shipit.ContentBlock{shipit.TextBlock{Text: "hi"}}}
	s := mock.ReplayStream(msg, shipit.EventTextDelta{Delta: "h"}, shipit.EventTextDelta{Delta: "i"})

	e, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, shipit.EventTextDelta{Delta: "h"}, e)
	assert.Equal(t, shipit.StreamStateStreaming, s.State())

	_, err = s.Next()
	require.NoError(t, err)
	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, shipit.StreamStateComplete, s.State())

	got, err := s.Message()
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestToolExecutor_Execute(t *testing.T) {
	t.Parallel()
	want := &shipit.ToolResult{Content: []shipit.ContentBlock{shipit.TextBlock{Text: "result"}}}
	e := mock.ToolExecutor{
		ExecuteFn: func(ctx context.Context, name string, args json.RawMessage) (*shipit.ToolResult, error) {
			assert.Equal(t, "read_file", name)
			assert.JSONEq(t, `{"path":"foo.go"}`, string(args))
			return want, nil
		},
	}
	got, err := e.Execute(context.Background(), "read_file", json.RawMessage(`{"path":"foo.go"}`))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSandboxSession(t *testing.T) {
	t.Parallel()

	t.Run("nil-safe ID and Stop", func(t *testing.T) {
		t.Parallel()
		s := mock.SandboxSession{}
		assert.Equal(t, "mock", s.ID())
		assert.NoError(t, s.Stop(context.Background()))
	})

	t.Run("Run forwards variadic args", func(t *testing.T) {
		t.Parallel()
		s := mock.SandboxSession{
			RunFn: func(ctx context.Context, cmd string, args ...string) (shipit.CommandResult, error) {
				assert.Equal(t, "git", cmd)
				assert.Equal(t, []string{"add", "-A"}, args)
				return shipit.CommandResult{ExitCode: 0}, nil
			},
		}
		_, err := s.Run(context.Background(), "git", "add", "-A")
		require.NoError(t, err)
	})
}

func TestPublisher_Publish(t *testing.T) {
	t.Parallel()
	wantErr := errors.New("push rejected")
	p := mock.Publisher{
		PublishFn: func(ctx context.Context, session shipit.SandboxSession, repo string, pr shipit.PullRequest) (string, error) {
			assert.Equal(t, "owner/repo", repo)
			return "", wantErr
		},
	}
	_, err := p.Publish(context.Background(), &mock.SandboxSession{}, "owner/repo", shipit.PullRequest{Title: "t"})
	assert.ErrorIs(t, err, wantErr)
}
