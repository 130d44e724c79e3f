package shipit_test

import (
	"testing"

	"github.com/fwojciec/shipit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestRequestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     shipit.Request
		wantErr bool
	}{
		{name: "zero request is valid", req: shipit.Request{}},
		{name: "temperature in range", req: shipit.Request{Temperature: ptr(1.0)}},
		{name: "negative temperature", req: shipit.Request{Temperature: ptr(-0.1)}, wantErr: true},
		{name: "temperature above two", req: shipit.Request{Temperature: ptr(2.5)}, wantErr: true},
		{name: "negative max tokens", req: shipit.Request{MaxTokens: -1}, wantErr: true},
		{
			name:    "duplicate tool names",
			req:     shipit.Request{Tools: []shipit.Tool{{Name: "read_file"}, {Name: "read_file"}}},
			wantErr: true,
		},
		{name: "tool without name", req: shipit.Request{Tools: []shipit.Tool{{}}}, wantErr: true},
		{
			name: "tool result without call id",
			req: shipit.Request{Messages: []shipit.Message{
				shipit.ToolResultMessage{ToolName: "read_file"},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.req.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, shipit.ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateMessage(t *testing.T) {
	t.Parallel()

	t.Run("user message rejects tool calls", func(t *testing.T) {
		t.Parallel()
		err := shipit.ValidateMessage(shipit.UserMessage{Content: []shipit.ContentBlock{
			shipit.ToolCallBlock{ID: "1", Name: "x"},
		}})
		assert.ErrorIs(t, err, shipit.ErrValidation)
	})

	t.Run("assistant message accepts thinking and tool calls", func(t *testing.T) {
		t.Parallel()
		err := shipit.ValidateMessage(shipit.AssistantMessage{Content: []shipit.ContentBlock{
			shipit.ThinkingBlock{Thinking: "plan"},
			shipit.TextBlock{Text: "ok"},
			shipit.ToolCallBlock{ID: "1", Name: "x"},
		}})
		assert.NoError(t, err)
	})

	t.Run("tool result rejects thinking", func(t *testing.T) {
		t.Parallel()
		err := shipit.ValidateMessage(shipit.ToolResultMessage{
			ToolCallID: "1",
			Content:    []shipit.ContentBlock{shipit.ThinkingBlock{Thinking: "no"}},
		})
		assert.ErrorIs(t, err, shipit.ErrValidation)
	})
}
