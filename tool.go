package shipit

import (
	"context"
	"encoding/json"
)

// Tool is the declaration sent to the model describing a tool's capabilities.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolExecutor runs tools. ToolResult.IsError reports domain failures back to
// the model. A non-nil error is unrecoverable and aborts the run.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args json.RawMessage) (*ToolResult, error)
}

// ToolResult represents the outcome of a tool execution.
type ToolResult struct {
	Content []ContentBlock
	IsError bool
}

// Text joins the result's text blocks with newlines.
func (r *ToolResult) Text() string {
	var s string
	for _, b := range r.Content {
		if tb, ok := b.(TextBlock); ok {
			if s != "" {
				s += "\n"
			}
			s += tb.Text
		}
	}
	return s
}
