package mock

import (
	"context"
	"encoding/json"

	"github.com/fwojciec/shipit"
)

// Interface compliance check.
var _ shipit.ToolExecutor = (*ToolExecutor)(nil)

// ToolExecutor is a test double for shipit.ToolExecutor.
// Set ExecuteFn before calling Execute.
type ToolExecutor struct {
	ExecuteFn func(ctx context.Context, name string, args json.RawMessage) (*shipit.ToolResult, error)
}

// Execute delegates to ExecuteFn.
func (e *ToolExecutor) Execute(ctx context.Context, name string, args json.RawMessage) (*shipit.ToolResult, error) {
	return e.ExecuteFn(ctx, name, args)
}
