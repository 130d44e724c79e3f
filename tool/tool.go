// Package tool binds tool declarations to execution functions over a
// workspace and dispatches model tool calls by name.
package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fwojciec/shipit"
)

// Definition pairs a tool declaration with its execution function.
//
// Execute reports domain failures as ToolResult.IsError. A returned error
// aborts the run.
type Definition struct {
	Tool    shipit.Tool
	Execute func(ctx context.Context, args json.RawMessage) (*shipit.ToolResult, error)
}

// Compile-time interface check.
var _ shipit.ToolExecutor = (*Registry)(nil)

// Registry dispatches tool calls to the definition registered under the
// call's name.
type Registry struct {
	defs  map[string]Definition
	order []string
}

// NewRegistry returns a Registry holding defs in the given order. Duplicate
// or empty names are rejected.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		name := d.Tool.Name
		if name == "" {
			return nil, fmt.Errorf("tool without name: %w", shipit.ErrValidation)
		}
		if _, ok := r.defs[name]; ok {
			return nil, fmt.Errorf("duplicate tool %q: %w", name, shipit.ErrValidation)
		}
		if d.Execute == nil {
			return nil, fmt.Errorf("tool %q has no execute function: %w", name, shipit.ErrValidation)
		}
		r.defs[name] = d
		r.order = append(r.order, name)
	}
	return r, nil
}

// Execute runs the named tool. Unknown names produce a ProtocolViolation
// result so the model can correct itself.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (*shipit.ToolResult, error) {
	d, ok := r.defs[name]
	if !ok {
		return errorResult(failure{
			Error: fmt.Sprintf("unknown tool: %s", name),
			Kind:  shipit.ErrorKind(shipit.ErrProtocolViolation),
		}), nil
	}
	return d.Execute(ctx, args)
}

// Tools returns the declarations in registration order.
func (r *Registry) Tools() []shipit.Tool {
	tools := make([]shipit.Tool, len(r.order))
	for i, name := range r.order {
		tools[i] = r.defs[name].Tool
	}
	return tools
}

// failure is the result body for calls rejected before reaching a tool.
type failure struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func jsonResult(v any, isError bool) *shipit.ToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
		isError = true
	}
	return &shipit.ToolResult{
		Content: []shipit.ContentBlock{shipit.TextBlock{Text: string(data)}},
		IsError: isError,
	}
}

func okResult(v any) *shipit.ToolResult { return jsonResult(v, false) }

func errorResult(v any) *shipit.ToolResult { return jsonResult(v, true) }

// protocolError reports arguments that do not match a tool's schema.
func protocolError(tool string, err error) *shipit.ToolResult {
	return errorResult(failure{
		Error: fmt.Sprintf("invalid arguments for %s: %s", tool, err),
		Kind:  shipit.ErrorKind(shipit.ErrProtocolViolation),
	})
}

// decodeArgs strictly decodes raw into v. Empty input is treated as an
// empty object.
func decodeArgs(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after arguments")
	}
	return nil
}

func required(field string) error {
	return fmt.Errorf("%s is required", field)
}
