// Package agent drives the bounded conversation between a Provider and a
// ToolExecutor.
package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/shipit"
)

// DefaultMaxSteps is the number of model rounds a run may take.
const DefaultMaxSteps = 10

// Loop runs the RUNNING -> DONE | EXHAUSTED state machine over a session.
type Loop struct {
	provider shipit.Provider
	executor shipit.ToolExecutor
	maxSteps int
	logger   *slog.Logger
}

// New creates a Loop. Only WithMaxSteps and WithLogger affect a Loop.
func New(provider shipit.Provider, executor shipit.ToolExecutor, opts ...Option) *Loop {
	cfg := newConfig(opts)
	return &Loop{
		provider: provider,
		executor: executor,
		maxSteps: cfg.maxSteps,
		logger:   cfg.logger,
	}
}

// RunOption configures a single Run invocation.
type RunOption func(*runConfig)

type runConfig struct {
	onEvent func(shipit.Event)
	model   string
}

// WithEventHandler sets a callback that receives each event during the run.
// If nil or not set, events are discarded.
func WithEventHandler(h func(shipit.Event)) RunOption {
	return func(c *runConfig) {
		c.onEvent = h
	}
}

// WithModel sets the model ID for provider requests during this run.
// Empty string means the provider uses its default model.
func WithModel(model string) RunOption {
	return func(c *runConfig) {
		c.model = model
	}
}

func (c *runConfig) emit(e shipit.Event) {
	if c.onEvent != nil {
		c.onEvent(e)
	}
}

// Run executes model rounds until the model answers without tool calls
// (DONE) or the step ceiling is reached (EXHAUSTED). Tool calls of a round
// are dispatched one at a time in the order the model emitted them. All
// messages are appended to session.Messages.
//
// Provider, stream, and executor errors end the run and are returned with
// the result accumulated so far.
func (l *Loop) Run(ctx context.Context, session *shipit.Session, tools []shipit.Tool, opts ...RunOption) (shipit.RunResult, error) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	result := shipit.RunResult{State: shipit.RunStateRunning}
	for result.State == shipit.RunStateRunning {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Steps++
		cfg.emit(shipit.EventStepStart{Step: result.Steps, MaxSteps: l.maxSteps})
		l.logger.Debug("model round", "step", result.Steps, "max_steps", l.maxSteps)

		msg, err := l.round(ctx, session, tools, &cfg)
		result.Usage = result.Usage.Add(msg.Usage)
		if err != nil {
			return result, err
		}
		result.Response = msg.Text()

		calls := msg.ToolCalls()
		if len(calls) == 0 {
			result.State = shipit.RunStateDone
			break
		}
		if err := l.dispatch(ctx, session, calls, &cfg); err != nil {
			return result, err
		}
		if result.Steps >= l.maxSteps {
			result.State = shipit.RunStateExhausted
		}
	}

	l.logger.Info("run finished", "state", result.State.String(), "steps", result.Steps,
		"input_tokens", result.Usage.InputTokens, "output_tokens", result.Usage.OutputTokens)
	return result, nil
}

// round performs one provider call and appends the assembled message.
func (l *Loop) round(ctx context.Context, session *shipit.Session, tools []shipit.Tool, cfg *runConfig) (shipit.AssistantMessage, error) {
	req := shipit.Request{
		Model:        cfg.model,
		SystemPrompt: session.SystemPrompt,
		Messages:     session.Messages,
		Tools:        tools,
	}

	stream, err := l.provider.Stream(ctx, req)
	if err != nil {
		return shipit.AssistantMessage{}, fmt.Errorf("model: %w", err)
	}
	defer stream.Close()

	// Drain the stream, forwarding events to handler if set.
	var streamErr error
	for {
		evt, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			streamErr = err
			break
		}
		cfg.emit(evt)
	}

	// Get the assembled message (partial or complete).
	msg, msgErr := stream.Message()
	if msgErr != nil {
		if streamErr != nil {
			return shipit.AssistantMessage{}, fmt.Errorf("model: %w", streamErr)
		}
		return shipit.AssistantMessage{}, fmt.Errorf("model: %w", msgErr)
	}

	session.Messages = append(session.Messages, msg)
	session.UpdatedAt = time.Now()

	if streamErr != nil {
		return msg, fmt.Errorf("model: %w", streamErr)
	}
	return msg, nil
}

func (l *Loop) dispatch(ctx context.Context, session *shipit.Session, calls []shipit.ToolCallBlock, cfg *runConfig) error {
	for _, tc := range calls {
		l.logger.Debug("tool call", "tool", tc.Name, "id", tc.ID)
		result, err := l.executor.Execute(ctx, tc.Name, tc.Arguments)
		if err != nil {
			l.logger.Error("tool failed", "tool", tc.Name, "id", tc.ID, "error", err)
			return fmt.Errorf("tool %s: %w", tc.Name, err)
		}
		if result.IsError {
			l.logger.Debug("tool reported failure", "tool", tc.Name, "id", tc.ID)
		}

		session.Messages = append(session.Messages, shipit.ToolResultMessage{
			ToolCallID: tc.ID,
			ToolName:   tc.Name,
			Content:    result.Content,
			IsError:    result.IsError,
			Timestamp:  time.Now(),
		})
		cfg.emit(shipit.EventToolResult{
			ID:       tc.ID,
			ToolName: tc.Name,
			Content:  result.Text(),
			IsError:  result.IsError,
		})
	}
	session.UpdatedAt = time.Now()
	return nil
}
