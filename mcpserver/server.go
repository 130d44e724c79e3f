// Package mcpserver exposes agent runs as an MCP tool so that an MCP client
// can hand a task to the agent and receive the final answer.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fwojciec/shipit"
	"github.com/fwojciec/shipit/agent"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ToolName is the name of the single tool this server registers.
const ToolName = "run_task"

// Runner runs one agent task. *agent.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, prompt, repo string, opts ...agent.RunOption) (shipit.RunResult, error)
}

// Server is an MCP server with the run_task tool registered.
type Server struct {
	runner Runner
	mcp    *server.MCPServer
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Logs must not go to stdout when serving stdio.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Server that hands tasks to runner.
func New(runner Runner, version string, opts ...Option) *Server {
	s := &Server{
		runner: runner,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}
	s.mcp = server.NewMCPServer("shipit", version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)
	s.mcp.AddTool(RunTaskTool(), s.HandleRunTask)
	return s
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// ServeStdio serves requests on stdin and stdout until the client
// disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// RunTaskTool declares the run_task tool.
func RunTaskTool() mcp.Tool {
	return mcp.NewTool(ToolName,
		mcp.WithDescription("Run a coding agent on a task. Without a repository the agent edits the server's working directory; with one it works in a fresh sandbox clone and opens a pull request."),
		mcp.WithString("task", mcp.Required(), mcp.Description("What the agent should do")),
		mcp.WithString("repository", mcp.Description("GitHub repository to clone, as owner/name or a clone URL")),
	)
}

// HandleRunTask runs the task described by request. Validation and run
// failures are reported as tool errors so the client can show them.
func (s *Server) HandleRunTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task, err := request.RequireString("task")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	repo := request.GetString("repository", "")
	s.logger.InfoContext(ctx, "run_task", "repository", repo)

	var opts []agent.RunOption
	if token := progressToken(request); token != nil {
		opts = append(opts, agent.WithEventHandler(s.progress(ctx, token)))
	}
	res, err := s.runner.Run(ctx, task, repo, opts...)
	if err != nil {
		s.logger.ErrorContext(ctx, "run_task failed", "error", err)
		return mcp.NewToolResultError(describe(err)), nil
	}
	return mcp.NewToolResultStructuredOnly(map[string]any{
		"state":    res.State.String(),
		"steps":    res.Steps,
		"response": res.Response,
		"usage": map[string]any{
			"inputTokens":     res.Usage.InputTokens,
			"outputTokens":    res.Usage.OutputTokens,
			"cacheReadTokens": res.Usage.CacheReadTokens,
		},
	}), nil
}

func describe(err error) string {
	switch {
	case errors.Is(err, shipit.ErrValidation):
		return fmt.Sprintf("invalid task: %v", err)
	case errors.Is(err, shipit.ErrPublish):
		return fmt.Sprintf("could not open pull request: %v", err)
	case errors.Is(err, context.Canceled):
		return "run cancelled"
	default:
		return fmt.Sprintf("run failed: %v", err)
	}
}

func progressToken(request mcp.CallToolRequest) mcp.ProgressToken {
	if request.Params.Meta == nil {
		return nil
	}
	return request.Params.Meta.ProgressToken
}

// progress turns step events into MCP progress notifications.
func (s *Server) progress(ctx context.Context, token mcp.ProgressToken) func(shipit.Event) {
	srv := server.ServerFromContext(ctx)
	return func(e shipit.Event) {
		step, ok := e.(shipit.EventStepStart)
		if !ok || srv == nil {
			return
		}
		err := srv.SendNotificationToClient(ctx, "notifications/progress", map[string]any{
			"progressToken": token,
			"progress":      step.Step,
			"total":         step.MaxSteps,
			"message":       fmt.Sprintf("step %d of %d", step.Step, step.MaxSteps),
		})
		if err != nil {
			s.logger.DebugContext(ctx, "progress notification dropped", "error", err)
		}
	}
}
